package mac

// Whitelist restricts RX admission to a fixed set of extended addresses,
// optionally pinning a fixed RSSI value reported for frames heard from a
// given address — a test-harness feature preserved from the original
// implementation (SPEC_FULL.md "MAC whitelist RSSI override").
type Whitelist struct {
	enabled bool
	entries []whitelistEntry
}

type whitelistEntry struct {
	extAddr   [8]byte
	fixedRSSI *int8
}

// NewWhitelist returns an empty, disabled whitelist.
func NewWhitelist() *Whitelist {
	return &Whitelist{}
}

// SetEnabled turns whitelist-gated RX admission on or off.
func (w *Whitelist) SetEnabled(enabled bool) {
	w.enabled = enabled
}

// Enabled reports whether the whitelist currently gates admission.
func (w *Whitelist) Enabled() bool {
	return w.enabled
}

// Add registers extAddr, optionally pinning a fixed RSSI override. A
// second Add for the same address replaces the entry.
func (w *Whitelist) Add(extAddr [8]byte, fixedRSSI *int8) {
	for i := range w.entries {
		if w.entries[i].extAddr == extAddr {
			w.entries[i].fixedRSSI = fixedRSSI
			return
		}
	}
	w.entries = append(w.entries, whitelistEntry{extAddr: extAddr, fixedRSSI: fixedRSSI})
}

// Remove deletes extAddr from the whitelist, if present.
func (w *Whitelist) Remove(extAddr [8]byte) {
	for i := range w.entries {
		if w.entries[i].extAddr == extAddr {
			w.entries = append(w.entries[:i], w.entries[i+1:]...)
			return
		}
	}
}

// find looks up extAddr without consulting the enabled flag.
func (w *Whitelist) find(extAddr [8]byte) (*whitelistEntry, bool) {
	for i := range w.entries {
		if w.entries[i].extAddr == extAddr {
			return &w.entries[i], true
		}
	}
	return nil, false
}

// Admit reports whether a frame from extAddr is admitted, and the RSSI
// value to report for it (rssi unmodified, or the pinned override). When
// the whitelist is disabled every address is admitted.
func (w *Whitelist) Admit(extAddr [8]byte, rssi int8) (reportedRSSI int8, ok bool) {
	if !w.enabled {
		return rssi, true
	}
	entry, found := w.find(extAddr)
	if !found {
		return rssi, false
	}
	if entry.fixedRSSI != nil {
		return *entry.fixedRSSI, true
	}
	return rssi, true
}
