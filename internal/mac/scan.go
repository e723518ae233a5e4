package mac

import "time"

// ScanChannelMin and ScanChannelMax bound the 2.4GHz 802.15.4 channel
// range an active scan walks (spec.md §4.3).
const (
	ScanChannelMin = 11
	ScanChannelMax = 26
)

// ActiveScanResult is a beacon heard during an active scan (spec.md §4.3).
type ActiveScanResult struct {
	NetworkName [16]byte
	ExtPanID    [8]byte
	ExtAddr     [8]byte
	PanID       uint16
	Channel     uint8
	Rssi        int8
}

// activeScan tracks the channel cursor of an in-progress scan. The
// controller owns the timing (dwell intervals are driven externally,
// matching the cooperative-tasklet model of spec.md §5: no suspension
// points live inside this package).
type activeScan struct {
	interval time.Duration
	mask     uint32
	handler  func(*ActiveScanResult)
	channel  uint8 // last channel dwelt on; 0 before the first advance
}

func newActiveScan(interval time.Duration, mask uint32, handler func(*ActiveScanResult)) *activeScan {
	return &activeScan{interval: interval, mask: mask, handler: handler}
}

// advance moves the cursor to the next mask-enabled channel in
// [ScanChannelMin, ScanChannelMax], returning done=true once the range is
// exhausted.
func (s *activeScan) advance() (channel uint8, done bool) {
	start := s.channel + 1
	if s.channel == 0 {
		start = ScanChannelMin
	}
	for ch := start; ch <= ScanChannelMax; ch++ {
		if s.mask&(1<<uint(ch)) != 0 {
			s.channel = ch
			return ch, false
		}
	}
	s.channel = ScanChannelMax + 1
	return 0, true
}

// deliver forwards a beacon result heard on the current scan channel to
// the scan's handler.
func (s *activeScan) deliver(result *ActiveScanResult) {
	if s.handler != nil {
		s.handler(result)
	}
}

// finish signals scan completion per spec.md §4.3: "a final handler(null)
// signals completion".
func (s *activeScan) finish() {
	if s.handler != nil {
		s.handler(nil)
	}
}
