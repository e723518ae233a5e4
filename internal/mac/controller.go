package mac

import (
	"math/rand"
	"time"

	"github.com/hwipl/thread-core/internal/corerr"
	"github.com/hwipl/thread-core/internal/logging"
)

var log = logging.For("mac")

// State is a MAC controller state (spec.md §4.3).
type State uint8

const (
	StateDisabled State = iota
	StateIdle
	StateTransmitData
	StateTransmitBeacon
	StateActiveScan
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "Disabled"
	case StateIdle:
		return "Idle"
	case StateTransmitData:
		return "TransmitData"
	case StateTransmitBeacon:
		return "TransmitBeacon"
	case StateActiveScan:
		return "ActiveScan"
	default:
		return "Unknown"
	}
}

// maxTransmitAttempts is the retry cap on an acked transmission before
// the destination neighbor is marked Invalid (spec.md §4.3).
const maxTransmitAttempts = 12

// Sender is a FIFO-queued transmit requester: the controller asks it for
// a frame to send when its turn to transmit arrives.
type Sender interface {
	// NextFrame returns the frame to transmit and whether an ack is
	// required.
	NextFrame() (frame *Frame, ackRequested bool, kind corerr.Kind)
	// TransmitComplete reports the final outcome: acked, or failed
	// after exhausting retries.
	TransmitComplete(ok bool)
}

// Controller is the MAC state machine: TX FIFO with backoff/retry,
// active scan, beacon promotion, and RX dispatch/admission (spec.md
// §4.3).
type Controller struct {
	state State
	rng   *rand.Rand

	pending []Sender
	current Sender
	acked   bool
	attempt int

	scan *activeScan

	whitelist      *Whitelist
	ownShort       uint16
	beaconDeferred bool

	onMarkInvalid func(Sender)
}

// NewController returns a Disabled controller. Enable transitions it to
// Idle.
func NewController(ownShort uint16, seed int64) *Controller {
	return &Controller{
		state:     StateDisabled,
		rng:       rand.New(rand.NewSource(seed)),
		whitelist: NewWhitelist(),
		ownShort:  ownShort,
	}
}

// State returns the controller's current state.
func (c *Controller) State() State { return c.state }

// Whitelist returns the controller's RX admission whitelist.
func (c *Controller) Whitelist() *Whitelist { return c.whitelist }

// SetMarkInvalidHandler installs the callback invoked when a destination
// neighbor's transmission exhausts its retries (spec.md §4.3).
func (c *Controller) SetMarkInvalidHandler(fn func(Sender)) {
	c.onMarkInvalid = fn
}

// Enable transitions Disabled -> Idle.
func (c *Controller) Enable() corerr.Kind {
	if c.state != StateDisabled {
		return corerr.InvalidState
	}
	c.state = StateIdle
	return corerr.None
}

// randomBackoff returns a backoff duration of [1,32] symbol periods
// (spec.md §4.3), one symbol period being 16us at 250kbps per
// 802.15.4-2006 §6.5.3.2.
func (c *Controller) randomBackoff() time.Duration {
	symbols := 1 + c.rng.Intn(32)
	return time.Duration(symbols) * 16 * time.Microsecond
}

// SendFrameRequest appends sender to the FIFO transmit queue. If the
// controller is Idle with nothing already pending, it starts a backoff
// and transitions to TransmitData (spec.md §4.3).
func (c *Controller) SendFrameRequest(s Sender) (backoff time.Duration, kind corerr.Kind) {
	if c.state == StateDisabled {
		return 0, corerr.InvalidState
	}
	wasEmpty := len(c.pending) == 0 && c.current == nil
	c.pending = append(c.pending, s)

	if c.state == StateIdle && wasEmpty {
		return c.startNextTransmit(), corerr.None
	}
	return 0, corerr.None
}

// startNextTransmit pops the next sender off the FIFO, transitions to
// TransmitData, and returns the backoff the caller should wait before
// invoking BeginTransmit.
func (c *Controller) startNextTransmit() time.Duration {
	c.current = c.pending[0]
	c.pending = c.pending[1:]
	c.attempt = 0
	c.state = StateTransmitData
	return c.randomBackoff()
}

// BeginTransmit asks the current sender for a frame once its backoff has
// elapsed. The driver is expected to hand the returned frame to the
// radio and later report the outcome via TransmitDone.
func (c *Controller) BeginTransmit() (frame *Frame, kind corerr.Kind) {
	if c.state != StateTransmitData || c.current == nil {
		return nil, corerr.InvalidState
	}
	f, ack, k := c.current.NextFrame()
	if k.Fail() {
		return nil, k
	}
	c.acked = ack
	c.attempt++
	return f, corerr.None
}

// TransmitDone reports the radio's "transmit-done" event. If an ack was
// requested and not received, it retries with a fresh backoff up to
// maxTransmitAttempts; on final failure the sender is reported as failed
// and, if a mark-invalid handler is installed, invoked (spec.md §4.3).
func (c *Controller) TransmitDone(acked bool) (retryBackoff time.Duration, done bool, kind corerr.Kind) {
	if c.state != StateTransmitData || c.current == nil {
		return 0, false, corerr.InvalidState
	}

	success := !c.acked || acked
	if success {
		c.current.TransmitComplete(true)
		return c.finishTransmit(), true, corerr.None
	}

	if c.attempt >= maxTransmitAttempts {
		log.WithField("attempts", c.attempt).Warn("transmit failed, marking neighbor invalid")
		if c.onMarkInvalid != nil {
			c.onMarkInvalid(c.current)
		}
		c.current.TransmitComplete(false)
		return c.finishTransmit(), true, corerr.None
	}

	return c.randomBackoff(), false, corerr.None
}

// finishTransmit advances to the next pending sender (if any) or back to
// Idle, resolving a deferred beacon transmit first if one is pending.
func (c *Controller) finishTransmit() time.Duration {
	c.current = nil
	if len(c.pending) > 0 {
		return c.startNextTransmit()
	}
	if c.beaconDeferred {
		c.beaconDeferred = false
		c.state = StateTransmitBeacon
		return 0
	}
	c.state = StateIdle
	return 0
}

// BeaconTransmitDone returns the controller to Idle after a
// Transmit-Beacon completes.
func (c *Controller) BeaconTransmitDone() corerr.Kind {
	if c.state != StateTransmitBeacon {
		return corerr.InvalidState
	}
	c.state = StateIdle
	return corerr.None
}

// OnBeaconRequest promotes an Idle controller to Transmit-Beacon;
// otherwise the beacon transmit is deferred until the controller next
// returns to Idle (spec.md §4.3).
func (c *Controller) OnBeaconRequest() {
	if c.state == StateIdle {
		c.state = StateTransmitBeacon
		return
	}
	c.beaconDeferred = true
}

// ActiveScan begins a channel-by-channel active scan (spec.md §4.3).
// Only valid from Idle.
func (c *Controller) ActiveScan(intervalPerChannel time.Duration, channelMask uint32, handler func(*ActiveScanResult)) corerr.Kind {
	if c.state != StateIdle {
		return corerr.InvalidState
	}
	c.scan = newActiveScan(intervalPerChannel, channelMask, handler)
	c.state = StateActiveScan
	return corerr.None
}

// AdvanceScanChannel moves the scan to the next mask-enabled channel,
// returning it so the driver can tune the radio and emit a beacon
// request; it reports done once the range [ScanChannelMin,
// ScanChannelMax] is exhausted, invoking handler(nil) and returning to
// Idle.
func (c *Controller) AdvanceScanChannel() (channel uint8, interval time.Duration, done bool, kind corerr.Kind) {
	if c.state != StateActiveScan || c.scan == nil {
		return 0, 0, true, corerr.InvalidState
	}
	ch, finished := c.scan.advance()
	if finished {
		c.scan.finish()
		c.scan = nil
		c.state = StateIdle
		return 0, 0, true, corerr.None
	}
	return ch, c.scan.interval, false, corerr.None
}

// OnBeaconReceived forwards a beacon heard during an active scan to the
// scan's handler.
func (c *Controller) OnBeaconReceived(result *ActiveScanResult) corerr.Kind {
	if c.state != StateActiveScan || c.scan == nil {
		return corerr.InvalidState
	}
	c.scan.deliver(result)
	return corerr.None
}

// Dispatch is the RX admission and routing decision for a parsed frame
// (spec.md §4.3): frames addressed to 0xFFFF or the local short address
// are admitted; with the whitelist enabled, only whitelisted extended
// addresses are admitted (with any pinned RSSI override applied).
func (c *Controller) Dispatch(f *Frame, rssi int8) (reportedRSSI int8, admitted bool) {
	if f.DstAddr.Mode == AddrModeShort {
		if f.DstAddr.Short != 0xffff && f.DstAddr.Short != c.ownShort {
			return rssi, false
		}
	}
	if f.SrcAddr.Mode == AddrModeExtended {
		return c.whitelist.Admit(f.SrcAddr.Extended, rssi)
	}
	return rssi, true
}
