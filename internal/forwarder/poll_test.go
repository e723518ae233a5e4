package forwarder

import (
	"testing"
	"time"

	"github.com/hwipl/thread-core/internal/buffer"
)

func TestPollTimerFiresOnlyWhenActive(t *testing.T) {
	pool := buffer.NewPool(4, 64)
	p := NewPollTimer(500 * time.Millisecond)

	if _, kind := p.Fire(pool); !kind.Fail() {
		t.Fatal("expected InvalidState before activation")
	}

	p.SetRxOnWhenIdle(false)
	if !p.Active() {
		t.Fatal("expected Active() after SetRxOnWhenIdle(false)")
	}
	msg, kind := p.Fire(pool)
	if kind.Fail() {
		t.Fatalf("Fire: %s", kind)
	}
	if msg.Type != buffer.TypeMacDataPoll {
		t.Fatalf("message type = %s, want MacDataPoll", msg.Type)
	}

	p.SetRxOnWhenIdle(true)
	if p.Active() {
		t.Fatal("expected inactive after SetRxOnWhenIdle(true)")
	}
}
