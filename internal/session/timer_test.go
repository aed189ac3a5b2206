package session

import (
    "sync/atomic"
    "testing"
    "time"
)

func TestOneshotFiresOnce(t *testing.T) {
    var fired int32
    o := newOneshot(func() { atomic.AddInt32(&fired, 1) })
    o.Arm(10 * time.Millisecond)
    time.Sleep(60 * time.Millisecond)
    if n := atomic.LoadInt32(&fired); n != 1 {
        t.Fatalf("expected 1 fire, got %d", n)
    }
    if o.Armed() {
        t.Fatalf("oneshot must disarm after firing")
    }
}

func TestOneshotStopCancels(t *testing.T) {
    var fired int32
    o := newOneshot(func() { atomic.AddInt32(&fired, 1) })
    o.Arm(15 * time.Millisecond)
    o.Stop()
    time.Sleep(60 * time.Millisecond)
    if n := atomic.LoadInt32(&fired); n != 0 {
        t.Fatalf("stopped oneshot must not fire, got %d", n)
    }
}

func TestOneshotRearmSupersedes(t *testing.T) {
    var fired int32
    o := newOneshot(func() { atomic.AddInt32(&fired, 1) })
    o.Arm(15 * time.Millisecond)
    o.Arm(40 * time.Millisecond) // cancels the pending trigger
    time.Sleep(25 * time.Millisecond)
    if n := atomic.LoadInt32(&fired); n != 0 {
        t.Fatalf("superseded trigger fired early: %d", n)
    }
    time.Sleep(60 * time.Millisecond)
    if n := atomic.LoadInt32(&fired); n != 1 {
        t.Fatalf("expected exactly one fire after rearm, got %d", n)
    }
}
