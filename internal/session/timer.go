package session

import (
    "sync"
    "time"
)

// oneshot is a single-shot delayed trigger with cancel-and-rearm semantics.
// Arming while a trigger is pending cancels the pending one; a fire that
// lost the race against Stop/Arm is discarded via the generation counter,
// so the associated action runs at most once per arm.
type oneshot struct {
    fn func()

    mu    sync.Mutex
    timer *time.Timer
    gen   uint64
    armed bool
}

func newOneshot(fn func()) *oneshot {
    return &oneshot{fn: fn}
}

func (o *oneshot) Arm(d time.Duration) {
    o.mu.Lock()
    o.gen++
    gen := o.gen
    if o.timer != nil {
        o.timer.Stop()
    }
    o.armed = true
    o.timer = time.AfterFunc(d, func() {
        o.mu.Lock()
        live := gen == o.gen
        if live {
            o.armed = false
        }
        o.mu.Unlock()
        if live {
            o.fn()
        }
    })
    o.mu.Unlock()
}

func (o *oneshot) Stop() {
    o.mu.Lock()
    o.gen++
    if o.timer != nil {
        o.timer.Stop()
        o.timer = nil
    }
    o.armed = false
    o.mu.Unlock()
}

func (o *oneshot) Armed() bool {
    o.mu.Lock()
    defer o.mu.Unlock()
    return o.armed
}
