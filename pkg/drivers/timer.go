// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package drivers

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Timer arms the periodic preemption tick. TickIn schedules a single pop of
// the underlying hardware timer's compare register "units" ticks in the
// future, matching the one-shot rearm-on-fire discipline of the BCM2837
// system timer this stands in for: nothing rearms the timer but another
// TickIn call, which the IRQ handler is expected to make every time it
// services the interrupt.
//
// A rate.Limiter paces the *simulated* ticks so that a host loop driving
// this timer in a tight loop behaves like real hardware firing at roughly
// fixed wall-clock intervals instead of saturating a CPU core.
type Timer struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	unit    time.Duration
	timer   *time.Timer
	fired   chan struct{}
}

// NewTimer returns a Timer where one tick unit equals unit of wall-clock
// time, paced so ticks cannot fire more often than one per unit.
func NewTimer(unit time.Duration) *Timer {
	if unit <= 0 {
		unit = time.Microsecond
	}
	return &Timer{
		limiter: rate.NewLimiter(rate.Every(unit), 1),
		unit:    unit,
		fired:   make(chan struct{}, 1),
	}
}

// TickIn arms the timer to fire after units ticks.
func (t *Timer) TickIn(units uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	d := t.unit * time.Duration(units)
	if d <= 0 {
		d = t.unit
	}
	t.timer = time.AfterFunc(d, func() {
		t.limiter.Wait(context.Background()) //nolint:errcheck
		select {
		case t.fired <- struct{}{}:
		default:
		}
	})
}

// Fired reports, non-destructively with respect to future fires, whether
// the armed tick has popped since the last call to Fired that returned
// true.
func (t *Timer) Fired() bool {
	select {
	case <-t.fired:
		return true
	default:
		return false
	}
}
