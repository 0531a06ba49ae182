/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package progress provides the throttled progress notifier and cooperative
// cancellation flag shared by every multi-stage operation (parse, order,
// convert, export). A nil *Operation is a fully supported no-op, so
// instrumentation is opt-in throughout the codebase.
package progress

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrCancelled signals a cooperative abort. It is not a failure; operations
// that observe it discard partial output and clean up before returning.
var ErrCancelled = errors.New("operation cancelled")

// Update is an immutable progress snapshot, safe to hand across goroutines.
// FractionCompleted is nil while the operation is indeterminate.
type Update struct {
	FractionCompleted *float64
	CompletedUnits    int64
	TotalUnits        *int64
	Description       string
	Detail            string
	Timestamp         time.Time
}

// Handler receives throttled progress updates. It runs outside the
// operation's lock, so a slow handler never stalls other workers, but it
// must not call back into the Operation. Workers sharing one operation may
// invoke the handler concurrently.
type Handler func(Update)

// Operation is a thread-safe progress controller. All mutating methods may
// be called concurrently from multiple workers; N callers performing M
// increments each leave CompletedUnits at exactly N*M.
type Operation struct {
	mu        sync.Mutex
	total     *int64
	completed int64
	interval  time.Duration
	handler   Handler
	lastEmit  time.Time
	emitted   bool
	cancelled atomic.Bool
}

// DefaultInterval is the handler throttle used when New is given a
// non-positive interval.
const DefaultInterval = 100 * time.Millisecond

// New creates an Operation. A nil totalUnits means indeterminate progress;
// a nil handler disables notification entirely (counters still work).
func New(totalUnits *int64, interval time.Duration, handler Handler) *Operation {
	if interval <= 0 {
		interval = DefaultInterval
	}
	op := &Operation{interval: interval, handler: handler}
	if totalUnits != nil {
		t := *totalUnits
		op.total = &t
	}
	return op
}

// Determinate is a convenience constructor for a known unit count.
func Determinate(totalUnits int64, interval time.Duration, handler Handler) *Operation {
	return New(&totalUnits, interval, handler)
}

// Cancelled reports whether Cancel has been called. Safe on a nil receiver.
func (o *Operation) Cancelled() bool {
	return o != nil && o.cancelled.Load()
}

// Err returns ErrCancelled once the operation has been cancelled, else nil.
func (o *Operation) Err() error {
	if o.Cancelled() {
		return ErrCancelled
	}
	return nil
}

// Cancel sets the cancellation flag and flushes a final handler call.
// Workers observe the flag at their next batch boundary.
func (o *Operation) Cancel() {
	if o == nil {
		return
	}
	o.cancelled.Store(true)
	o.mu.Lock()
	u := o.snapshot("cancelled", "", true)
	o.mu.Unlock()
	o.deliver(u)
}

// Completed returns the current completed unit count.
func (o *Operation) Completed() int64 {
	if o == nil {
		return 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.completed
}

// TotalUnits returns a copy of the total unit count, or nil when
// indeterminate.
func (o *Operation) TotalUnits() *int64 {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.total == nil {
		return nil
	}
	t := *o.total
	return &t
}

// SetTotalUnits sets or replaces the total unit count. The transition from
// indeterminate to determinate always flushes a handler call.
func (o *Operation) SetTotalUnits(total int64, description string) {
	if o == nil {
		return
	}
	o.mu.Lock()
	wasIndeterminate := o.total == nil
	o.total = &total
	u := o.snapshot(description, "", wasIndeterminate)
	o.mu.Unlock()
	o.deliver(u)
}

// Update sets the absolute completed unit count. Handler notification is
// throttled to one call per interval unless force is true.
func (o *Operation) Update(completed int64, description string, force bool) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.completed = completed
	u := o.snapshot(description, "", force)
	o.mu.Unlock()
	o.deliver(u)
}

// Increment adds delta to the completed unit count.
func (o *Operation) Increment(delta int64, description string) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.completed += delta
	u := o.snapshot(description, "", false)
	o.mu.Unlock()
	o.deliver(u)
}

// Detail publishes an additional detail string (e.g. the current file name)
// alongside the counters, subject to the usual throttle.
func (o *Operation) Detail(description, detail string) {
	if o == nil {
		return
	}
	o.mu.Lock()
	u := o.snapshot(description, detail, false)
	o.mu.Unlock()
	o.deliver(u)
}

// Complete marks the operation finished and always flushes. When the total
// is known, the completed count snaps to it; when indeterminate, the count
// is left as-is rather than fabricating a total.
func (o *Operation) Complete(description string) {
	if o == nil {
		return
	}
	o.mu.Lock()
	if o.total != nil {
		o.completed = *o.total
	}
	u := o.snapshot(description, "", true)
	o.mu.Unlock()
	o.deliver(u)
}

// snapshot records an emission if due and builds the update to deliver, or
// returns nil when throttled. Callers hold o.mu and deliver after unlocking.
func (o *Operation) snapshot(description, detail string, force bool) *Update {
	if o.handler == nil {
		return nil
	}
	now := time.Now()
	if !force && o.emitted && now.Sub(o.lastEmit) < o.interval {
		return nil
	}
	o.lastEmit = now
	o.emitted = true
	u := &Update{
		CompletedUnits: o.completed,
		Description:    description,
		Detail:         detail,
		Timestamp:      now,
	}
	if o.total != nil {
		t := *o.total
		u.TotalUnits = &t
		if t > 0 {
			f := float64(o.completed) / float64(t)
			if f < 0 {
				f = 0
			}
			if f > 1 {
				f = 1
			}
			u.FractionCompleted = &f
		}
	}
	return u
}

// deliver invokes the handler outside the lock. The handler field is set
// once at construction, so reading it without the lock is safe.
func (o *Operation) deliver(u *Update) {
	if u != nil {
		o.handler(*u)
	}
}
