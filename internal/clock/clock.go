// Package clock abstracts delayed execution so feedback timers can be driven deterministically in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled action.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed actions.
type Clock interface {
	Now() time.Time
	AfterFunc(delay time.Duration, action func()) Timer
}

// System is the production clock backed by the time package.
type System struct{}

// Now returns the current time.
func (System) Now() time.Time {
	return time.Now()
}

// AfterFunc runs action on its own goroutine after delay.
func (System) AfterFunc(delay time.Duration, action func()) Timer {
	return time.AfterFunc(delay, action)
}

// Manual is a clock whose time only moves when Advance is called.
type Manual struct {
	mutex     sync.Mutex
	current   time.Time
	scheduled []*manualTimer
	sequence  int
}

type manualTimer struct {
	owner    *Manual
	deadline time.Time
	order    int
	action   func()
	stopped  bool
	fired    bool
}

// NewManual returns a Manual clock starting at the provided time.
func NewManual(start time.Time) *Manual {
	return &Manual{current: start}
}

// Now returns the manual clock's current time.
func (manual *Manual) Now() time.Time {
	manual.mutex.Lock()
	defer manual.mutex.Unlock()
	return manual.current
}

// AfterFunc schedules action to run once the clock has advanced past delay.
func (manual *Manual) AfterFunc(delay time.Duration, action func()) Timer {
	manual.mutex.Lock()
	defer manual.mutex.Unlock()
	manual.sequence++
	timer := &manualTimer{owner: manual, deadline: manual.current.Add(delay), order: manual.sequence, action: action}
	manual.scheduled = append(manual.scheduled, timer)
	return timer
}

// Advance moves the clock forward and runs every due action synchronously in deadline order.
func (manual *Manual) Advance(duration time.Duration) {
	manual.mutex.Lock()
	manual.current = manual.current.Add(duration)
	now := manual.current
	var due []*manualTimer
	var remaining []*manualTimer
	for _, timer := range manual.scheduled {
		if timer.stopped {
			continue
		}
		if !timer.deadline.After(now) {
			timer.fired = true
			due = append(due, timer)
			continue
		}
		remaining = append(remaining, timer)
	}
	manual.scheduled = remaining
	manual.mutex.Unlock()

	sort.SliceStable(due, func(left, right int) bool {
		if due[left].deadline.Equal(due[right].deadline) {
			return due[left].order < due[right].order
		}
		return due[left].deadline.Before(due[right].deadline)
	})
	for _, timer := range due {
		timer.action()
	}
}

// Pending reports how many actions are still scheduled.
func (manual *Manual) Pending() int {
	manual.mutex.Lock()
	defer manual.mutex.Unlock()
	count := 0
	for _, timer := range manual.scheduled {
		if !timer.stopped {
			count++
		}
	}
	return count
}

func (timer *manualTimer) Stop() bool {
	timer.owner.mutex.Lock()
	defer timer.owner.mutex.Unlock()
	if timer.stopped || timer.fired {
		return false
	}
	timer.stopped = true
	return true
}
