package notify

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("notify: invalid trigger time")
	ErrRegistryStopped    = errors.New("notify: registry stopped")
)

type queueItem struct {
	trigger Trigger
	seq     uint64
}

type triggerQueue []queueItem

func (q triggerQueue) Len() int { return len(q) }

func (q triggerQueue) Less(i, j int) bool {
	return q[i].trigger.FireAt.Before(q[j].trigger.FireAt)
}

func (q triggerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *triggerQueue) Push(x any) {
	*q = append(*q, x.(queueItem))
}

func (q *triggerQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[0 : n-1]
	return item
}

// TimerRegistry is an in-process TriggerRegistry: a min-heap of pending
// triggers drained by one timer goroutine. Re-registering an id supersedes
// the previous trigger; stale heap entries are skipped by sequence number.
type TimerRegistry struct {
	mu      sync.Mutex
	queue   triggerQueue
	armed   map[uint]uint64
	nextSeq uint64
	out     chan Trigger
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewTimerRegistry(bufferSize int) *TimerRegistry {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &TimerRegistry{
		queue:  make(triggerQueue, 0),
		armed:  make(map[uint]uint64),
		out:    make(chan Trigger, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// C yields fired triggers in instant order.
func (r *TimerRegistry) C() <-chan Trigger {
	return r.out
}

func (r *TimerRegistry) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	heap.Init(&r.queue)
	go r.loop()
}

func (r *TimerRegistry) Stop() {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.stopCh)
	r.mu.Unlock()
	<-r.doneCh
}

// Register arms a one-shot trigger for id, replacing any trigger already
// armed under the same id.
func (r *TimerRegistry) Register(id uint, at time.Time, payload Payload) error {
	if at.IsZero() {
		return ErrInvalidTriggerTime
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrRegistryStopped
	}

	r.nextSeq++
	r.armed[id] = r.nextSeq
	heap.Push(&r.queue, queueItem{
		trigger: Trigger{ID: id, FireAt: at, Payload: payload},
		seq:     r.nextSeq,
	})
	r.signalWakeup()
	return nil
}

// Cancel unarms the trigger for id. A no-op when none is armed.
func (r *TimerRegistry) Cancel(id uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.armed, id)
	r.signalWakeup()
}

// Exists reports whether a trigger is currently armed for id. It says
// nothing about the trigger time.
func (r *TimerRegistry) Exists(id uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.armed[id]
	return ok
}

// Dropped counts triggers lost to a slow consumer.
func (r *TimerRegistry) Dropped() uint64 {
	return atomic.LoadUint64(&r.dropped)
}

func (r *TimerRegistry) loop() {
	defer close(r.doneCh)
	defer close(r.out)

	var timer *time.Timer
	for {
		next, hasNext := r.peek()
		if !hasNext {
			select {
			case <-r.wakeup:
				continue
			case <-r.stopCh:
				return
			}
		}

		wait := time.Until(next.FireAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := r.popDue(time.Now())
			for _, trigger := range due {
				select {
				case r.out <- trigger:
				default:
					atomic.AddUint64(&r.dropped, 1)
				}
			}
		case <-r.wakeup:
			continue
		case <-r.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (r *TimerRegistry) signalWakeup() {
	select {
	case r.wakeup <- struct{}{}:
	default:
	}
}

// peek returns the earliest live trigger, discarding superseded and cancelled
// heap entries along the way.
func (r *TimerRegistry) peek() (Trigger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.queue) > 0 {
		head := r.queue[0]
		if r.armed[head.trigger.ID] == head.seq {
			return head.trigger, true
		}
		heap.Pop(&r.queue)
	}
	return Trigger{}, false
}

func (r *TimerRegistry) popDue(now time.Time) []Trigger {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Trigger, 0)
	for len(r.queue) > 0 {
		head := r.queue[0]
		if r.armed[head.trigger.ID] != head.seq {
			heap.Pop(&r.queue)
			continue
		}
		if head.trigger.FireAt.After(now) {
			break
		}
		heap.Pop(&r.queue)
		delete(r.armed, head.trigger.ID)
		out = append(out, head.trigger)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
