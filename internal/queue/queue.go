// Package queue holds the byte ring buffer instruments read their event
// tokens from.
package queue

import (
	"errors"
	"fmt"
)

// Capacity is the number of bytes a Queue can hold.
const Capacity = 128

var (
	ErrQueueFull  = errors.New("queue: full")
	ErrQueueEmpty = errors.New("queue: empty")
)

// State reports whether the queue is empty, full or neither.
type State int

const (
	Empty State = iota
	Normal
	Full
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Normal:
		return "normal"
	case Full:
		return "full"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Queue is a fixed single-producer single-consumer FIFO of bytes. Read and
// write cursors being equal is ambiguous, so the state of the last
// operation tells Empty from Full.
type Queue struct {
	buf   [Capacity]byte
	r, w  int
	state State
}

// Write appends data in order. It is all-or-nothing: if data does not fit,
// nothing is written and ErrQueueFull is returned.
func (q *Queue) Write(data ...byte) error {
	if len(data) == 0 {
		return nil
	}
	if free := q.Free(); len(data) > free {
		return fmt.Errorf("%w: need %d bytes, %d free", ErrQueueFull, len(data), free)
	}
	for _, b := range data {
		q.buf[q.w] = b
		q.w++
		if q.w >= Capacity {
			q.w = 0
		}
	}
	if q.w == q.r {
		q.state = Full
	} else {
		q.state = Normal
	}
	return nil
}

// Read removes and returns the oldest byte.
func (q *Queue) Read() (byte, error) {
	if q.state == Empty {
		return 0, ErrQueueEmpty
	}
	b := q.buf[q.r]
	q.r++
	if q.r >= Capacity {
		q.r = 0
	}
	if q.r == q.w {
		q.state = Empty
	} else {
		q.state = Normal
	}
	return b, nil
}

// Len returns the number of unread bytes.
func (q *Queue) Len() int {
	switch q.state {
	case Empty:
		return 0
	case Full:
		return Capacity
	}
	n := q.w - q.r
	if n < 0 {
		n += Capacity
	}
	return n
}

func (q *Queue) Free() int { return Capacity - q.Len() }

func (q *Queue) State() State { return q.state }

// Reset discards all unread bytes.
func (q *Queue) Reset() {
	q.r, q.w = 0, 0
	q.state = Empty
}
