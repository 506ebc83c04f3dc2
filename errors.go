package sx127x

import (
	"errors"
	"fmt"
)

var (
	ErrVersionMismatch = errors.New("sx127x: version not matched")
	ErrInvalidConfig   = errors.New("sx127x: invalid radio config")
	ErrPacketSize      = errors.New("sx127x: packet size out of range")
	ErrQueueSaturated  = errors.New("sx127x: event queue saturated")
	ErrNoInterruptPin  = errors.New("sx127x: device has no interrupt pin")
	ErrPipelineRunning = errors.New("sx127x: pipeline worker already running")
)

// BusError is a failed register or FIFO transaction. Err is the transport
// error, untouched.
type BusError struct {
	Op  string // "read" or "write"
	Reg Register
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("sx127x: %s %s: %v", e.Op, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

// SequenceAbortError reports the first failing step of a multi-step
// sequence. Steps before Index were applied to the device and are not
// rolled back; the device state must be re-derived before retrying.
type SequenceAbortError struct {
	Sequence string
	Step     string
	Index    int
	Err      error
}

func (e *SequenceAbortError) Error() string {
	return fmt.Sprintf("sx127x: %s aborted at step %d (%s), %d step(s) applied: %v",
		e.Sequence, e.Index, e.Step, e.Index, e.Err)
}

func (e *SequenceAbortError) Unwrap() error { return e.Err }

// QueueSaturationError is returned when an interrupt could not be queued
// because the pipeline was full.
type QueueSaturationError struct {
	Capacity int
}

func (e *QueueSaturationError) Error() string {
	return fmt.Sprintf("sx127x: event queue saturated (capacity %d)", e.Capacity)
}

func (e *QueueSaturationError) Is(target error) bool { return target == ErrQueueSaturated }
