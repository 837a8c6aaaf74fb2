package sds011

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when no matching reply arrives within the
// configured wait. A sensor sleeping between work periods answers
// nothing, so a timeout can be a legitimate device state; the port
// stays usable and retrying is the caller's decision.
var ErrTimeout = errors.New("sds011: timeout waiting for reply")

// ErrConfirmation is returned by setters when the acknowledgement
// frame echoes a different value than the one written.
var ErrConfirmation = errors.New("sds011: acknowledgement does not echo written value")

// FramingError reports bytes that cannot be a protocol frame at all:
// wrong length or wrong start/end markers.
type FramingError struct {
	Reason string
	Frame  []byte
}

func (e *FramingError) Error() string {
	if len(e.Frame) == 0 {
		return "sds011: " + e.Reason
	}
	return fmt.Sprintf("sds011: %s (% x)", e.Reason, e.Frame)
}

// ChecksumError reports a well-formed envelope whose checksum byte
// disagrees with the computed sum. Decode still hands the frame back,
// flagged, so the caller decides whether to discard it.
type ChecksumError struct {
	Want byte
	Got  byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("sds011: checksum mismatch: computed %#02x, frame carries %#02x", e.Want, e.Got)
}

// RangeError reports a caller-supplied value outside the device
// domain. Nothing has been written to the port when it is returned.
type RangeError struct {
	What     string
	Value    int
	Min, Max int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("sds011: %s %d out of range [%d, %d]", e.What, e.Value, e.Min, e.Max)
}

// TransportError wraps a serial-level failure, keeping it distinct
// from ErrTimeout.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sds011: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
