// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package sds011

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goburrow/serial"
)

// ClientHandler implements Packager and Transporter interface.
type ClientHandler struct {
	sds011Packager
	sds011SerialTransporter
}

// NewClientHandler allocates and initializes a ClientHandler with the
// sensor's fixed line settings (9600 8N1) and the default timeouts.
func NewClientHandler(address string) *ClientHandler {
	handler := &ClientHandler{}
	handler.Address = address
	handler.BaudRate = 9600
	handler.DataBits = 8
	handler.StopBits = 1
	handler.Parity = "N"
	handler.Timeout = serialTimeout
	handler.IdleTimeout = serialIdleTimeout
	return handler
}

// sds011Packager implements Packager interface.
type sds011Packager struct{}

// Encode builds a command frame:
//
//	Head        : 1 byte (0xAA)
//	Command     : 1 byte (0xB4)
//	Data        : 13 bytes (sub-command, write flag, value, 10 reserved)
//	Device id   : 2 bytes (0xFFFF wildcard)
//	Checksum    : 1 byte (additive over data and device id)
//	Tail        : 1 byte (0xAB)
//
// Encoding is deterministic and never fails; value validation happens
// in the Command constructors.
func (sds011Packager) Encode(cmd *Command) ([]byte, error) {
	adu := make([]byte, CommandFrameSize)
	adu[0] = FrameHead
	adu[1] = IDCommand
	adu[2] = cmd.Code
	if cmd.Write {
		adu[3] = 1
	}
	adu[4] = cmd.Value
	if cmd.Code == CmdDeviceID && cmd.Write {
		binary.BigEndian.PutUint16(adu[13:15], cmd.NewID)
	}
	binary.BigEndian.PutUint16(adu[15:17], cmd.Target)
	adu[17] = checksum(adu[2:17])
	adu[18] = FrameTail
	return adu, nil
}

// Decode validates the envelope of a reply frame and extracts it.
// Exactly ReplyFrameSize bytes with intact markers are required; a
// truncated or garbled envelope is a FramingError and yields no frame.
// A checksum mismatch still yields the frame, with ChecksumOK cleared,
// alongside a ChecksumError.
func (sds011Packager) Decode(adu []byte) (*Frame, error) {
	if len(adu) != ReplyFrameSize {
		return nil, &FramingError{
			Reason: fmt.Sprintf("reply must be %d bytes, got %d", ReplyFrameSize, len(adu)),
			Frame:  adu,
		}
	}
	if adu[0] != FrameHead || adu[9] != FrameTail {
		return nil, &FramingError{Reason: "bad frame markers", Frame: adu}
	}
	frame := &Frame{
		ID:       adu[1],
		DeviceID: binary.BigEndian.Uint16(adu[6:8]),
	}
	copy(frame.Data[:], adu[2:6])
	want := checksum(adu[2:8])
	frame.ChecksumOK = want == adu[8]
	if !frame.ChecksumOK {
		return frame, &ChecksumError{Want: want, Got: adu[8]}
	}
	return frame, nil
}

// Verify reports whether a reply answers the given request.
func (sds011Packager) Verify(request, response []byte) error {
	return match(request, response)
}

// match pairs a raw reply with a raw request: sample queries expect an
// IDSample reply, every other sub-command an IDReply frame echoing the
// sub-command byte, and the reply's device id must equal the request's
// target unless the request used the wildcard. The checksum plays no
// part here; a matching frame with a bad sum is still the answer.
func match(request, response []byte) error {
	if len(request) != CommandFrameSize || request[1] != IDCommand {
		return &FramingError{Reason: "not a command frame", Frame: request}
	}
	if len(response) != ReplyFrameSize || response[0] != FrameHead || response[9] != FrameTail {
		return &FramingError{Reason: "bad frame markers", Frame: response}
	}
	if request[2] == CmdQuery {
		if response[1] != IDSample {
			return fmt.Errorf("sds011: reply id %#02x does not answer a sample query", response[1])
		}
	} else {
		if response[1] != IDReply || response[2] != request[2] {
			return fmt.Errorf("sds011: reply id %#02x/%#02x does not answer sub-command %#02x",
				response[1], response[2], request[2])
		}
	}
	if target := binary.BigEndian.Uint16(request[15:17]); target != DeviceAny {
		if device := binary.BigEndian.Uint16(response[6:8]); device != target {
			return fmt.Errorf("sds011: reply from device %#04x, request addressed %#04x", device, target)
		}
	}
	return nil
}

// sds011SerialTransporter implements Transporter interface.
type sds011SerialTransporter struct {
	serialPort
}

// Send writes a command frame and reads reply frames until one answers
// it. Unsolicited samples and frames from foreign sensors are
// discarded and reading continues. When the deadline passes with no
// match, Send returns ErrTimeout and leaves the port usable; a serial
// fault is returned as TransportError and never conflated with a
// timeout. The whole exchange holds the port mutex, so concurrent
// callers cannot interleave on the half-duplex line.
func (t *sds011SerialTransporter) Send(request []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.connect(); err != nil {
		return nil, &TransportError{Op: "connect", Err: err}
	}
	t.lastActivity = time.Now()
	t.startCloseTimer()

	t.logf("sds011: sending % x", request)
	if _, err := t.port.Write(request); err != nil {
		return nil, &TransportError{Op: "write", Err: err}
	}

	deadline := t.lastActivity.Add(t.Timeout)
	for {
		if !time.Now().Before(deadline) {
			return nil, ErrTimeout
		}
		response, err := t.readFrame(deadline)
		if err != nil {
			if errors.Is(err, ErrTimeout) || errors.Is(err, serial.ErrTimeout) {
				return nil, ErrTimeout
			}
			return nil, &TransportError{Op: "read", Err: err}
		}
		if err := match(request, response); err != nil {
			t.logf("sds011: discarding % x: %v", response, err)
			continue
		}
		t.logf("sds011: received % x", response)
		return response, nil
	}
}

// readFrame reads one reply frame, resynchronizing on the head byte so
// a partial frame left in the buffer cannot shift every later read.
// The resync loop honors the deadline itself: an endless stream of
// junk bytes must not keep the caller waiting past it.
func (t *sds011SerialTransporter) readFrame(deadline time.Time) ([]byte, error) {
	var b [1]byte
	for {
		if !time.Now().Before(deadline) {
			return nil, ErrTimeout
		}
		if _, err := io.ReadFull(t.port, b[:]); err != nil {
			return nil, err
		}
		if b[0] == FrameHead {
			break
		}
	}
	frame := make([]byte, ReplyFrameSize)
	frame[0] = FrameHead
	if _, err := io.ReadFull(t.port, frame[1:]); err != nil {
		return nil, err
	}
	return frame, nil
}
