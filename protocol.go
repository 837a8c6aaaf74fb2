// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package sds011

// Frame markers and frame identifiers of the SDS011 serial protocol.
const (
	FrameHead byte = 0xAA
	FrameTail byte = 0xAB

	IDCommand byte = 0xB4 // host to sensor
	IDSample  byte = 0xC0 // sample reply
	IDReply   byte = 0xC5 // property reply / setting acknowledgement
)

// Sub-commands carried in the first data byte of an IDCommand frame
// and echoed in the first data byte of an IDReply frame.
const (
	CmdReportMode byte = 2
	CmdQuery      byte = 4
	CmdDeviceID   byte = 5
	CmdWakeState  byte = 6
	CmdFirmware   byte = 7
	CmdWorkPeriod byte = 8
)

const (
	// CommandFrameSize is the length of a host-to-sensor frame.
	CommandFrameSize = 19
	// ReplyFrameSize is the length of a sensor-to-host frame.
	ReplyFrameSize = 10

	// DeviceAny is the wildcard id accepted by every sensor on the line.
	DeviceAny uint16 = 0xFFFF
)

// Command is a device operation independent of the framing layer.
// Use the constructors (QuerySample, SetPeriod, ...) rather than
// filling the fields by hand; they validate the value range and set
// the wildcard target.
type Command struct {
	Code   byte // sub-command
	Write  bool
	Value  byte
	NewID  uint16 // device-id writes only
	Target uint16 // destination sensor; DeviceAny addresses any
}

// Frame is a decoded reply envelope, not yet given semantic meaning.
// ChecksumOK records the checksum verdict instead of rejecting the
// frame, so low-confidence data stays visible to the caller.
type Frame struct {
	ID         byte // IDSample or IDReply
	Data       [4]byte
	DeviceID   uint16
	ChecksumOK bool
}

// Packager specifies the framing layer.
type Packager interface {
	Encode(cmd *Command) (request []byte, err error)
	Decode(response []byte) (*Frame, error)
	Verify(request []byte, response []byte) (err error)
}

// Transporter specifies the transport layer.
type Transporter interface {
	Send(request []byte) (response []byte, err error)
}

// checksum is the additive frame checksum: the low byte of the sum of
// every byte between the frame identifier and the checksum position,
// device id included.
func checksum(data []byte) byte {
	sum := byte(0)
	for _, b := range data {
		sum += b
	}
	return sum
}
