package sds011

import (
	"encoding/binary"
	"fmt"
)

// Mode selects how the sensor reports samples.
type Mode byte

const (
	// ModeContinuous makes the sensor emit a sample every work period
	// without being asked. This SDK does not decode the unsolicited
	// stream; keep the sensor in ModePassive when driving it from here.
	ModeContinuous Mode = 0
	// ModePassive makes the sensor report only when queried.
	ModePassive Mode = 1
)

func (m Mode) String() string {
	switch m {
	case ModeContinuous:
		return "continuous"
	case ModePassive:
		return "passive"
	}
	return fmt.Sprintf("mode(%d)", byte(m))
}

// Work period bounds in minutes. A period of N means the sensor sleeps
// N*60-30 seconds and then samples for 30 seconds; 0 samples
// continuously, about once per second.
const (
	PeriodContinuous = 0
	PeriodMax        = 30
)

// Message is a decoded sensor reply. Implementations are immutable
// values created by Interpret and discarded after use.
type Message interface {
	// Device reports the id of the sensor that sent the reply.
	Device() uint16
	// ChecksumOK reports whether the reply frame carried a valid
	// checksum. False marks low-confidence data, not a failure.
	ChecksumOK() bool

	message()
}

type meta struct {
	device uint16
	sumOK  bool
}

func (m meta) Device() uint16   { return m.device }
func (m meta) ChecksumOK() bool { return m.sumOK }
func (meta) message()           {}

// Sample is one particulate reading in µg/m³ with one decimal place.
type Sample struct {
	meta
	PM25 float64
	PM10 float64
}

// ModeSetting answers a report-mode query or, with Write set,
// acknowledges a report-mode write.
type ModeSetting struct {
	meta
	Mode  Mode
	Write bool
}

// PeriodSetting answers a work-period query or acknowledges a
// work-period write.
type PeriodSetting struct {
	meta
	Minutes int
	Write   bool
}

// ActiveSetting reports whether fan and laser are powered.
type ActiveSetting struct {
	meta
	Active bool
	Write  bool
}

// Identification carries the firmware version as year/month/day bytes.
type Identification struct {
	meta
	Firmware [3]byte
}

// Date renders the firmware version as its release date.
func (id Identification) Date() string {
	return fmt.Sprintf("%d-%02d-%02d", 2000+int(id.Firmware[0]), id.Firmware[1], id.Firmware[2])
}

// DeviceIDSetting acknowledges a device-id write. The sensor answers
// under its new identity, carried in Device.
type DeviceIDSetting struct {
	meta
}

// Interpret promotes a decoded frame to its typed message. The reply
// identifier and sub-command form a closed set; anything outside it is
// rejected. A bad checksum is not grounds for rejection here, it
// surfaces through ChecksumOK.
func Interpret(f *Frame) (Message, error) {
	m := meta{device: f.DeviceID, sumOK: f.ChecksumOK}
	switch f.ID {
	case IDSample:
		return Sample{
			meta: m,
			PM25: float64(binary.BigEndian.Uint16(f.Data[0:2])) / 10,
			PM10: float64(binary.BigEndian.Uint16(f.Data[2:4])) / 10,
		}, nil
	case IDReply:
		write := f.Data[1] == 1
		switch f.Data[0] {
		case CmdReportMode:
			return ModeSetting{meta: m, Mode: Mode(f.Data[2]), Write: write}, nil
		case CmdWorkPeriod:
			return PeriodSetting{meta: m, Minutes: int(f.Data[2]), Write: write}, nil
		case CmdWakeState:
			return ActiveSetting{meta: m, Active: f.Data[2] == 1, Write: write}, nil
		case CmdFirmware:
			return Identification{meta: m, Firmware: [3]byte{f.Data[1], f.Data[2], f.Data[3]}}, nil
		case CmdDeviceID:
			return DeviceIDSetting{meta: m}, nil
		}
		return nil, fmt.Errorf("sds011: unknown sub-command %#02x", f.Data[0])
	}
	return nil, fmt.Errorf("sds011: unknown reply id %#02x", f.ID)
}

// QuerySample asks for one PM2.5/PM10 reading.
func QuerySample() *Command {
	return &Command{Code: CmdQuery, Target: DeviceAny}
}

// QueryMode asks for the current report mode.
func QueryMode() *Command {
	return &Command{Code: CmdReportMode, Target: DeviceAny}
}

// SetMode switches between continuous and passive reporting.
func SetMode(m Mode) *Command {
	return &Command{Code: CmdReportMode, Write: true, Value: byte(m), Target: DeviceAny}
}

// QueryPeriod asks for the current work period.
func QueryPeriod() *Command {
	return &Command{Code: CmdWorkPeriod, Target: DeviceAny}
}

// SetPeriod sets the work period in minutes. Values outside
// [PeriodContinuous, PeriodMax] fail with a RangeError before any
// byte exists.
func SetPeriod(minutes int) (*Command, error) {
	if minutes < PeriodContinuous || minutes > PeriodMax {
		return nil, &RangeError{What: "work period", Value: minutes, Min: PeriodContinuous, Max: PeriodMax}
	}
	return &Command{Code: CmdWorkPeriod, Write: true, Value: byte(minutes), Target: DeviceAny}, nil
}

// QueryActive asks whether fan and laser are powered.
func QueryActive() *Command {
	return &Command{Code: CmdWakeState, Target: DeviceAny}
}

// SetActive powers the fan and laser up or down. Sleeping the device
// preserves the life of the laser diode.
func SetActive(active bool) *Command {
	cmd := &Command{Code: CmdWakeState, Write: true, Target: DeviceAny}
	if active {
		cmd.Value = 1
	}
	return cmd
}

// QueryFirmware asks for the firmware version.
func QueryFirmware() *Command {
	return &Command{Code: CmdFirmware, Target: DeviceAny}
}

// SetDeviceID assigns a new id to the sensor.
func SetDeviceID(id uint16) *Command {
	return &Command{Code: CmdDeviceID, Write: true, NewID: id, Target: DeviceAny}
}
