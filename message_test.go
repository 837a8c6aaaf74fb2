package sds011

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interpretReply(t *testing.T, id byte, data [4]byte, device uint16) Message {
	t.Helper()
	var p sds011Packager
	frame, err := p.Decode(reply(id, data, device))
	require.NoError(t, err)
	msg, err := Interpret(frame)
	require.NoError(t, err)
	return msg
}

func TestInterpretModeAck(t *testing.T) {
	msg := interpretReply(t, IDReply, [4]byte{CmdReportMode, 1, byte(ModePassive), 0}, 0xCBC2)
	ack, ok := msg.(ModeSetting)
	require.True(t, ok)
	assert.Equal(t, ModePassive, ack.Mode)
	assert.True(t, ack.Write)
	assert.Equal(t, uint16(0xCBC2), ack.Device())
}

func TestInterpretPeriodQueryReply(t *testing.T) {
	msg := interpretReply(t, IDReply, [4]byte{CmdWorkPeriod, 0, 5, 0}, 0xCBC2)
	setting, ok := msg.(PeriodSetting)
	require.True(t, ok)
	assert.Equal(t, 5, setting.Minutes)
	assert.False(t, setting.Write)
}

func TestInterpretActiveReply(t *testing.T) {
	msg := interpretReply(t, IDReply, [4]byte{CmdWakeState, 0, 1, 0}, 0xCBC2)
	setting, ok := msg.(ActiveSetting)
	require.True(t, ok)
	assert.True(t, setting.Active)
	assert.False(t, setting.Write)

	msg = interpretReply(t, IDReply, [4]byte{CmdWakeState, 1, 0, 0}, 0xCBC2)
	setting, ok = msg.(ActiveSetting)
	require.True(t, ok)
	assert.False(t, setting.Active)
	assert.True(t, setting.Write)
}

func TestInterpretFirmware(t *testing.T) {
	msg := interpretReply(t, IDReply, [4]byte{CmdFirmware, 18, 11, 23}, 0xCBC2)
	id, ok := msg.(Identification)
	require.True(t, ok)
	assert.Equal(t, [3]byte{18, 11, 23}, id.Firmware)
	assert.Equal(t, "2018-11-23", id.Date())
}

func TestInterpretDeviceIDAck(t *testing.T) {
	msg := interpretReply(t, IDReply, [4]byte{CmdDeviceID, 1, 0, 0}, 0xA1B2)
	ack, ok := msg.(DeviceIDSetting)
	require.True(t, ok)
	assert.Equal(t, uint16(0xA1B2), ack.Device())
}

func TestInterpretUnknown(t *testing.T) {
	// The envelope is intact here, so the rejection must not claim a
	// framing problem.
	var framing *FramingError

	_, err := Interpret(&Frame{ID: 0xC9})
	assert.Error(t, err)
	assert.False(t, errors.As(err, &framing))

	_, err = Interpret(&Frame{ID: IDReply, Data: [4]byte{0x42, 0, 0, 0}})
	assert.Error(t, err)
	assert.False(t, errors.As(err, &framing))
}

func TestInterpretKeepsChecksumFlag(t *testing.T) {
	frame := &Frame{ID: IDSample, Data: [4]byte{0, 150, 1, 48}, DeviceID: 0xCBC2, ChecksumOK: false}
	msg, err := Interpret(frame)
	require.NoError(t, err)
	assert.False(t, msg.ChecksumOK())
	assert.Equal(t, 15.0, msg.(Sample).PM25)
}

func TestSetPeriodRange(t *testing.T) {
	var rangeErr *RangeError

	_, err := SetPeriod(31)
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 31, rangeErr.Value)

	_, err = SetPeriod(-1)
	require.ErrorAs(t, err, &rangeErr)

	cmd, err := SetPeriod(0)
	require.NoError(t, err)
	assert.Equal(t, byte(0), cmd.Value)

	cmd, err = SetPeriod(30)
	require.NoError(t, err)
	assert.Equal(t, byte(30), cmd.Value)
}

func TestSettingRoundTrip(t *testing.T) {
	// A write command followed by the ack the hardware would send for
	// it must reconstruct the written value.
	cmd := SetMode(ModePassive)
	ack := interpretReply(t, IDReply, [4]byte{cmd.Code, 1, cmd.Value, 0}, 0xCBC2)
	setting, ok := ack.(ModeSetting)
	require.True(t, ok)
	assert.Equal(t, ModePassive, setting.Mode)
	assert.True(t, setting.Write)

	period, err := SetPeriod(12)
	require.NoError(t, err)
	back := interpretReply(t, IDReply, [4]byte{period.Code, 1, period.Value, 0}, 0xCBC2)
	assert.Equal(t, 12, back.(PeriodSetting).Minutes)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "continuous", ModeContinuous.String())
	assert.Equal(t, "passive", ModePassive.String())
	assert.Equal(t, "mode(7)", Mode(7).String())
}
