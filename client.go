package sds011

import (
	"errors"
	"fmt"
)

// Client drives a single SDS011 sensor. Every getter is a live round
// trip to the hardware and nothing is cached between calls, so a
// sleeping sensor surfaces as ErrTimeout rather than as stale data.
type Client struct {
	packager    Packager
	transporter Transporter
	device      uint16 // bound sensor id, DeviceAny until learned
}

// NewClient creates a client addressing any sensor on the line. The
// id of the first sensor that answers becomes the bound id for every
// later exchange.
func NewClient(handler *ClientHandler) *Client {
	return &Client{
		packager:    handler,
		transporter: handler,
		device:      DeviceAny,
	}
}

// NewBoundClient creates a client addressing one specific sensor id.
func NewBoundClient(handler *ClientHandler, device uint16) *Client {
	return &Client{
		packager:    handler,
		transporter: handler,
		device:      device,
	}
}

// DeviceID returns the bound sensor id, DeviceAny before first contact.
func (c *Client) DeviceID() uint16 {
	return c.device
}

// send runs one encode-write-match-decode exchange and binds the
// sensor id on first contact. A reply that matched but carries a bad
// checksum is still delivered, flagged through ChecksumOK.
func (c *Client) send(cmd *Command) (Message, error) {
	if cmd.Code != CmdDeviceID {
		cmd.Target = c.device
	}
	request, err := c.packager.Encode(cmd)
	if err != nil {
		return nil, err
	}
	response, err := c.transporter.Send(request)
	if err != nil {
		return nil, err
	}
	frame, err := c.packager.Decode(response)
	if err != nil {
		var sumErr *ChecksumError
		if !errors.As(err, &sumErr) {
			return nil, err
		}
	}
	msg, err := Interpret(frame)
	if err != nil {
		return nil, err
	}
	if c.device == DeviceAny {
		c.device = msg.Device()
	}
	return msg, nil
}

// Mode reports whether the sensor is in continuous or passive mode.
func (c *Client) Mode() (ModeSetting, error) {
	msg, err := c.send(QueryMode())
	if err != nil {
		return ModeSetting{}, err
	}
	setting, ok := msg.(ModeSetting)
	if !ok {
		return ModeSetting{}, fmt.Errorf("sds011: unexpected reply %T to mode query", msg)
	}
	return setting, nil
}

// SetMode switches the report mode and checks the acknowledgement
// echo. The value is not read back afterwards; the acknowledgement is
// the confirmation.
func (c *Client) SetMode(m Mode) error {
	msg, err := c.send(SetMode(m))
	if err != nil {
		return err
	}
	ack, ok := msg.(ModeSetting)
	if !ok || !ack.Write || ack.Mode != m {
		return ErrConfirmation
	}
	return nil
}

// Period reports the current work period in minutes.
func (c *Client) Period() (PeriodSetting, error) {
	msg, err := c.send(QueryPeriod())
	if err != nil {
		return PeriodSetting{}, err
	}
	setting, ok := msg.(PeriodSetting)
	if !ok {
		return PeriodSetting{}, fmt.Errorf("sds011: unexpected reply %T to period query", msg)
	}
	return setting, nil
}

// SetPeriod sets the work period in minutes, 0 to 30. An out-of-range
// value fails locally before anything reaches the port.
func (c *Client) SetPeriod(minutes int) error {
	cmd, err := SetPeriod(minutes)
	if err != nil {
		return err
	}
	msg, err := c.send(cmd)
	if err != nil {
		return err
	}
	ack, ok := msg.(PeriodSetting)
	if !ok || !ack.Write || ack.Minutes != minutes {
		return ErrConfirmation
	}
	return nil
}

// Active reports whether fan and laser are powered.
func (c *Client) Active() (ActiveSetting, error) {
	msg, err := c.send(QueryActive())
	if err != nil {
		return ActiveSetting{}, err
	}
	setting, ok := msg.(ActiveSetting)
	if !ok {
		return ActiveSetting{}, fmt.Errorf("sds011: unexpected reply %T to wake-state query", msg)
	}
	return setting, nil
}

// SetActive powers the fan and laser up or down.
func (c *Client) SetActive(active bool) error {
	msg, err := c.send(SetActive(active))
	if err != nil {
		return err
	}
	ack, ok := msg.(ActiveSetting)
	if !ok || !ack.Write || ack.Active != active {
		return ErrConfirmation
	}
	return nil
}

// Firmware reports the sensor's firmware version.
func (c *Client) Firmware() (Identification, error) {
	msg, err := c.send(QueryFirmware())
	if err != nil {
		return Identification{}, err
	}
	id, ok := msg.(Identification)
	if !ok {
		return Identification{}, fmt.Errorf("sds011: unexpected reply %T to firmware query", msg)
	}
	return id, nil
}

// Query requests one sample. In passive mode with a work period set,
// the sensor sleeps between samples and a query during sleep times
// out; that is a device state, not a fault, and retrying after a
// delay is up to the caller.
func (c *Client) Query() (Sample, error) {
	msg, err := c.send(QuerySample())
	if err != nil {
		return Sample{}, err
	}
	sample, ok := msg.(Sample)
	if !ok {
		return Sample{}, fmt.Errorf("sds011: unexpected reply %T to sample query", msg)
	}
	return sample, nil
}

// SetDeviceID assigns a new id to the sensor and rebinds the client to
// it. The request goes out with the wildcard id because the sensor
// acknowledges under its new identity.
func (c *Client) SetDeviceID(id uint16) error {
	msg, err := c.send(SetDeviceID(id))
	if err != nil {
		return err
	}
	ack, ok := msg.(DeviceIDSetting)
	if !ok || ack.Device() != id {
		return ErrConfirmation
	}
	c.device = id
	return nil
}
