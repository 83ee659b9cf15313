package esp

import (
	"errors"
	"fmt"
	"time"

	"i4.energy/across/espgw/at"
)

// recvPayloadTimeout bounds the raw payload read inside Receive. It is
// a fixed short deadline independent of the caller's timeout: once the
// notification header has been parsed the payload bytes are already in
// flight, and waiting out a long caller budget on a short read would
// only leave the stream in mid-message.
const recvPayloadTimeout = 500 * time.Millisecond

// maxRecvPayload bounds the payload length accepted from a
// notification header. The firmware caps raw publishes at 4KiB, so a
// larger figure is a corrupt header, not a message.
const maxRecvPayload = 4096

// Message is one received subscription message. It is produced whole or
// not at all.
type Message struct {
	Topic   string
	Payload []byte
}

// MQTTConfig sets the session identity used by the next connect:
// connection scheme, client id, credentials and certificate path.
func (d *Device) MQTTConfig(scheme int, clientID, username, password, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	if clientID == "" {
		return ErrInvalidArgument
	}
	cmd := fmt.Sprintf("AT+MQTTUSERCFG=0,%d,%s,%s,%s,0,0,%s",
		scheme, at.Quote(clientID), at.Quote(username), at.Quote(password), at.Quote(path))
	return d.sendAndExpect(cmd, at.OK, d.config.ATTimeout)
}

// MQTTConnect connects the configured session to a broker. Connection
// establishment shares the join timeout since it involves the network.
func (d *Device) MQTTConnect(host string, port int, autoReconnect bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	if host == "" || port <= 0 || port > 65535 {
		return ErrInvalidArgument
	}
	cmd := fmt.Sprintf("AT+MQTTCONN=0,%s,%d,%d", at.Quote(host), port, boolFlag(autoReconnect))
	return d.sendAndExpect(cmd, at.OK, d.config.JoinTimeout)
}

// Subscribe subscribes the session to a topic.
func (d *Device) Subscribe(topic string, qos int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	if topic == "" || qos < 0 || qos > 2 {
		return ErrInvalidArgument
	}
	cmd := fmt.Sprintf("AT+MQTTSUB=0,%s,%d", at.Quote(topic), qos)
	return d.sendAndExpect(cmd, at.OK, d.config.ATTimeout)
}

// Unsubscribe removes a topic subscription.
func (d *Device) Unsubscribe(topic string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	if topic == "" {
		return ErrInvalidArgument
	}
	cmd := fmt.Sprintf("AT+MQTTUNSUB=0,%s", at.Quote(topic))
	return d.sendAndExpect(cmd, at.OK, d.config.ATTimeout)
}

// MQTTDisconnect tears down the broker connection and releases the
// session.
func (d *Device) MQTTDisconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	return d.sendAndExpect(at.CmdMQTTClean, at.OK, d.config.ATTimeout)
}

// Publish sends one message through the raw publish handshake: the
// header announcing payload length, QoS and retain flag, a two-part
// acknowledgement (command ok, then the data prompt), the raw payload
// bytes written directly to the transport, and finally the publish
// result markers raced within the caller's budget.
//
// If the result marker never arrives after the payload was handed over,
// the module is assumed stuck in raw mode and the transmission is
// cancelled before the error is returned.
func (d *Device) Publish(topic string, payload []byte, qos int, retain bool, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	if topic == "" || len(payload) == 0 || qos < 0 || qos > 2 {
		return ErrInvalidArgument
	}
	deadline, err := newDeadline(timeout)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("AT+MQTTPUBRAW=0,%s,%d,%d,%d",
		at.Quote(topic), len(payload), qos, boolFlag(retain))
	if err := d.exchange(header, at.OK, deadline); err != nil {
		return fmt.Errorf("publish header: %w", err)
	}
	if _, err := d.scan(deadline, at.Prompt); err != nil {
		return fmt.Errorf("publish prompt: %w", err)
	}

	if _, err := d.transport.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}

	idx, err := d.scan(deadline, at.PublishOK, at.PublishFail)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			if cancelErr := d.cancelSend(); cancelErr != nil {
				return cancelErr
			}
		}
		return fmt.Errorf("publish result: %w", err)
	}
	if idx != 0 {
		return ErrPublishFailed
	}
	return nil
}

// Receive waits, bounded by the caller's timeout, for a subscription
// message notification and returns the parsed message. (nil, nil) means
// nothing arrived, or the notification was malformed or truncated; a
// partial message is never returned.
func (d *Device) Receive(timeout time.Duration) (*Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return nil, err
	}
	deadline, err := newDeadline(timeout)
	if err != nil {
		return nil, err
	}

	if _, err := d.scan(deadline, at.RecvPrefix); err != nil {
		if errors.Is(err, ErrTimeout) {
			return nil, nil
		}
		return nil, err
	}

	// Header: session id, quoted topic, delimiter, payload length.
	if _, err := d.readInt(deadline); err != nil {
		return nil, nil
	}
	if err := d.expectByte(deadline, '"'); err != nil {
		return nil, nil
	}
	topic, err := d.readUntil(deadline, '"')
	if err != nil {
		return nil, nil
	}
	if err := d.expectByte(deadline, ','); err != nil {
		return nil, nil
	}
	length, err := d.readInt(deadline)
	if err != nil || length <= 0 || length > maxRecvPayload {
		return nil, nil
	}

	// The payload read runs under its own fixed deadline, independent
	// of how much of the caller's budget remains.
	payload := make([]byte, length)
	if err := d.readFull(time.Now().Add(recvPayloadTimeout), payload); err != nil {
		return nil, nil
	}
	return &Message{Topic: string(topic), Payload: payload}, nil
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
