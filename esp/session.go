package esp

import (
	"fmt"
	"time"

	"i4.energy/across/espgw/at"
)

// IPInfo is the station's local network addressing.
type IPInfo struct {
	IP      string
	Gateway string
	Netmask string
}

// APInfo describes the access point the station is associated with.
type APInfo struct {
	SSID    string
	BSSID   string
	Channel int
	RSSI    int
}

// JoinAP associates the station with an access point. Association can
// take much longer than an ordinary exchange, so it runs under the
// configured join timeout.
func (d *Device) JoinAP(ssid, password string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	if ssid == "" {
		return ErrInvalidArgument
	}
	cmd := fmt.Sprintf("AT+CWJAP=%s,%s", at.Quote(ssid), at.Quote(password))
	return d.sendAndExpect(cmd, at.OK, d.config.JoinTimeout)
}

// LeaveAP disassociates the station from its access point.
func (d *Device) LeaveAP() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	return d.sendAndExpect(at.CmdDisconnectAP, at.OK, d.config.ATTimeout)
}

// StationIP queries the station's IP, gateway and netmask. The record
// is produced only when every field parses; any failed step yields a
// zero IPInfo and an error, never a partially filled record.
func (d *Device) StationIP() (IPInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return IPInfo{}, err
	}

	deadline, err := newDeadline(d.config.ATTimeout)
	if err != nil {
		return IPInfo{}, err
	}
	if _, err := d.transport.Write([]byte(at.CmdQueryIP + at.CRLF)); err != nil {
		return IPInfo{}, fmt.Errorf("write command: %w", err)
	}

	ip, err := d.quotedAfter(deadline, at.StationIP)
	if err != nil {
		return IPInfo{}, fmt.Errorf("ip field: %w", err)
	}
	gateway, err := d.quotedAfter(deadline, at.StationGateway)
	if err != nil {
		return IPInfo{}, fmt.Errorf("gateway field: %w", err)
	}
	netmask, err := d.quotedAfter(deadline, at.StationNetmask)
	if err != nil {
		return IPInfo{}, fmt.Errorf("netmask field: %w", err)
	}
	if err := d.confirm(deadline); err != nil {
		return IPInfo{}, err
	}
	return IPInfo{IP: ip, Gateway: gateway, Netmask: netmask}, nil
}

// MAC queries the station's hardware address.
func (d *Device) MAC() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return "", err
	}

	deadline, err := newDeadline(d.config.ATTimeout)
	if err != nil {
		return "", err
	}
	if _, err := d.transport.Write([]byte(at.CmdQueryMAC + at.CRLF)); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}

	mac, err := d.quotedAfter(deadline, at.StationMAC)
	if err != nil {
		return "", fmt.Errorf("mac field: %w", err)
	}
	if err := d.confirm(deadline); err != nil {
		return "", err
	}
	return mac, nil
}

// APInfo queries the associated access point: SSID, BSSID, channel and
// RSSI. When the station is not associated the module answers without
// the info line and ErrNoValue is returned.
func (d *Device) APInfo() (APInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return APInfo{}, err
	}

	deadline, err := newDeadline(d.config.ATTimeout)
	if err != nil {
		return APInfo{}, err
	}
	if _, err := d.transport.Write([]byte(at.CmdQueryAP + at.CRLF)); err != nil {
		return APInfo{}, fmt.Errorf("write command: %w", err)
	}

	// Race the info prefix against the bare confirmation the module
	// sends when not associated.
	idx, err := d.scan(deadline, at.APInfo, at.OK, at.Error)
	if err != nil {
		return APInfo{}, err
	}
	if idx != 0 {
		return APInfo{}, ErrNoValue
	}

	if err := d.expectByte(deadline, '"'); err != nil {
		return APInfo{}, fmt.Errorf("ssid field: %w", err)
	}
	ssid, err := d.readUntil(deadline, '"')
	if err != nil {
		return APInfo{}, fmt.Errorf("ssid field: %w", err)
	}
	if err := d.expectByte(deadline, ','); err != nil {
		return APInfo{}, fmt.Errorf("bssid field: %w", err)
	}
	if err := d.expectByte(deadline, '"'); err != nil {
		return APInfo{}, fmt.Errorf("bssid field: %w", err)
	}
	bssid, err := d.readUntil(deadline, '"')
	if err != nil {
		return APInfo{}, fmt.Errorf("bssid field: %w", err)
	}
	if err := d.expectByte(deadline, ','); err != nil {
		return APInfo{}, fmt.Errorf("channel field: %w", err)
	}
	channel, err := d.readInt(deadline)
	if err != nil {
		return APInfo{}, fmt.Errorf("channel field: %w", err)
	}
	rssi, err := d.readInt(deadline)
	if err != nil {
		return APInfo{}, fmt.Errorf("rssi field: %w", err)
	}
	if err := d.confirm(deadline); err != nil {
		return APInfo{}, err
	}
	return APInfo{
		SSID:    string(ssid),
		BSSID:   string(bssid),
		Channel: channel,
		RSSI:    rssi,
	}, nil
}

// confirm waits for the trailing confirmation marker that terminates
// every structured reply.
func (d *Device) confirm(deadline time.Time) error {
	idx, err := d.scan(deadline, at.OK, at.Error)
	if err != nil {
		return err
	}
	if idx != 0 {
		return ErrCommandFailed
	}
	return nil
}
