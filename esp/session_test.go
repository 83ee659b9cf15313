package esp_test

import (
	"bytes"
	"errors"
	"testing"

	"i4.energy/across/espgw/esp"
)

func TestJoinAP(t *testing.T) {
	t.Run("Sends quoted credentials and expects OK", func(t *testing.T) {
		device, transport := newDevice(t)
		defer device.Close()
		transport.OnWrite(func(p []byte) {
			transport.QueueRead("WIFI CONNECTED\r\nWIFI GOT IP\r\n\r\nOK\r\n")
		})

		if err := device.JoinAP("home-net", "s3cret"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := "AT+CWJAP=\"home-net\",\"s3cret\"\r\n"
		if got := string(transport.Written()); got != want {
			t.Errorf("expected %q on the wire, got %q", want, got)
		}
	})

	t.Run("Association failure", func(t *testing.T) {
		device, transport := newDevice(t)
		defer device.Close()
		transport.OnWrite(func(p []byte) {
			transport.QueueRead("+CWJAP:3\r\n\r\nERROR\r\n")
		})

		if err := device.JoinAP("home-net", "wrong"); !errors.Is(err, esp.ErrCommandFailed) {
			t.Errorf("expected ErrCommandFailed, got: %v", err)
		}
	})

	t.Run("Empty SSID rejected", func(t *testing.T) {
		device, _ := newDevice(t)
		defer device.Close()
		if err := device.JoinAP("", "pw"); !errors.Is(err, esp.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got: %v", err)
		}
	})
}

func TestStationIP(t *testing.T) {
	t.Run("Full record", func(t *testing.T) {
		device, transport := newDevice(t)
		defer device.Close()
		transport.OnWrite(func(p []byte) {
			if bytes.Equal(p, []byte("AT+CIPSTA?\r\n")) {
				transport.QueueRead("+CIPSTA:ip:\"192.168.4.2\"\r\n" +
					"+CIPSTA:gateway:\"192.168.4.1\"\r\n" +
					"+CIPSTA:netmask:\"255.255.255.0\"\r\n" +
					"\r\nOK\r\n")
			}
		})

		info, err := device.StationIP()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := esp.IPInfo{IP: "192.168.4.2", Gateway: "192.168.4.1", Netmask: "255.255.255.0"}
		if info != want {
			t.Errorf("expected %+v, got %+v", want, info)
		}
	})

	t.Run("Missing field yields zero record", func(t *testing.T) {
		device, transport := newDevice(t)
		defer device.Close()
		transport.OnWrite(func(p []byte) {
			transport.QueueRead("+CIPSTA:ip:\"192.168.4.2\"\r\n\r\nOK\r\n")
		})

		info, err := device.StationIP()
		if err == nil {
			t.Fatal("expected error for truncated reply")
		}
		if info != (esp.IPInfo{}) {
			t.Errorf("expected zero record, got %+v", info)
		}
	})
}

func TestMAC(t *testing.T) {
	device, transport := newDevice(t)
	defer device.Close()
	transport.OnWrite(func(p []byte) {
		if bytes.Equal(p, []byte("AT+CIPSTAMAC?\r\n")) {
			transport.QueueRead("+CIPSTAMAC:\"5e:cf:7f:00:11:22\"\r\n\r\nOK\r\n")
		}
	})

	mac, err := device.MAC()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mac != "5e:cf:7f:00:11:22" {
		t.Errorf("unexpected mac: %q", mac)
	}
}

func TestAPInfo(t *testing.T) {
	t.Run("Associated", func(t *testing.T) {
		device, transport := newDevice(t)
		defer device.Close()
		transport.OnWrite(func(p []byte) {
			if bytes.Equal(p, []byte("AT+CWJAP?\r\n")) {
				transport.QueueRead("+CWJAP:\"home-net\",\"aa:bb:cc:dd:ee:ff\",6,-52\r\n\r\nOK\r\n")
			}
		})

		info, err := device.APInfo()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := esp.APInfo{SSID: "home-net", BSSID: "aa:bb:cc:dd:ee:ff", Channel: 6, RSSI: -52}
		if info != want {
			t.Errorf("expected %+v, got %+v", want, info)
		}
	})

	t.Run("Not associated", func(t *testing.T) {
		device, transport := newDevice(t)
		defer device.Close()
		transport.OnWrite(func(p []byte) {
			transport.QueueRead("No AP\r\n\r\nOK\r\n")
		})

		info, err := device.APInfo()
		if !errors.Is(err, esp.ErrNoValue) {
			t.Fatalf("expected ErrNoValue, got: %v", err)
		}
		if info != (esp.APInfo{}) {
			t.Errorf("expected zero record, got %+v", info)
		}
	})

	t.Run("Malformed RSSI yields zero record", func(t *testing.T) {
		device, transport := newDevice(t)
		defer device.Close()
		transport.OnWrite(func(p []byte) {
			transport.QueueRead("+CWJAP:\"home-net\",\"aa:bb:cc:dd:ee:ff\",6,-\r\n\r\nOK\r\n")
		})

		info, err := device.APInfo()
		if err == nil {
			t.Fatal("expected error for malformed rssi")
		}
		if info != (esp.APInfo{}) {
			t.Errorf("expected zero record, got %+v", info)
		}
	})
}

func TestLeaveAP(t *testing.T) {
	device, transport := newDevice(t)
	defer device.Close()
	transport.OnWrite(func(p []byte) {
		transport.QueueRead("\r\nOK\r\n")
	})

	if err := device.LeaveAP(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(transport.Written()); got != "AT+CWQAP\r\n" {
		t.Errorf("unexpected command on the wire: %q", got)
	}
}
