package at

import "strings"

const (
	// Terminal Control
	CRLF   = "\r\n"
	Prompt = ">"
	Escape = "+++"

	// Response Markers
	OK        = "OK"
	Error     = "ERROR"
	Busy      = "busy p..."
	Ready     = "ready"
	CancelAck = "SEND Canceled"

	// MQTT Result Markers
	PublishOK   = "+MQTTPUB:OK"
	PublishFail = "+MQTTPUB:FAIL"
	RecvPrefix  = "+MQTTSUBRECV:"

	// Query Reply Prefixes
	StationIP      = "+CIPSTA:ip:"
	StationGateway = "+CIPSTA:gateway:"
	StationNetmask = "+CIPSTA:netmask:"
	StationMAC     = "+CIPSTAMAC:"
	APInfo         = "+CWJAP:"
)

// Commands without arguments. Commands that carry arguments are built
// with fmt.Sprintf at the call site, quoting string arguments via Quote.
const (
	CmdProbe        = "AT"
	CmdEchoOff      = "ATE0"
	CmdReset        = "AT+RST"
	CmdStationMode  = "AT+CWMODE=1"
	CmdQueryIP      = "AT+CIPSTA?"
	CmdQueryMAC     = "AT+CIPSTAMAC?"
	CmdQueryAP      = "AT+CWJAP?"
	CmdDisconnectAP = "AT+CWQAP"
	CmdMQTTClean    = "AT+MQTTCLEAN=0"
)

// Quote returns s wrapped in double quotes with embedded quotes and
// backslashes escaped, the way the module expects string arguments on
// the command line.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}
