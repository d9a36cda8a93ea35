package wpa

import (
	"strings"

	"github.com/wfdlabs/castd/wfd"
)

// device is the transport's record of a remote P2P device, keyed by its
// P2P device address.
type device struct {
	id   string
	name string
}

func (d *device) ID() string   { return d.id }
func (d *device) Name() string { return d.name }

// deviceFor returns the cached record for addr, creating or renaming it as
// needed so every event for the same address resolves to one identity.
func (t *Transport) deviceFor(addr, name string) *device {
	t.devMu.Lock()
	defer t.devMu.Unlock()
	d, ok := t.devices[addr]
	if !ok {
		d = &device{id: addr}
		t.devices[addr] = d
	}
	if name != "" {
		d.name = name
	}
	return d
}

// parseEvent maps one unsolicited control-interface line to a wfd event.
// Lines this transport does not understand come back as EventUnknown; the
// router drops those.
//
// Example input:
//
//	<3>P2P-DEVICE-FOUND 42:4e:36:8e:5d:e1 p2p_dev_addr=42:4e:36:8e:5d:e1
//	    pri_dev_type=10-0050F204-5 name='Android_656a' new=1
func (t *Transport) parseEvent(line string) (wfd.Event, bool) {
	// Strip the <N> priority prefix.
	if i := strings.IndexByte(line, '>'); i >= 0 {
		line = line[i+1:]
	}
	parts := splitFields(line)
	if len(parts) == 0 {
		return wfd.Event{}, false
	}
	tag := parts[0]
	attrs := fieldsToMap(parts[1:])

	addr := attrs["p2p_dev_addr"]
	if addr == "" && len(parts) > 1 && !strings.Contains(parts[1], "=") {
		addr = parts[1]
	}

	switch tag {
	case "P2P-DEVICE-FOUND":
		if addr == "" {
			return wfd.Event{}, false
		}
		return wfd.Event{
			Kind:   wfd.EventDeviceFound,
			Device: t.deviceFor(addr, attrs["name"]),
			Attrs:  attrs,
		}, true

	case "P2P-DEVICE-LOST":
		if addr == "" {
			return wfd.Event{}, false
		}
		return wfd.Event{
			Kind:   wfd.EventDeviceLost,
			Device: t.deviceFor(addr, ""),
			Attrs:  attrs,
		}, true

	case "P2P-PROV-DISC-PBC-REQ", "P2P-PROV-DISC-PBC-RESP",
		"P2P-PROV-DISC-SHOW-PIN", "P2P-PROV-DISC-ENTER-PIN",
		"P2P-GO-NEG-REQUEST":
		if addr == "" {
			return wfd.Event{}, false
		}
		return wfd.Event{
			Kind:   wfd.EventDeviceProvision,
			Device: t.deviceFor(addr, ""),
			Attrs:  attrs,
		}, true

	case "P2P-GROUP-STARTED":
		// Group formation carries the owner's device address in
		// go_dev_addr rather than positionally.
		goAddr := attrs["go_dev_addr"]
		if goAddr == "" {
			return wfd.Event{Kind: wfd.EventUnknown, Attrs: attrs}, true
		}
		return wfd.Event{
			Kind:   wfd.EventDeviceConnect,
			Device: t.deviceFor(goAddr, ""),
			Attrs:  attrs,
		}, true

	case "AP-STA-CONNECTED":
		if addr == "" {
			return wfd.Event{}, false
		}
		return wfd.Event{
			Kind:   wfd.EventDeviceConnect,
			Device: t.deviceFor(addr, ""),
			Attrs:  attrs,
		}, true

	case "AP-STA-DISCONNECTED":
		if addr == "" {
			return wfd.Event{}, false
		}
		return wfd.Event{
			Kind:   wfd.EventDeviceDisconnect,
			Device: t.deviceFor(addr, ""),
			Attrs:  attrs,
		}, true

	case "CTRL-EVENT-SCAN-STARTED", "CTRL-EVENT-SCAN-RESULTS",
		"CTRL-EVENT-BSS-ADDED", "CTRL-EVENT-BSS-REMOVED":
		// Routine scan noise, not even worth an unknown event.
		return wfd.Event{}, false

	default:
		return wfd.Event{Kind: wfd.EventUnknown, Attrs: attrs}, true
	}
}

// parsePeerInfo parses a P2P_PEER response: the device address on the first
// line, key=value pairs on the rest.
func parsePeerInfo(resp string) (string, map[string]string) {
	lines := strings.Split(resp, "\n")
	addr := strings.TrimSpace(lines[0])
	if addr == "" || strings.Contains(addr, "=") {
		return "", nil
	}
	fields := make(map[string]string)
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if k, v, ok := strings.Cut(line, "="); ok {
			fields[k] = unquote(v)
		}
	}
	return addr, fields
}

// splitFields splits an event line on spaces while keeping quoted values
// (name='My Phone' or ssid="DIRECT-xy") intact.
func splitFields(s string) []string {
	var out []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ' ' || c == '\t' || c == '\n':
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func fieldsToMap(fields []string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if k, v, ok := strings.Cut(f, "="); ok {
			out[k] = v
		} else {
			out[f] = ""
		}
	}
	return out
}

func unquote(v string) string {
	if len(v) >= 2 {
		if v[0] == '\'' && v[len(v)-1] == '\'' || v[0] == '"' && v[len(v)-1] == '"' {
			return v[1 : len(v)-1]
		}
	}
	return v
}
