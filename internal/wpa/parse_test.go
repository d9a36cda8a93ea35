package wpa

import (
	"testing"

	"github.com/wfdlabs/castd/wfd"
)

func newParserTransport() *Transport {
	return &Transport{devices: make(map[string]*device)}
}

func TestParseEventDeviceFound(t *testing.T) {
	tr := newParserTransport()
	line := "<3>P2P-DEVICE-FOUND da:50:e6:91:db:cb p2p_dev_addr=da:50:e6:91:db:cb " +
		"pri_dev_type=10-0050F204-5 name='Android_fea8' config_methods=0x188 " +
		"dev_capab=0x25 group_capab=0x0 new=1"

	ev, ok := tr.parseEvent(line)
	if !ok {
		t.Fatal("event dropped")
	}
	if ev.Kind != wfd.EventDeviceFound {
		t.Fatalf("expected DeviceFound, got %v", ev.Kind)
	}
	if ev.Device.ID() != "da:50:e6:91:db:cb" {
		t.Errorf("wrong device id: %s", ev.Device.ID())
	}
	if ev.Device.Name() != "Android_fea8" {
		t.Errorf("quoted name not extracted: %q", ev.Device.Name())
	}
	if ev.Attrs["new"] != "1" {
		t.Errorf("attrs not carried: %v", ev.Attrs)
	}
}

func TestParseEventDeviceLost(t *testing.T) {
	tr := newParserTransport()
	ev, ok := tr.parseEvent("<3>P2P-DEVICE-LOST p2p_dev_addr=da:50:e6:91:db:cb")
	if !ok || ev.Kind != wfd.EventDeviceLost {
		t.Fatalf("expected DeviceLost, got ok=%v kind=%v", ok, ev.Kind)
	}
	if ev.Device.ID() != "da:50:e6:91:db:cb" {
		t.Errorf("wrong device id: %s", ev.Device.ID())
	}
}

func TestParseEventProvisionVariants(t *testing.T) {
	lines := []string{
		"<3>P2P-PROV-DISC-PBC-REQ da:50:e6:91:db:cb p2p_dev_addr=da:50:e6:91:db:cb",
		"<3>P2P-PROV-DISC-PBC-RESP da:50:e6:91:db:cb",
		"<3>P2P-PROV-DISC-SHOW-PIN da:50:e6:91:db:cb 64642166 p2p_dev_addr=da:50:e6:91:db:cb",
		"<3>P2P-PROV-DISC-ENTER-PIN da:50:e6:91:db:cb",
		"<3>P2P-GO-NEG-REQUEST da:50:e6:91:db:cb dev_passwd_id=4 go_intent=14",
	}
	tr := newParserTransport()
	for _, line := range lines {
		ev, ok := tr.parseEvent(line)
		if !ok || ev.Kind != wfd.EventDeviceProvision {
			t.Errorf("%s: expected Provision, got ok=%v kind=%v", line, ok, ev.Kind)
			continue
		}
		if ev.Device.ID() != "da:50:e6:91:db:cb" {
			t.Errorf("%s: wrong device id %s", line, ev.Device.ID())
		}
	}
}

func TestParseEventGroupStarted(t *testing.T) {
	tr := newParserTransport()
	line := "<3>P2P-GROUP-STARTED p2p-wlan0-0 GO ssid=\"DIRECT-5x My Room\" freq=5180 " +
		"passphrase=\"hFuTjzFQ\" go_dev_addr=da:50:e6:91:db:cb"

	ev, ok := tr.parseEvent(line)
	if !ok || ev.Kind != wfd.EventDeviceConnect {
		t.Fatalf("expected Connect, got ok=%v kind=%v", ok, ev.Kind)
	}
	if ev.Device.ID() != "da:50:e6:91:db:cb" {
		t.Errorf("go_dev_addr not used for identity: %s", ev.Device.ID())
	}
	if ev.Attrs["ssid"] != "DIRECT-5x My Room" {
		t.Errorf("quoted ssid mangled: %q", ev.Attrs["ssid"])
	}
}

func TestParseEventGroupStartedWithoutOwnerAddr(t *testing.T) {
	tr := newParserTransport()
	ev, ok := tr.parseEvent("<3>P2P-GROUP-STARTED p2p-wlan0-0 GO freq=5180")
	if !ok || ev.Kind != wfd.EventUnknown {
		t.Fatalf("expected Unknown when go_dev_addr is missing, got ok=%v kind=%v", ok, ev.Kind)
	}
}

func TestParseEventStationEvents(t *testing.T) {
	tr := newParserTransport()

	ev, ok := tr.parseEvent("<3>AP-STA-CONNECTED da:50:e6:91:db:cb p2p_dev_addr=da:50:e6:91:db:cb")
	if !ok || ev.Kind != wfd.EventDeviceConnect {
		t.Fatalf("expected Connect, got ok=%v kind=%v", ok, ev.Kind)
	}
	ev, ok = tr.parseEvent("<3>AP-STA-DISCONNECTED da:50:e6:91:db:cb")
	if !ok || ev.Kind != wfd.EventDeviceDisconnect {
		t.Fatalf("expected Disconnect, got ok=%v kind=%v", ok, ev.Kind)
	}
}

func TestParseEventScanNoiseDropped(t *testing.T) {
	tr := newParserTransport()
	for _, line := range []string{
		"<3>CTRL-EVENT-SCAN-STARTED",
		"<3>CTRL-EVENT-SCAN-RESULTS",
		"<3>CTRL-EVENT-BSS-ADDED 34 00:11:22:33:44:55",
		"<3>CTRL-EVENT-BSS-REMOVED 34 00:11:22:33:44:55",
	} {
		if _, ok := tr.parseEvent(line); ok {
			t.Errorf("%s: scan noise not dropped", line)
		}
	}
}

func TestParseEventUnrecognizedTag(t *testing.T) {
	tr := newParserTransport()
	ev, ok := tr.parseEvent("<3>WPS-AP-AVAILABLE-PBC")
	if !ok || ev.Kind != wfd.EventUnknown {
		t.Fatalf("expected Unknown for unrecognized tag, got ok=%v kind=%v", ok, ev.Kind)
	}
}

func TestParseEventMalformedAddressDropped(t *testing.T) {
	tr := newParserTransport()
	if _, ok := tr.parseEvent("<3>P2P-DEVICE-FOUND"); ok {
		t.Error("found event without an address accepted")
	}
	if _, ok := tr.parseEvent("<3>P2P-DEVICE-LOST new=1"); ok {
		t.Error("lost event without an address accepted")
	}
}

func TestDeviceIdentityIsStable(t *testing.T) {
	tr := newParserTransport()

	found, _ := tr.parseEvent("<3>P2P-DEVICE-FOUND da:50:e6:91:db:cb " +
		"p2p_dev_addr=da:50:e6:91:db:cb name='Android_fea8'")
	lost, _ := tr.parseEvent("<3>P2P-DEVICE-LOST p2p_dev_addr=da:50:e6:91:db:cb")

	if found.Device != lost.Device {
		t.Error("same address resolved to distinct device records")
	}
	if lost.Device.Name() != "Android_fea8" {
		t.Errorf("display name lost across events: %q", lost.Device.Name())
	}
}

func TestParsePeerInfo(t *testing.T) {
	resp := "da:50:e6:91:db:cb\n" +
		"pri_dev_type=10-0050F204-5\n" +
		"device_name=Android_fea8\n" +
		"config_methods=0x188\n" +
		"level=-30\n"

	addr, fields := parsePeerInfo(resp)
	if addr != "da:50:e6:91:db:cb" {
		t.Fatalf("wrong address: %s", addr)
	}
	if fields["device_name"] != "Android_fea8" {
		t.Errorf("device_name not parsed: %v", fields)
	}
	if fields["level"] != "-30" {
		t.Errorf("level not parsed: %v", fields)
	}
}

func TestParsePeerInfoRejectsNonAddressFirstLine(t *testing.T) {
	if addr, _ := parsePeerInfo("device_name=Android_fea8\n"); addr != "" {
		t.Errorf("accepted key=value line as address: %s", addr)
	}
	if addr, _ := parsePeerInfo(""); addr != "" {
		t.Errorf("accepted empty response: %s", addr)
	}
}

func TestSplitFieldsQuoting(t *testing.T) {
	got := splitFields("P2P-DEVICE-FOUND aa:bb name='My Phone' ssid=\"DIRECT-xy TV\" new=1")
	want := []string{"P2P-DEVICE-FOUND", "aa:bb", "name=My Phone", "ssid=DIRECT-xy TV", "new=1"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestUnquote(t *testing.T) {
	cases := map[string]string{
		"'Android'":  "Android",
		`"DIRECT-x"`: "DIRECT-x",
		"plain":      "plain",
		"''":         "",
		"'":          "'",
	}
	for in, want := range cases {
		if got := unquote(in); got != want {
			t.Errorf("unquote(%q) = %q, want %q", in, got, want)
		}
	}
}
