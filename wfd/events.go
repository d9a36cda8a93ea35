package wfd

// EventKind identifies an asynchronous notification from the hardware
// discovery transport. The set mirrors what the wpa_supplicant P2P control
// interface can report; kinds this daemon does not interpret arrive as
// EventUnknown and are dropped by the router.
type EventKind int

const (
	EventUnknown EventKind = iota

	// EventHangUp means the transport channel itself has failed. The link
	// that owns the transport is torn down in response.
	EventHangUp

	EventDeviceFound
	EventDeviceLost
	EventDeviceProvision
	EventDeviceConnect
	EventDeviceDisconnect
)

var eventKindNames = map[EventKind]string{
	EventUnknown:          "unknown",
	EventHangUp:           "hangup",
	EventDeviceFound:      "device-found",
	EventDeviceLost:       "device-lost",
	EventDeviceProvision:  "device-provision",
	EventDeviceConnect:    "device-connect",
	EventDeviceDisconnect: "device-disconnect",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is a single notification delivered by a transport to its sink.
// Device is nil for EventHangUp and may be nil for EventUnknown. Attrs holds
// the raw key=value fields of the underlying control-interface line, passed
// through untouched so the session layer can interpret provisioning details
// this core does not.
type Event struct {
	Kind   EventKind
	Device Device
	Attrs  map[string]string
}

// Sink receives transport events. Implementations serialize delivery; a
// transport never calls its sink concurrently with itself.
type Sink func(Event)
