package wfd

import "context"

// Device is a remote P2P device as reported by the discovery transport.
// Identity is the transport's stable device address; two Device values with
// the same ID refer to the same physical device.
type Device interface {
	// ID returns the stable device identity (P2P device address).
	ID() string
	// Name returns the device's advertised display name, possibly empty.
	Name() string
}

// Transport is an open connection to the hardware discovery daemon for one
// wireless interface. It is owned exclusively by the link that dialed it.
type Transport interface {
	// SetDeviceName pushes the advertised display name down to the
	// discovery daemon.
	SetDeviceName(name string) error

	// Devices enumerates the devices the daemon already knows about.
	// Called once right after dialing so devices discovered before the
	// link existed are not missed.
	Devices() ([]Device, error)

	// Close shuts the connection down. Safe to call more than once.
	// Deliveries already in flight may still reach the sink; the link
	// core tolerates events that race with teardown.
	Close() error
}

// Dialer opens transports. The manager holds one and dials
// <ctrl-dir>/<interface> when a wifi link is created.
type Dialer interface {
	Dial(ctx context.Context, socketPath string, sink Sink) (Transport, error)
}
