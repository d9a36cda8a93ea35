package wfd

// Session is the per-peer state machine owned by the session layer.
// The link core creates one when a peer appears, forwards provisioning and
// connection events to it verbatim, and closes it when the peer goes away.
// Everything between those calls is the session layer's business.
type Session interface {
	// HandleEvent receives a forwarded DeviceProvision, DeviceConnect or
	// DeviceDisconnect event for this session's device.
	HandleEvent(ev Event) error

	// Close releases session resources. Called exactly once, before the
	// owning peer is discarded.
	Close() error
}

// SessionFactory builds the session for a newly tracked device. linkName is
// the owning link's registry name, for logging and scoping.
type SessionFactory interface {
	NewSession(linkName string, dev Device) (Session, error)
}
