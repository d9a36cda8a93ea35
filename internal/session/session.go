// Package session is the peer-layer collaborator: it owns the per-peer
// negotiation state machine the link core forwards provisioning and
// connection events into. The link core never looks inside; this
// implementation just tracks the coarse session phase and logs transitions.
package session

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/wfdlabs/castd/internal/logging"
	"github.com/wfdlabs/castd/wfd"
)

// session phases
const (
	StateDiscovered   = "discovered"   // device visible, nothing negotiated
	StateProvisioning = "provisioning" // provision discovery in progress
	StateConnected    = "connected"    // part of an active group
	StateDisconnected = "disconnected" // left the group, still visible
)

// transition events
const (
	eventProvision  = "provision"
	eventConnect    = "connect"
	eventDisconnect = "disconnect"
)

// Factory builds fsm-backed sessions. Implements wfd.SessionFactory.
type Factory struct {
	Log logging.Logger
}

func (f *Factory) NewSession(linkName string, dev wfd.Device) (wfd.Session, error) {
	log := f.Log
	if log == nil {
		log = logging.Noop()
	}

	s := &Session{
		log: log.With(
			logging.String("link", linkName),
			logging.String("device", dev.ID()),
		),
		dev: dev,
	}
	s.fsm = fsm.NewFSM(
		StateDiscovered,
		fsm.Events{
			{Name: eventProvision, Src: []string{StateDiscovered, StateDisconnected}, Dst: StateProvisioning},
			{Name: eventConnect, Src: []string{StateDiscovered, StateProvisioning, StateDisconnected}, Dst: StateConnected},
			{Name: eventDisconnect, Src: []string{StateProvisioning, StateConnected}, Dst: StateDisconnected},
		},
		fsm.Callbacks{
			"enter_state": func(e *fsm.Event) {
				s.log.Info(context.Background(), "session state change",
					logging.String("from", e.Src),
					logging.String("to", e.Dst))
			},
		},
	)
	return s, nil
}

// Session is one peer's negotiation state machine.
type Session struct {
	log logging.Logger
	dev wfd.Device
	fsm *fsm.FSM
}

// State returns the current session phase.
func (s *Session) State() string { return s.fsm.Current() }

// HandleEvent applies a forwarded transport event to the state machine.
// A transition the machine does not allow is logged and otherwise ignored;
// the transport layer reports what it sees, not what fits our model.
func (s *Session) HandleEvent(ev wfd.Event) error {
	var name string
	switch ev.Kind {
	case wfd.EventDeviceProvision:
		name = eventProvision
	case wfd.EventDeviceConnect:
		name = eventConnect
	case wfd.EventDeviceDisconnect:
		name = eventDisconnect
	default:
		return nil
	}

	if err := s.fsm.Event(name); err != nil {
		s.log.Debug(context.Background(), "ignoring out-of-order event",
			logging.String("event", ev.Kind.String()),
			logging.String("state", s.fsm.Current()))
	}
	return nil
}

// Close tears the session down. The device may already be gone, so there is
// nothing to signal; the session just stops existing.
func (s *Session) Close() error {
	s.log.Debug(context.Background(), "session closed",
		logging.String("state", s.fsm.Current()))
	return nil
}

var _ wfd.SessionFactory = (*Factory)(nil)
var _ wfd.Session = (*Session)(nil)
