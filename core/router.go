package core

import (
	"github.com/wfdlabs/castd/internal/logging"
	"github.com/wfdlabs/castd/wfd"
)

// dispatch is the transport sink for one link. Events that arrive after the
// link's teardown started are dropped here; everything else is routed under
// the manager lock, so routing never interleaves with link creation or
// destruction.
func (m *Manager) dispatch(l *Link, ev wfd.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.destroyed {
		m.log.Debug(m.baseCtx, "event for destroyed link dropped",
			logging.String("link", l.name),
			logging.String("event", ev.Kind.String()))
		return
	}
	m.routeLocked(l, ev)
}

// routeLocked translates one transport event into a peer-set mutation or a
// forward to the peer's session. It interprets no protocol semantics: the
// mapping is purely (event kind, peer presence) → action.
//
// A HangUp destroys the whole link; callers must not touch l afterwards.
func (m *Manager) routeLocked(l *Link, ev wfd.Event) {
	if m.metrics != nil {
		m.metrics.ObserveLinkEvent(ev.Kind.String())
	}

	switch ev.Kind {
	case wfd.EventHangUp:
		// The hardware channel itself failed; the link is unusable.
		m.log.Warn(m.baseCtx, "transport hang-up, destroying link",
			logging.String("link", l.name))
		m.destroyLinkLocked(l)

	case wfd.EventDeviceFound:
		m.newPeerLocked(l, ev.Device)
		m.publishCountsLocked()

	case wfd.EventDeviceLost:
		p := m.peerForDeviceLocked(l, ev.Device)
		if p == nil {
			return
		}
		m.destroyPeerLocked(p)
		m.publishCountsLocked()

	case wfd.EventDeviceProvision, wfd.EventDeviceConnect, wfd.EventDeviceDisconnect:
		p := m.peerForDeviceLocked(l, ev.Device)
		if p == nil || p.session == nil {
			return
		}
		if err := p.session.HandleEvent(ev); err != nil {
			m.log.Warn(m.baseCtx, "session rejected event",
				logging.String("link", l.name),
				logging.String("device", ev.Device.ID()),
				logging.String("event", ev.Kind.String()),
				logging.String("error", err.Error()))
		}

	default:
		// Transport-level event kinds this core does not interpret.
		m.log.Debug(m.baseCtx, "unhandled transport event",
			logging.String("link", l.name),
			logging.String("event", ev.Kind.String()))
	}
}

// peerForDeviceLocked resolves a device to its tracked peer via the link's
// device index, or nil when the device was never tracked or already gone.
func (m *Manager) peerForDeviceLocked(l *Link, dev wfd.Device) *Peer {
	if dev == nil {
		return nil
	}
	return l.peersByDev[dev.ID()]
}
