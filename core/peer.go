package core

import (
	"container/list"

	"github.com/wfdlabs/castd/internal/logging"
	"github.com/wfdlabs/castd/wfd"
)

// Peer tracks one discovered remote device for the lifetime of its
// visibility on a link. The peer is owned exclusively by that link; the
// link's device index is the only other way to reach it, and that index is
// a lookup key, never an owner.
type Peer struct {
	link    *Link
	dev     wfd.Device
	session wfd.Session
	elem    *list.Element
}

// Device returns the hardware device this peer is bound to.
func (p *Peer) Device() wfd.Device { return p.dev }

// Link returns the owning link.
func (p *Peer) Link() *Link { return p.link }

// newPeerLocked creates a peer for dev, builds its session and indexes it
// under the device identity. A device that is already tracked is left
// alone: re-announcements must not spawn a second peer for the same device.
func (m *Manager) newPeerLocked(l *Link, dev wfd.Device) {
	if dev == nil || dev.ID() == "" {
		return
	}
	if _, ok := l.peersByDev[dev.ID()]; ok {
		m.log.Debug(m.baseCtx, "device already tracked",
			logging.String("link", l.name),
			logging.String("device", dev.ID()))
		return
	}

	p := &Peer{link: l, dev: dev}
	if m.sessions != nil {
		sess, err := m.sessions.NewSession(l.name, dev)
		if err != nil {
			m.log.Warn(m.baseCtx, "session setup failed, device not tracked",
				logging.String("link", l.name),
				logging.String("device", dev.ID()),
				logging.String("error", err.Error()))
			return
		}
		p.session = sess
	}

	p.elem = l.peers.PushBack(p)
	l.peersByDev[dev.ID()] = p
	m.log.Debug(m.baseCtx, "new peer",
		logging.String("link", l.name),
		logging.String("device", dev.ID()),
		logging.String("device_name", dev.Name()))
}

// destroyPeerLocked removes the device index entry first, so no event
// arriving later in this teardown can resolve to the dying peer, then
// unlinks the peer and closes its session.
func (m *Manager) destroyPeerLocked(p *Peer) {
	delete(p.link.peersByDev, p.dev.ID())
	if p.elem != nil {
		p.link.peers.Remove(p.elem)
		p.elem = nil
	}
	if p.session != nil {
		if err := p.session.Close(); err != nil {
			m.log.Warn(m.baseCtx, "session close failed",
				logging.String("link", p.link.name),
				logging.String("device", p.dev.ID()),
				logging.String("error", err.Error()))
		}
		p.session = nil
	}
	m.log.Debug(m.baseCtx, "peer removed",
		logging.String("link", p.link.name),
		logging.String("device", p.dev.ID()))
}
