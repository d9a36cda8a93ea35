package core

import (
	"container/list"

	"github.com/wfdlabs/castd/wfd"
)

// Link is a managed network attachment point. Its registry name is derived
// from (kind, interface) and never changes; the friendly name is the only
// mutable field. A wifi link additionally owns the transport connection to
// the discovery daemon; a virtual link never has one.
type Link struct {
	m     *Manager
	kind  LinkKind
	iface string
	name  string

	friendlyName string

	// peers in discovery order, plus the device-identity index used to
	// route transport events back to the owning peer.
	peers      *list.List
	peersByDev map[string]*Peer

	// transport is non-nil only for bound wifi links.
	transport wfd.Transport

	// destroyed is set at the end of teardown; events that race with
	// teardown are dropped once it is set.
	destroyed bool
}

// Kind returns the link's kind. Immutable.
func (l *Link) Kind() LinkKind { return l.kind }

// Interface returns the OS interface name the link was created for.
// Immutable.
func (l *Link) Interface() string { return l.iface }

// Name returns the globally unique registry name. Immutable.
func (l *Link) Name() string { return l.name }

// FriendlyName returns the link's current human-readable display name.
func (l *Link) FriendlyName() string {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return l.friendlyName
}

// PeerCount returns the number of peers currently owned by the link.
func (l *Link) PeerCount() int {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return l.peers.Len()
}

// Peers returns a snapshot of the link's peers in discovery order.
func (l *Link) Peers() []*Peer {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	out := make([]*Peer, 0, l.peers.Len())
	for e := l.peers.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Peer))
	}
	return out
}
