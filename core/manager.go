package core

import (
	"container/list"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/wfdlabs/castd/internal/logging"
	"github.com/wfdlabs/castd/wfd"
)

// DefaultCtrlDir is where wpa_supplicant exposes its per-interface control
// sockets on a stock Linux system.
const DefaultCtrlDir = "/run/wpa_supplicant"

// Config carries the process-wide settings the manager hands to every link
// it creates.
type Config struct {
	// FriendlyName seeds each new link's advertised display name.
	FriendlyName string

	// CtrlDir is joined with a link's interface name to form the
	// transport socket path. Defaults to DefaultCtrlDir.
	CtrlDir string
}

// Validate checks the configuration, applying defaults for unset fields.
func (c *Config) Validate() error {
	if c.FriendlyName == "" {
		return ErrEmptyFriendlyName
	}
	if c.CtrlDir == "" {
		c.CtrlDir = DefaultCtrlDir
	}
	return nil
}

// MetricsRecorder receives registry-size updates and routed-event counts
// from the manager. Implementations live outside core so the registry stays
// metrics-agnostic.
type MetricsRecorder interface {
	SetManagedCounts(links, peers int)
	ObserveLinkEvent(event string)
}

// Manager owns the link registry: the process-wide name→link table, the
// live-link count and the collaborators links need (transport dialer,
// session factory). All entry points serialize on one mutex, so lookups,
// inserts and transport event dispatch never interleave; in particular the
// duplicate check and registry insert inside CreateLink form a single
// critical section.
type Manager struct {
	mu sync.Mutex

	cfg      Config
	dialer   wfd.Dialer
	sessions wfd.SessionFactory
	log      logging.Logger
	metrics  MetricsRecorder

	// baseCtx annotates logs emitted from transport callbacks, which
	// carry no caller context of their own.
	baseCtx context.Context

	links     map[string]*Link
	linkCount int
	closed    bool
}

// Option customizes a Manager.
type Option func(*Manager)

// WithMetricsRecorder attaches a metrics sink to the manager.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(m *Manager) { m.metrics = rec }
}

// NewManager builds a link manager. dialer may be nil for virtual-only
// deployments; creating a wifi link then fails with ErrNoTransportDialer.
// sessions may be nil, in which case peers are tracked without a session.
func NewManager(cfg Config, dialer wfd.Dialer, sessions wfd.SessionFactory, log logging.Logger, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Noop()
	}

	m := &Manager{
		cfg:      cfg,
		dialer:   dialer,
		sessions: sessions,
		log:      log,
		baseCtx:  context.Background(),
		links:    make(map[string]*Link),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// FriendlyName returns the process-wide display name new links start with.
func (m *Manager) FriendlyName() string { return m.cfg.FriendlyName }

// LinkCount returns the number of live registered links.
func (m *Manager) LinkCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.linkCount
}

// Lookup resolves a registry name to its link.
func (m *Manager) Lookup(name string) (*Link, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[name]
	return l, ok
}

// Links returns all registered links sorted by name.
func (m *Manager) Links() []*Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Link, 0, len(m.links))
	for _, l := range m.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// CreateLink registers a new managed link for (kind, iface). Creation is
// all-or-nothing: any failure after allocation runs the same teardown path
// as DestroyLink, so a failed call leaves no registry entry, no peers and
// no open transport behind. A second link for the same (kind, iface) fails
// with ErrLinkExists and mutates nothing.
func (m *Manager) CreateLink(ctx context.Context, kind LinkKind, iface string) (*Link, error) {
	name, err := MakeLinkName(kind, iface)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	if _, ok := m.links[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrLinkExists, name)
	}

	l := &Link{
		m:            m,
		kind:         kind,
		iface:        iface,
		name:         name,
		friendlyName: m.cfg.FriendlyName,
		peers:        list.New(),
		peersByDev:   make(map[string]*Peer),
	}

	if kind == KindWifi {
		if err := m.bindWifiLocked(ctx, l); err != nil {
			// Reuse the teardown path for rollback: it tolerates a
			// link that never made it into the registry and a
			// transport that never opened.
			m.destroyLinkLocked(l)
			return nil, err
		}
	}

	m.links[name] = l
	m.linkCount++
	m.publishCountsLocked()
	m.log.Info(ctx, "new managed link",
		logging.String("link", name),
		logging.String("kind", kind.String()),
		logging.String("interface", iface))
	return l, nil
}

// bindWifiLocked opens the transport for l and seeds the peer set from the
// devices the daemon already knows. Transport errors are returned unchanged
// so callers can tell a missing socket from a refused name push.
func (m *Manager) bindWifiLocked(ctx context.Context, l *Link) error {
	if m.dialer == nil {
		return ErrNoTransportDialer
	}

	path := filepath.Join(m.cfg.CtrlDir, l.iface)
	t, err := m.dialer.Dial(ctx, path, func(ev wfd.Event) { m.dispatch(l, ev) })
	if err != nil {
		return err
	}
	l.transport = t

	if err := t.SetDeviceName(l.friendlyName); err != nil {
		return err
	}

	devs, err := t.Devices()
	if err != nil {
		return err
	}
	for _, d := range devs {
		m.newPeerLocked(l, d)
	}
	return nil
}

// DestroyLink tears a link down: peers first, then the registry entry, then
// the transport. Destroying a link twice is a no-op.
func (m *Manager) DestroyLink(l *Link) {
	if l == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.destroyed {
		return
	}
	m.destroyLinkLocked(l)
}

// destroyLinkLocked is the single teardown path, shared by DestroyLink,
// HangUp handling, creation rollback and manager shutdown. It is safe on a
// partially constructed link: the registry removal no-ops when the link was
// never inserted and the transport close no-ops when bind never completed.
func (m *Manager) destroyLinkLocked(l *Link) {
	for l.peers.Len() > 0 {
		m.destroyPeerLocked(l.peers.Front().Value.(*Peer))
	}

	if _, ok := m.links[l.name]; ok {
		delete(m.links, l.name)
		m.linkCount--
		m.log.Info(m.baseCtx, "removed managed link", logging.String("link", l.name))
	}

	if l.transport != nil {
		if err := l.transport.Close(); err != nil {
			m.log.Warn(m.baseCtx, "transport close failed",
				logging.String("link", l.name),
				logging.String("error", err.Error()))
		}
		l.transport = nil
	}

	l.destroyed = true
	m.publishCountsLocked()
}

// SetFriendlyName updates a link's advertised display name. The update is
// all-or-nothing: for wifi links the name is pushed to the transport first
// and the stored name only replaced when the push succeeded.
func (m *Manager) SetFriendlyName(l *Link, name string) error {
	if name == "" {
		return ErrEmptyFriendlyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if l.destroyed {
		return ErrLinkDestroyed
	}
	if l.transport != nil {
		if err := l.transport.SetDeviceName(name); err != nil {
			return err
		}
	}
	l.friendlyName = name
	return nil
}

// Close drains every remaining link and refuses further creations. Used at
// process shutdown.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, l := range m.links {
		m.destroyLinkLocked(l)
	}
	m.log.Info(ctx, "link manager closed")
}

func (m *Manager) publishCountsLocked() {
	if m.metrics == nil {
		return
	}
	peers := 0
	for _, l := range m.links {
		peers += l.peers.Len()
	}
	m.metrics.SetManagedCounts(m.linkCount, peers)
}
