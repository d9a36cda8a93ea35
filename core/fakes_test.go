package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/wfdlabs/castd/wfd"
)

// fakeDevice is a minimal wfd.Device for tests.
type fakeDevice struct {
	id   string
	name string
}

func (d *fakeDevice) ID() string   { return d.id }
func (d *fakeDevice) Name() string { return d.name }

func dev(id string) *fakeDevice { return &fakeDevice{id: id, name: "dev-" + id} }

// opLog records the order of observable side effects across fakes so tests
// can assert teardown ordering.
type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (o *opLog) add(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, op)
}

func (o *opLog) snapshot() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.ops...)
}

// fakeTransport implements wfd.Transport and lets tests inject events
// through the sink the dialer captured.
type fakeTransport struct {
	log  *opLog
	sink wfd.Sink

	devs       []wfd.Device
	setNameErr error
	devsErr    error

	names  []string
	closed bool
}

func (t *fakeTransport) SetDeviceName(name string) error {
	if t.setNameErr != nil {
		return t.setNameErr
	}
	t.names = append(t.names, name)
	return nil
}

func (t *fakeTransport) Devices() ([]wfd.Device, error) {
	if t.devsErr != nil {
		return nil, t.devsErr
	}
	return t.devs, nil
}

func (t *fakeTransport) Close() error {
	t.closed = true
	if t.log != nil {
		t.log.add("transport.close")
	}
	return nil
}

func (t *fakeTransport) emit(ev wfd.Event) { t.sink(ev) }

// fakeDialer implements wfd.Dialer, handing out one fakeTransport per Dial
// and remembering the socket paths it was asked for.
type fakeDialer struct {
	log *opLog

	dialErr    error
	setNameErr error
	devsErr    error
	devs       []wfd.Device

	paths      []string
	transports []*fakeTransport
}

func (d *fakeDialer) Dial(ctx context.Context, path string, sink wfd.Sink) (wfd.Transport, error) {
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	t := &fakeTransport{
		log:        d.log,
		sink:       sink,
		devs:       d.devs,
		setNameErr: d.setNameErr,
		devsErr:    d.devsErr,
	}
	d.paths = append(d.paths, path)
	d.transports = append(d.transports, t)
	return t, nil
}

func (d *fakeDialer) last() *fakeTransport {
	if len(d.transports) == 0 {
		return nil
	}
	return d.transports[len(d.transports)-1]
}

// fakeSession records forwarded events; fakeSessions builds them.
type fakeSession struct {
	log    *opLog
	dev    wfd.Device
	events []wfd.EventKind
	closed bool
}

func (s *fakeSession) HandleEvent(ev wfd.Event) error {
	s.events = append(s.events, ev.Kind)
	return nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	if s.log != nil {
		s.log.add(fmt.Sprintf("session.close %s", s.dev.ID()))
	}
	return nil
}

type fakeSessions struct {
	log      *opLog
	newErr   error
	sessions map[string]*fakeSession
}

func newFakeSessions(log *opLog) *fakeSessions {
	return &fakeSessions{log: log, sessions: make(map[string]*fakeSession)}
}

func (f *fakeSessions) NewSession(linkName string, d wfd.Device) (wfd.Session, error) {
	if f.newErr != nil {
		return nil, f.newErr
	}
	s := &fakeSession{log: f.log, dev: d}
	f.sessions[d.ID()] = s
	return s, nil
}

// newTestManager wires a manager onto fakes with a friendly default config.
// Pass a nil dialer for virtual-only scenarios.
func newTestManager(t interface{ Fatalf(string, ...any) }, dialer wfd.Dialer, sessions wfd.SessionFactory) *Manager {
	m, err := NewManager(Config{FriendlyName: "TestCast", CtrlDir: "/run/wpa_supplicant"}, dialer, sessions, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}
