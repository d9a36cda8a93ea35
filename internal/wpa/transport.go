// Package wpa speaks the wpa_supplicant control-interface protocol over
// unixgram sockets and adapts it to the wfd transport contract. One
// Transport serves one wireless interface; unsolicited P2P events are
// translated into wfd events and pushed to the owning link's sink.
package wpa

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wfdlabs/castd/internal/logging"
	"github.com/wfdlabs/castd/wfd"
)

var (
	ErrAttachFailed  = errors.New("wpa: ATTACH rejected")
	ErrCommandFailed = errors.New("wpa: command failed")
	ErrClosed        = errors.New("wpa: transport closed")
)

const (
	commandTimeout = 5 * time.Second
	readBufSize    = 4096
)

// connSeq distinguishes local socket names when several transports are
// dialed by the same process.
var connSeq atomic.Uint64

// Dialer dials wpa_supplicant control sockets. LocalDir holds the local
// endpoints of the unixgram pairs and defaults to os.TempDir().
type Dialer struct {
	Log      logging.Logger
	LocalDir string
}

// Dial connects to the control socket at socketPath, attaches for
// unsolicited events and starts the event pump. The returned transport is
// ready for commands; events flow to sink until Close.
func (d *Dialer) Dial(ctx context.Context, socketPath string, sink wfd.Sink) (wfd.Transport, error) {
	log := d.Log
	if log == nil {
		log = logging.Noop()
	}
	localDir := d.LocalDir
	if localDir == "" {
		localDir = os.TempDir()
	}

	t := &Transport{
		log:     log,
		sink:    sink,
		devices: make(map[string]*device),
	}

	prefix := filepath.Join(localDir, fmt.Sprintf("castd_ctrl_%d_%d", os.Getpid(), connSeq.Add(1)))
	var err error
	t.cmdConn, t.cmdLocal, err = dialUnixgram(socketPath, prefix+"_cmd")
	if err != nil {
		return nil, err
	}
	t.evConn, t.evLocal, err = dialUnixgram(socketPath, prefix+"_ev")
	if err != nil {
		t.Close()
		return nil, err
	}

	if err := t.attach(); err != nil {
		t.Close()
		return nil, err
	}

	go t.pump()

	log.Debug(ctx, "wpa transport attached", logging.String("socket", socketPath))
	return t, nil
}

func dialUnixgram(remote, local string) (*net.UnixConn, string, error) {
	raddr, err := net.ResolveUnixAddr("unixgram", remote)
	if err != nil {
		return nil, "", err
	}
	laddr, err := net.ResolveUnixAddr("unixgram", local)
	if err != nil {
		return nil, "", err
	}
	conn, err := net.DialUnix("unixgram", laddr, raddr)
	if err != nil {
		return nil, "", err
	}
	return conn, local, nil
}

// Transport is one attached control-interface connection pair: a command
// socket for request/response and an attached event socket the daemon
// pushes unsolicited lines to.
type Transport struct {
	log  logging.Logger
	sink wfd.Sink

	cmdMu    sync.Mutex
	cmdConn  *net.UnixConn
	cmdLocal string

	evConn  *net.UnixConn
	evLocal string

	// devices caches identity→display-name so repeated events for the
	// same device resolve to a stable record.
	devMu   sync.Mutex
	devices map[string]*device

	closed atomic.Bool
}

// attach subscribes the event socket to unsolicited messages and raises the
// filter level so the pump is not flooded with debug chatter.
func (t *Transport) attach() error {
	for _, cmd := range []string{"ATTACH", "LEVEL 3"} {
		resp, err := roundTrip(t.evConn, cmd)
		if err != nil {
			return err
		}
		if strings.TrimSpace(resp) != "OK" {
			return fmt.Errorf("%w: %s -> %q", ErrAttachFailed, cmd, strings.TrimSpace(resp))
		}
	}
	return nil
}

// pump reads unsolicited event lines until the socket dies. A read failure
// on a transport that was not closed locally means the daemon went away;
// that surfaces as a HangUp event.
func (t *Transport) pump() {
	buf := make([]byte, readBufSize)
	for {
		n, err := t.evConn.Read(buf)
		if err != nil {
			if !t.closed.Load() {
				t.sink(wfd.Event{Kind: wfd.EventHangUp})
			}
			return
		}
		line := strings.TrimSpace(string(buf[:n]))
		if line == "" || line[0] != '<' {
			// Not an unsolicited message; stray responses end up
			// here if the daemon misroutes them.
			continue
		}
		ev, ok := t.parseEvent(line)
		if !ok {
			continue
		}
		t.sink(ev)
	}
}

// request performs one command round trip on the command socket.
func (t *Transport) request(cmd string) (string, error) {
	if t.closed.Load() {
		return "", ErrClosed
	}
	t.cmdMu.Lock()
	defer t.cmdMu.Unlock()
	return roundTrip(t.cmdConn, cmd)
}

func roundTrip(conn *net.UnixConn, cmd string) (string, error) {
	if err := conn.SetDeadline(time.Now().Add(commandTimeout)); err != nil {
		return "", err
	}
	if _, err := conn.Write([]byte(cmd)); err != nil {
		return "", err
	}
	buf := make([]byte, readBufSize)
	n, err := conn.Read(buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// SetDeviceName pushes the advertised display name to wpa_supplicant.
func (t *Transport) SetDeviceName(name string) error {
	resp, err := t.request("SET device_name " + name)
	if err != nil {
		return err
	}
	if strings.TrimSpace(resp) != "OK" {
		return fmt.Errorf("%w: SET device_name -> %q", ErrCommandFailed, strings.TrimSpace(resp))
	}
	return nil
}

// Devices walks the daemon's current peer table with P2P_PEER FIRST /
// P2P_PEER NEXT-<addr> and returns the devices it already knows about.
func (t *Transport) Devices() ([]wfd.Device, error) {
	var out []wfd.Device
	cmd := "P2P_PEER FIRST"
	for {
		resp, err := t.request(cmd)
		if err != nil {
			return nil, err
		}
		resp = strings.TrimSpace(resp)
		if resp == "" || strings.HasPrefix(resp, "FAIL") {
			return out, nil
		}
		addr, fields := parsePeerInfo(resp)
		if addr == "" {
			return out, nil
		}
		out = append(out, t.deviceFor(addr, fields["device_name"]))
		cmd = "P2P_PEER NEXT-" + addr
	}
}

// Close detaches and shuts both sockets down, removing the local endpoint
// files. Safe to call more than once; the pump exits on the closed socket
// without reporting a hang-up.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	if t.evConn != nil {
		// Best effort; the daemon may already be gone.
		_ = t.evConn.SetDeadline(time.Now().Add(time.Second))
		_, _ = t.evConn.Write([]byte("DETACH"))
		_ = t.evConn.Close()
	}
	if t.cmdConn != nil {
		_ = t.cmdConn.Close()
	}
	for _, p := range []string{t.cmdLocal, t.evLocal} {
		if p != "" {
			_ = os.Remove(p)
		}
	}
	return nil
}

var _ wfd.Transport = (*Transport)(nil)
var _ wfd.Dialer = (*Dialer)(nil)
