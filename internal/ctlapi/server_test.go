package ctlapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wfdlabs/castd/core"
)

func newTestServer(t *testing.T) (*Server, *core.Manager) {
	t.Helper()
	mgr, err := core.NewManager(core.Config{FriendlyName: "TestCast"}, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return NewServer(mgr, nil, nil), mgr
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreateAndListLinks(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/links",
		createLinkRequest{Kind: "virtual", Interface: "lo"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeJSON[LinkInfo](t, rec)
	if created.Name != "virtual_3alo" {
		t.Errorf("unexpected link name: %s", created.Name)
	}
	if created.FriendlyName != "TestCast" {
		t.Errorf("unexpected friendly name: %s", created.FriendlyName)
	}

	rec = doJSON(t, s, http.MethodGet, "/v1/links", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	links := decodeJSON[[]LinkInfo](t, rec)
	if len(links) != 1 || links[0].Name != created.Name {
		t.Errorf("unexpected link list: %+v", links)
	}
}

func TestCreateLinkDuplicateConflicts(t *testing.T) {
	s, _ := newTestServer(t)
	body := createLinkRequest{Kind: "virtual", Interface: "lo"}

	if rec := doJSON(t, s, http.MethodPost, "/v1/links", body); rec.Code != http.StatusCreated {
		t.Fatalf("first create: expected 201, got %d", rec.Code)
	}
	rec := doJSON(t, s, http.MethodPost, "/v1/links", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if resp := decodeJSON[errorResponse](t, rec); resp.Error == "" {
		t.Error("error body missing")
	}
}

func TestCreateLinkRejectsBadInput(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/links",
		createLinkRequest{Kind: "bluetooth", Interface: "hci0"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/v1/links",
		createLinkRequest{Kind: "virtual", Interface: ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty interface: expected 400, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/links", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("malformed body: expected 400, got %d", rr.Code)
	}
}

func TestCreateWifiLinkWithoutDialerIsBadGateway(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/v1/links",
		createLinkRequest{Kind: "wifi", Interface: "wlan0"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDestroyLink(t *testing.T) {
	s, mgr := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/v1/links",
		createLinkRequest{Kind: "virtual", Interface: "lo"})
	created := decodeJSON[LinkInfo](t, rec)

	rec = doJSON(t, s, http.MethodDelete, "/v1/links/"+created.Name, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if mgr.LinkCount() != 0 {
		t.Errorf("link still registered: %d", mgr.LinkCount())
	}

	rec = doJSON(t, s, http.MethodDelete, "/v1/links/"+created.Name, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestSetFriendlyName(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/v1/links",
		createLinkRequest{Kind: "virtual", Interface: "lo"})
	created := decodeJSON[LinkInfo](t, rec)

	rec = doJSON(t, s, http.MethodPut, "/v1/links/"+created.Name+"/name",
		setNameRequest{FriendlyName: "Bedroom TV"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeJSON[LinkInfo](t, rec)
	if updated.FriendlyName != "Bedroom TV" {
		t.Errorf("name not updated: %s", updated.FriendlyName)
	}

	rec = doJSON(t, s, http.MethodPut, "/v1/links/"+created.Name+"/name",
		setNameRequest{FriendlyName: ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty name: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPut, "/v1/links/nonexistent/name",
		setNameRequest{FriendlyName: "X"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown link: expected 404, got %d", rec.Code)
	}
}

func TestListPeers(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/v1/links",
		createLinkRequest{Kind: "virtual", Interface: "lo"})
	created := decodeJSON[LinkInfo](t, rec)

	rec = doJSON(t, s, http.MethodGet, "/v1/links/"+created.Name+"/peers", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	peers := decodeJSON[[]PeerInfo](t, rec)
	if len(peers) != 0 {
		t.Errorf("virtual link reports peers: %+v", peers)
	}

	rec = doJSON(t, s, http.MethodGet, "/v1/links/nonexistent/peers", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown link: expected 404, got %d", rec.Code)
	}
}
