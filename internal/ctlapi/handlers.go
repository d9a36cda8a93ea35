package ctlapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wfdlabs/castd/core"
)

// LinkInfo is the JSON shape of a managed link.
type LinkInfo struct {
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Interface    string `json:"interface"`
	FriendlyName string `json:"friendly_name"`
	PeerCount    int    `json:"peer_count"`
}

// PeerInfo is the JSON shape of a tracked peer.
type PeerInfo struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

type createLinkRequest struct {
	Kind      string `json:"kind"`
	Interface string `json:"interface"`
}

type setNameRequest struct {
	FriendlyName string `json:"friendly_name"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func linkInfo(l *core.Link) LinkInfo {
	return LinkInfo{
		Name:         l.Name(),
		Kind:         l.Kind().String(),
		Interface:    l.Interface(),
		FriendlyName: l.FriendlyName(),
		PeerCount:    l.PeerCount(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListLinks(w http.ResponseWriter, r *http.Request) {
	links := s.mgr.Links()
	out := make([]LinkInfo, 0, len(links))
	for _, l := range links {
		out = append(out, linkInfo(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind, ok := core.KindFromString(req.Kind)
	if !ok {
		writeError(w, http.StatusBadRequest, core.ErrInvalidLinkKind)
		return
	}

	l, err := s.mgr.CreateLink(r.Context(), kind, req.Interface)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, linkInfo(l))
}

func (s *Server) handleDestroyLink(w http.ResponseWriter, r *http.Request) {
	l, ok := s.mgr.Lookup(mux.Vars(r)["name"])
	if !ok {
		writeError(w, http.StatusNotFound, core.ErrLinkNotFound)
		return
	}
	s.mgr.DestroyLink(l)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetFriendlyName(w http.ResponseWriter, r *http.Request) {
	l, ok := s.mgr.Lookup(mux.Vars(r)["name"])
	if !ok {
		writeError(w, http.StatusNotFound, core.ErrLinkNotFound)
		return
	}
	var req setNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.mgr.SetFriendlyName(l, req.FriendlyName); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, linkInfo(l))
}

func (s *Server) handleListPeers(w http.ResponseWriter, r *http.Request) {
	l, ok := s.mgr.Lookup(mux.Vars(r)["name"])
	if !ok {
		writeError(w, http.StatusNotFound, core.ErrLinkNotFound)
		return
	}
	peers := l.Peers()
	out := make([]PeerInfo, 0, len(peers))
	for _, p := range peers {
		out = append(out, PeerInfo{
			DeviceID:   p.Device().ID(),
			DeviceName: p.Device().Name(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// statusForError maps core sentinels to HTTP status codes. Anything
// unrecognized came through from the transport and is reported as a bad
// gateway: the daemon is fine, the hardware side is not.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidLinkKind),
		errors.Is(err, core.ErrEmptyInterface),
		errors.Is(err, core.ErrNameTooLong),
		errors.Is(err, core.ErrEmptyFriendlyName):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrLinkExists):
		return http.StatusConflict
	case errors.Is(err, core.ErrLinkNotFound), errors.Is(err, core.ErrLinkDestroyed):
		return http.StatusNotFound
	case errors.Is(err, core.ErrManagerClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
