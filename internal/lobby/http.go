package lobby

import (
	"encoding/json"
	"net/http"
	"strings"

	"holdemlite/internal/auth"
)

// HTTPHandler serves the table create/list/join/leave REST surface
// (spec_full.md §6).
type HTTPHandler struct {
	lobby *Lobby
	auth  auth.Service
}

func NewHTTPHandler(lby *Lobby, authService auth.Service) *HTTPHandler {
	return &HTTPHandler{lobby: lby, auth: authService}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/tables", h.handleTables)
	mux.HandleFunc("/api/tables/", h.handleTableAction)
}

type createTableResponse struct {
	TableID string `json:"table_id"`
}

func (h *HTTPHandler) handleTables(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt, err := h.lobby.CreateTable()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "create table failed")
			return
		}
		writeJSON(w, http.StatusOK, createTableResponse{TableID: rt.ID})
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"tables": h.lobby.ListTables()})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type joinRequest struct {
	BuyIn     int64 `json:"buy_in"`
	Spectator bool  `json:"spectator"`
}

type joinResponse struct {
	Position int `json:"position"`
}

type leaveResponse struct {
	CashOut int64 `json:"cash_out"`
}

func (h *HTTPHandler) handleTableAction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/tables/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "table not found")
		return
	}
	tableID, action := parts[0], parts[1]

	rt, ok := h.lobby.GetTable(tableID)
	if !ok {
		writeError(w, http.StatusNotFound, "table not found")
		return
	}

	switch action {
	case "join":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req joinRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		pos, err := rt.Seat(userID, req.BuyIn, req.Spectator)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, joinResponse{Position: pos})
	case "leave":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		cashOut, err := rt.Leave(userID)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, leaveResponse{CashOut: cashOut})
	default:
		writeError(w, http.StatusNotFound, "unknown table action")
	}
}

func (h *HTTPHandler) resolveUserID(r *http.Request) (uint64, bool) {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return 0, false
	}
	userID, _, ok := h.auth.ResolveSession(token)
	return userID, ok
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func bearerToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
