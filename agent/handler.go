package agent

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chinmay1088/dhub/signer"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, signer.ErrorResponse{Error: err.Error()})
}

// requireEnabled rejects requests from apps that never called /enable.
func (s *Server) requireEnabled(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app := r.Header.Get(signer.AppHeader)
		if app == "" || !s.ring.IsEnabled(app) {
			writeError(w, http.StatusUnauthorized, signer.ErrNotEnabled)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleEnable(w http.ResponseWriter, r *http.Request) {
	var req signer.EnableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	exts, err := s.ring.Enable(r.Context(), req.App)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.log.Info("app enabled", "app", req.App)
	writeJSON(w, http.StatusOK, signer.EnableResponse{Extensions: exts})
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ring.Accounts(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, signer.AccountsResponse{Accounts: accounts})
}

func (s *Server) handleSignRaw(w http.ResponseWriter, r *http.Request) {
	var payload signer.SignerPayloadRaw
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	res, err := s.ring.SignRaw(r.Context(), payload)
	switch {
	case err == nil:
	case errors.Is(err, signer.ErrRejected):
		s.log.Info("signature rejected", "address", payload.Address, "app", r.Header.Get(signer.AppHeader))
		writeError(w, http.StatusForbidden, err)
		return
	case errors.Is(err, signer.ErrUnknownAccount):
		writeError(w, http.StatusNotFound, err)
		return
	default:
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.log.Debug("payload signed", "address", payload.Address, "type", payload.Type, "id", res.ID)
	writeJSON(w, http.StatusOK, res)
}
