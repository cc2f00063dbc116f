package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/antibyte/basic64/pkg/logger"
	"github.com/antibyte/basic64/pkg/storage"
)

// Handlers serves the /api/auth endpoints: register, login and guest token
// issuance. All responses are JSON.
type Handlers struct {
	db     *sql.DB
	tokens *TokenService
}

func NewHandlers(db *sql.DB, tokens *TokenService) *Handlers {
	return &Handlers{db: db, tokens: tokens}
}

// Register wires the auth routes onto a mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", h.handleRegister)
	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.HandleFunc("/api/auth/guest", h.handleGuest)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username,omitempty"`
	Guest    bool   `json:"guest"`
}

func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if !decodeCredentials(w, r, &creds) {
		return
	}
	if err := storage.CreateUser(h.db, creds.Username, creds.Password); err != nil {
		logger.AuthWarn("register %s: %v", creds.Username, err)
		writeError(w, http.StatusBadRequest, "registration failed")
		return
	}
	h.issueToken(w, creds.Username, false)
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if !decodeCredentials(w, r, &creds) {
		return
	}
	if err := storage.Authenticate(h.db, creds.Username, creds.Password); err != nil {
		if !errors.Is(err, storage.ErrInvalidCredentials) {
			logger.AuthError("login %s: %v", creds.Username, err)
		}
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	logger.AuthInfo("user %s logged in", creds.Username)
	h.issueToken(w, creds.Username, false)
}

func (h *Handlers) handleGuest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	h.issueToken(w, "", true)
}

func (h *Handlers) issueToken(w http.ResponseWriter, username string, guest bool) {
	token, err := h.tokens.Generate(username, guest)
	if err != nil {
		logger.AuthError("issue token: %v", err)
		writeError(w, http.StatusInternalServerError, "token generation failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenResponse{Token: token, Username: username, Guest: guest})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request, creds *credentials) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(creds); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
