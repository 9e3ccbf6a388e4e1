package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/quijoterun/tracker/internal/api/middleware"
	"github.com/quijoterun/tracker/internal/api/request"
	"github.com/quijoterun/tracker/internal/api/response"
	"github.com/quijoterun/tracker/internal/dependencies/random"
	"github.com/quijoterun/tracker/internal/services/session"
)

// SessionHandler handles sign-in, registration and sign-out
type SessionHandler struct {
	sessions *session.Manager
	random   random.Random
	logger   *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Manager, rnd random.Random, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		random:   rnd,
		logger:   logger,
	}
}

// Login handles POST /api/v1/session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.CredentialsRequest
	if !decode(w, r, &req) {
		return
	}

	store, err := h.newStore(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := store.SignIn(r.Context(), req.Identifier, req.Password); err != nil {
		WriteError(w, err)
		return
	}

	h.respond(w, http.StatusOK, store)
}

// Register handles POST /api/v1/register
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.CredentialsRequest
	if !decode(w, r, &req) {
		return
	}

	store, err := h.newStore(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	err = store.SignUp(r.Context(), req.Identifier, req.Password)
	if errors.Is(err, session.ErrConfirmationPending) {
		response.JSON(w, http.StatusAccepted, response.PendingResponse{Message: err.Error()})
		return
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	h.respond(w, http.StatusCreated, store)
}

// Logout handles DELETE /api/v1/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	store := middleware.GetStore(r.Context())
	if err := store.SignOut(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Me handles GET /api/v1/me
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	response.JSON(w, http.StatusOK, response.IdentityFromModel(identity))
}

// newStore opens a fresh session whose key becomes the caller's token
func (h *SessionHandler) newStore(r *http.Request) (*session.Store, error) {
	store := h.sessions.Store(h.random.UUID())
	if err := store.Wait(r.Context()); err != nil {
		return nil, err
	}
	return store, nil
}

func (h *SessionHandler) respond(w http.ResponseWriter, status int, store *session.Store) {
	identity := store.Identity()
	if identity == nil {
		h.logger.Error("session has no identity after sign-in")
		WriteError(w, errors.New("session not established"))
		return
	}
	response.JSON(w, status, response.SessionResponse{
		Identity:     response.IdentityFromModel(identity),
		SessionToken: store.Key(),
	})
}
