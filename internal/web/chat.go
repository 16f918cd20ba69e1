package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/happytree/happytree/internal/log"
	"github.com/happytree/happytree/internal/photo"
	"github.com/happytree/happytree/internal/session"
	"github.com/happytree/happytree/internal/transcript"
	"github.com/happytree/happytree/internal/web/static"
)

const (
	// sessionCookieName is the cookie carrying the session UUID.
	sessionCookieName = "sid"

	// sessionCookieMaxAge keeps a conversation addressable for 30 days.
	// The transcript itself only lives as long as the process.
	sessionCookieMaxAge = 30 * 24 * 3600

	// promptField and photoField are the multipart form fields of a chat
	// request.
	promptField = "prompt"
	photoField  = "photo"
)

// chatHandler serves the chat page and the conversation API.
type chatHandler struct {
	sessions   *session.Manager
	credential string
	maxUpload  int64
	logger     log.Logger
}

// historyResponse is the body of GET /api/history.
type historyResponse struct {
	SessionID string             `json:"sessionId"`
	Entries   []transcript.Entry `json:"entries"`
}

// chatResponse is the body of POST /api/chat: the two entries the turn
// appended.
type chatResponse struct {
	SessionID string           `json:"sessionId"`
	User      transcript.Entry `json:"user"`
	Assistant transcript.Entry `json:"assistant"`
}

// index serves the chat page. Visiting it also establishes the session, so
// the first chat request already belongs to a conversation.
func (h *chatHandler) index(w http.ResponseWriter, r *http.Request) {
	h.sessionFor(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(static.Index())
}

// history returns the visitor's transcript in append order.
func (h *chatHandler) history(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFor(w, r)
	writeJSON(w, http.StatusOK, historyResponse{
		SessionID: sess.ID().String(),
		Entries:   sess.History(),
	}, h.logger)
}

// send runs one conversation turn from a multipart form: a required prompt
// field and an optional photo field.
//
// A model failure still returns 200: the turn completed and the failure is
// recorded as the assistant entry. Only requests that could not start a
// turn at all produce an error status.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "request_too_large",
			fmt.Sprintf("request body exceeds %d bytes", h.maxUpload), h.logger)
		return
	}

	// ContentLength can be -1 for streamed bodies, the reader enforces the
	// cap either way.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large",
				fmt.Sprintf("request body exceeds %d bytes", h.maxUpload), h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_form", "could not parse form data", h.logger)
		return
	}

	attachment, err := h.photoAttachment(r)
	if err != nil {
		h.logger.Warn("rejecting photo upload", "error", err)
		writeError(w, http.StatusBadRequest, "invalid_photo", err.Error(), h.logger)
		return
	}

	sess := h.sessionFor(w, r)
	res, err := sess.Turn(r.Context(), h.credential, r.FormValue(promptField), attachment)
	switch {
	case errors.Is(err, session.ErrEmptyPrompt):
		writeError(w, http.StatusBadRequest, "empty_prompt", "prompt is required", h.logger)
		return
	case errors.Is(err, session.ErrAgentInit):
		h.logger.Error("agent initialization failed", "session_id", sess.ID(), "error", err)
		writeError(w, http.StatusBadGateway, "agent_unavailable",
			"could not initialize the assistant, check the API key", h.logger)
		return
	case err != nil:
		h.logger.Error("turn failed", "session_id", sess.ID(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: sess.ID().String(),
		User:      res.User,
		Assistant: res.Assistant,
	}, h.logger)
}

// photoAttachment extracts and encodes the optional photo upload.
// Returns (nil, nil) when the request has no photo.
func (h *chatHandler) photoAttachment(r *http.Request) (*photo.Attachment, error) {
	file, header, err := r.FormFile(photoField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading photo field: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}

	return photo.Encode(header.Filename, data)
}

// sessionFor resolves the visitor's session from the sid cookie, creating
// the session and the cookie on first contact. A malformed cookie is
// replaced rather than rejected.
func (h *chatHandler) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if id, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
			return h.sessions.GetOrCreate(id)
		}
	}

	sess := h.sessions.GetOrCreate(uuid.New())
	h.setCookie(w, sess.ID())
	return sess
}

func (h *chatHandler) setCookie(w http.ResponseWriter, sessionID uuid.UUID) {
	// No Secure flag: the server speaks plain HTTP on localhost and the
	// cookie would never be sent.
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   sessionCookieMaxAge,
	})
}
