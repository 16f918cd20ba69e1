// Package session holds per-conversation state: the transcript, the lazily
// built agent, and the credential that agent was built with. A Manager keys
// sessions by ID so every visitor gets an isolated conversation.
//
// State lives in memory only. A restart starts everyone over.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/happytree/happytree/internal/log"
	"github.com/happytree/happytree/internal/photo"
	"github.com/happytree/happytree/internal/transcript"
)

const (
	// fallbackReply replaces an empty model response so the conversation
	// never shows a blank assistant bubble.
	fallbackReply = "I'm sorry, I couldn't generate a response."

	// errorReplyPrefix prefixes assistant entries that absorb a model
	// invocation failure. The turn still completes and both entries are
	// recorded; the failure text becomes part of the dialogue.
	errorReplyPrefix = "An error occurred: "
)

var (
	// ErrEmptyPrompt indicates the submitted prompt was blank.
	// Check with errors.Is().
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrAgentInit indicates the backing agent could not be built, either
	// on first use or after a credential change. Check with errors.Is().
	ErrAgentInit = errors.New("agent initialization failed")
)

// Invoker generates an assistant reply for a rendered conversation.
// *botanist.Agent satisfies it.
type Invoker interface {
	Generate(ctx context.Context, messages []*ai.Message) (string, error)
}

// Factory builds an Invoker for a credential. Called lazily on the first
// turn and again whenever the credential changes.
type Factory func(ctx context.Context, credential string) (Invoker, error)

// Result holds the two entries a completed turn appended to the transcript.
type Result struct {
	User      transcript.Entry
	Assistant transcript.Entry
}

// Session is one conversation. All turn state hangs off this struct rather
// than package globals, so sessions never leak into each other.
//
// Turns are serialized by an internal mutex. Reading the transcript does not
// block an in-flight turn.
type Session struct {
	id uuid.UUID

	mu         sync.Mutex
	agent      Invoker
	credential string

	history *transcript.Transcript

	newAgent Factory
	logger   log.Logger
}

// New creates a standalone session with a fresh ID. Sessions served over
// HTTP are created through a Manager instead.
func New(factory Factory, logger log.Logger) *Session {
	return newSession(uuid.New(), factory, logger)
}

func newSession(id uuid.UUID, factory Factory, logger log.Logger) *Session {
	return &Session{
		id:       id,
		history:  transcript.New(),
		newAgent: factory,
		logger:   logger,
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// History returns a snapshot of the transcript in append order.
func (s *Session) History() []transcript.Entry {
	return s.history.Entries()
}

// EnsureAgent makes sure the session's agent matches the given credential,
// building one if the session has none or the credential changed. A rebuild
// starts the conversation over. On failure the previous agent and the
// transcript are left untouched.
func (s *Session) EnsureAgent(ctx context.Context, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureAgentLocked(ctx, credential)
}

func (s *Session) ensureAgentLocked(ctx context.Context, credential string) error {
	if s.agent != nil && s.credential == credential {
		return nil
	}

	agent, err := s.newAgent(ctx, credential)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAgentInit, err)
	}

	if s.agent != nil {
		s.logger.Info("credential changed, starting a fresh conversation", "session_id", s.id)
	}
	s.agent = agent
	s.credential = credential
	// A new agent always starts from an empty conversation.
	s.history.Clear()
	return nil
}

// Turn runs one round of conversation: append the user entry, render the
// transcript for the model, invoke it, and append the assistant entry.
//
// An invocation failure does not fail the turn. The error text is recorded
// as the assistant entry so the conversation keeps its user/assistant
// rhythm. Turn returns an error only when nothing was appended: a blank
// prompt, or an agent that could not be built.
//
// The attachment, when present, travels with this turn's user entry only.
// Later turns render the same entry as plain text.
func (s *Session) Turn(ctx context.Context, credential, prompt string, attachment *photo.Attachment) (*Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureAgentLocked(ctx, credential); err != nil {
		return nil, err
	}

	user := s.history.AppendUser(prompt)
	messages := transcript.ModelMessages(s.history.Entries(), attachment, user.ID)

	text, invokeErr := s.agent.Generate(ctx, messages)
	switch {
	case invokeErr != nil:
		s.logger.Warn("model invocation failed", "session_id", s.id, "error", invokeErr)
	case strings.TrimSpace(text) == "":
		s.logger.Warn("model returned an empty response", "session_id", s.id)
	}

	assistant := s.history.AppendAssistant(resolveReply(text, invokeErr))
	return &Result{User: user, Assistant: assistant}, nil
}

// resolveReply maps a generation outcome to the assistant's reply text.
// Both failure shapes become normal dialogue, so every started turn ends
// with an assistant entry and the transcript keeps alternating.
func resolveReply(text string, err error) string {
	if err != nil {
		return errorReplyPrefix + err.Error()
	}
	if strings.TrimSpace(text) == "" {
		return fallbackReply
	}
	return text
}

// Manager tracks sessions by ID. Safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	newAgent Factory
	logger   log.Logger
}

// Config contains all required parameters for a Manager.
type Config struct {
	Factory Factory
	Logger  log.Logger
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Factory == nil {
		return errors.New("agent factory is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// NewManager creates an empty session registry.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		newAgent: cfg.Factory,
		logger:   cfg.Logger,
	}, nil
}

// Get returns the session with the given ID, reporting whether it exists.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// GetOrCreate returns the session with the given ID, creating it on first
// use. Concurrent calls for the same ID return the same session.
func (m *Manager) GetOrCreate(id uuid.UUID) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s = newSession(id, m.newAgent, m.logger)
	m.sessions[id] = s
	m.logger.Debug("session created", "session_id", id)
	return s
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
