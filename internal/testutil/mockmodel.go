// Package testutil provides test doubles for the Genkit model layer.
//
// MockModel stands in for the Gemini backend: tests script replies, errors
// and empty responses per prompt pattern, and inspect what the model
// actually received (including whether a photo part arrived).
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// ModelName is the registration name tests wire agents against.
const ModelName = "mock/botanist"

// MockModel provides deterministic model behavior for tests. It matches
// the latest user message against registered patterns in order; first
// match wins. Thread-safe.
type MockModel struct {
	mu       sync.Mutex
	rules    []mockRule
	fallback string
	calls    []MockCall
}

type mockRule struct {
	pattern  string // lowercased substring of the user message
	response string // reply text; empty simulates a no-text model reply
	err      error  // non-nil simulates an invocation failure
}

// MockCall records one invocation as seen by the model.
type MockCall struct {
	UserMessage string // text of the latest user message
	SystemText  string // text of the system message, if any
	Messages    int    // total messages in the request, system included
	HadMedia    bool   // any media part present in the request
	MediaType   string // content type of the first media part, if any
	Response    string // reply text returned (empty on error or no-text)
}

// NewMockModel creates a mock with the given fallback reply, returned when
// no pattern matches.
func NewMockModel(fallback string) *MockModel {
	return &MockModel{fallback: fallback}
}

// AddReply registers a pattern-reply pair. Matching is a case-insensitive
// substring check against the latest user message.
func (m *MockModel) AddReply(pattern, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{pattern: strings.ToLower(pattern), response: response})
}

// AddError registers a pattern that makes the invocation fail with err.
func (m *MockModel) AddError(pattern string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{pattern: strings.ToLower(pattern), err: err})
}

// AddEmptyReply registers a pattern that yields a reply with no text,
// exercising the caller's fallback path.
func (m *MockModel) AddEmptyReply(pattern string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{pattern: strings.ToLower(pattern)})
}

// Calls returns a copy of all recorded calls.
func (m *MockModel) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]MockCall, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// LastCall returns the most recent call, if any.
func (m *MockModel) LastCall() (MockCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return MockCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Reset clears recorded calls, keeping registered rules.
func (m *MockModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Register registers the mock on g under ModelName and returns the model.
func (m *MockModel) Register(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, ModelName, &ai.ModelOptions{
		Label: "Mock Botanist Model",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			SystemRole: true,
			Media:      true,
		},
	}, m.generate)
}

// generate is the Genkit model function.
func (m *MockModel) generate(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	var userText string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == ai.RoleUser {
			userText = req.Messages[i].Text()
			break
		}
	}

	var systemText string
	for _, msg := range req.Messages {
		if msg.Role == ai.RoleSystem {
			systemText = msg.Text()
			break
		}
	}

	hadMedia := false
	mediaType := ""
	for _, msg := range req.Messages {
		for _, part := range msg.Content {
			if part.IsMedia() {
				hadMedia = true
				if mediaType == "" {
					mediaType = part.ContentType
				}
			}
		}
	}

	m.mu.Lock()
	var matched *mockRule
	lower := strings.ToLower(userText)
	for i := range m.rules {
		if strings.Contains(lower, m.rules[i].pattern) {
			matched = &m.rules[i]
			break
		}
	}

	call := MockCall{
		UserMessage: userText,
		SystemText:  systemText,
		Messages:    len(req.Messages),
		HadMedia:    hadMedia,
		MediaType:   mediaType,
	}

	if matched != nil && matched.err != nil {
		m.calls = append(m.calls, call)
		m.mu.Unlock()
		return nil, matched.err
	}

	responseText := m.fallback
	if matched != nil {
		responseText = matched.response
	}
	call.Response = responseText
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	if cb != nil && responseText != "" {
		_ = cb(ctx, &ai.ModelResponseChunk{
			Content: []*ai.Part{ai.NewTextPart(responseText)},
		})
	}

	// An empty response carries no parts, so callers see Text() == "".
	var parts []*ai.Part
	if responseText != "" {
		parts = append(parts, ai.NewTextPart(responseText))
	}

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: parts,
		},
	}, nil
}
