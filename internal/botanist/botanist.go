// Package botanist implements the plant-care agent on top of Genkit.
//
// An Agent owns its own Genkit instance, initialised with the credential it
// was built for. It is immutable after construction: swapping credentials
// means building a new Agent, which is exactly what the session layer does.
package botanist

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"google.golang.org/genai"

	"github.com/happytree/happytree/internal/log"
)

// ErrInvalidCredential indicates the agent could not be constructed from
// the supplied API key or model configuration.
var ErrInvalidCredential = errors.New("invalid API key or configuration error")

// Config contains the parameters for building an Agent.
type Config struct {
	// APIKey is the Google AI credential. Required.
	APIKey string

	// ModelName is the provider-qualified model, e.g.
	// "googleai/gemini-2.5-flash". Empty selects DefaultModelName.
	ModelName string

	// Temperature for generation. Zero selects DefaultTemperature.
	Temperature float32

	// SystemPrompt overrides the botanist persona. Empty selects
	// SystemPrompt. Only tests override this.
	SystemPrompt string

	// Logger is required.
	Logger log.Logger
}

// validate checks required parameters.
func (cfg Config) validate() error {
	if cfg.APIKey == "" {
		return fmt.Errorf("%w: API key is required", ErrInvalidCredential)
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Agent is the conversational plant-care agent. All fields are captured at
// construction and never mutated, so a single Agent is safe for concurrent
// use; the session layer still serialises turns for transcript ordering.
type Agent struct {
	g            *genkit.Genkit
	model        ai.Model
	modelName    string
	temperature  float32
	systemPrompt string
	logger       log.Logger
}

// New builds an Agent bound to the given credential. The credential is
// handed to the Google AI plugin here and nowhere else; construction fails
// when Genkit cannot initialise or the model is unknown. Network-level
// credential problems only surface later, on Generate.
func New(ctx context.Context, cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = DefaultModelName
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = SystemPrompt
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: cfg.APIKey}))
	if g == nil {
		return nil, fmt.Errorf("%w: initializing genkit", ErrInvalidCredential)
	}

	model := genkit.LookupModel(g, modelName)
	if model == nil {
		return nil, fmt.Errorf("%w: model %q not found", ErrInvalidCredential, modelName)
	}

	cfg.Logger.Debug("agent ready", "model", modelName, "temperature", temperature)

	return &Agent{
		g:            g,
		model:        model,
		modelName:    modelName,
		temperature:  temperature,
		systemPrompt: systemPrompt,
		logger:       cfg.Logger,
	}, nil
}

// Generate runs one model invocation over the full message history and
// returns the reply text. Blocking, no retries; an empty string with nil
// error means the model produced no text and the caller decides the
// fallback. Cancellation comes from ctx only.
func (a *Agent) Generate(ctx context.Context, messages []*ai.Message) (string, error) {
	temp := a.temperature
	resp, err := genkit.Generate(ctx, a.g,
		ai.WithModel(a.model),
		ai.WithSystem(a.systemPrompt),
		ai.WithMessages(messages...),
		ai.WithConfig(&genai.GenerateContentConfig{Temperature: &temp}),
	)
	if err != nil {
		// No added prefix. Callers surface this text in the conversation,
		// so the message must stay the provider's own.
		return "", err
	}

	return resp.Text(), nil
}

// ModelName returns the provider-qualified model this agent generates with.
func (a *Agent) ModelName() string {
	return a.modelName
}
