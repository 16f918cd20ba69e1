package botanist

import (
	"github.com/firebase/genkit/go/genkit"

	"github.com/happytree/happytree/internal/log"
)

// NewTestAgent builds an Agent around an already-initialised Genkit
// instance and a registered model, bypassing credential handling entirely.
// The model must be registered on g before calling. Test use only.
func NewTestAgent(g *genkit.Genkit, modelName string) *Agent {
	return &Agent{
		g:            g,
		model:        genkit.LookupModel(g, modelName),
		modelName:    modelName,
		temperature:  DefaultTemperature,
		systemPrompt: SystemPrompt,
		logger:       log.NewNop(),
	}
}
