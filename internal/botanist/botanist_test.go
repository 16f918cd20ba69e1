package botanist

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happytree/happytree/internal/log"
	"github.com/happytree/happytree/internal/testutil"
)

func newMockAgent(t *testing.T, fallback string) (*Agent, *testutil.MockModel) {
	t.Helper()
	g := genkit.Init(context.Background())
	require.NotNil(t, g)

	mock := testutil.NewMockModel(fallback)
	mock.Register(g)
	return NewTestAgent(g, testutil.ModelName), mock
}

func TestNewValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("missing api key", func(t *testing.T) {
		_, err := New(ctx, Config{Logger: log.NewNop()})
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("missing logger", func(t *testing.T) {
		_, err := New(ctx, Config{APIKey: "test-key"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger")
	})
}

func TestNewDefaults(t *testing.T) {
	// Plugin initialisation is local; a syntactically valid key is enough
	// to construct. Only a real Generate call would hit the network.
	agent, err := New(context.Background(), Config{
		APIKey: "test-key",
		Logger: log.NewNop(),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultModelName, agent.ModelName())
	assert.Equal(t, DefaultTemperature, agent.temperature)
	assert.Equal(t, SystemPrompt, agent.systemPrompt)
}

func TestGenerateReturnsReply(t *testing.T) {
	agent, mock := newMockAgent(t, "generic advice")
	mock.AddReply("ficus", "Water your ficus when the topsoil is dry.")

	msgs := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("How do I water a ficus?")),
	}
	reply, err := agent.Generate(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, "Water your ficus when the topsoil is dry.", reply)
}

func TestGenerateSendsSystemPrompt(t *testing.T) {
	agent, mock := newMockAgent(t, "ok")

	_, err := agent.Generate(context.Background(), []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("hello")),
	})
	require.NoError(t, err)

	call, ok := mock.LastCall()
	require.True(t, ok)
	assert.Equal(t, SystemPrompt, call.SystemText)
}

func TestGenerateCarriesHistory(t *testing.T) {
	agent, mock := newMockAgent(t, "ok")

	msgs := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("first question")),
		ai.NewModelMessage(ai.NewTextPart("first answer")),
		ai.NewUserMessage(ai.NewTextPart("second question")),
	}
	_, err := agent.Generate(context.Background(), msgs)
	require.NoError(t, err)

	call, ok := mock.LastCall()
	require.True(t, ok)
	assert.Equal(t, "second question", call.UserMessage)
	// History plus the system message.
	assert.Equal(t, len(msgs)+1, call.Messages)
}

func TestGenerateEmptyReply(t *testing.T) {
	agent, mock := newMockAgent(t, "ok")
	mock.AddEmptyReply("silence")

	reply, err := agent.Generate(context.Background(), []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("silence please")),
	})
	require.NoError(t, err)
	assert.Empty(t, reply, "empty model output surfaces as empty string, caller decides the fallback")
}

func TestGenerateError(t *testing.T) {
	agent, mock := newMockAgent(t, "ok")
	mock.AddError("broken", errors.New("network timeout"))

	_, err := agent.Generate(context.Background(), []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("broken request")),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network timeout")
}

func TestGenerateForwardsAttachment(t *testing.T) {
	agent, mock := newMockAgent(t, "looks healthy")

	msgs := []*ai.Message{
		ai.NewUserMessage(
			ai.NewTextPart("What is wrong with this leaf?"),
			ai.NewMediaPart("image/jpeg", "data:image/jpeg;base64,AAAA"),
		),
	}
	_, err := agent.Generate(context.Background(), msgs)
	require.NoError(t, err)

	call, ok := mock.LastCall()
	require.True(t, ok)
	assert.True(t, call.HadMedia)
	assert.Equal(t, "image/jpeg", call.MediaType)
}
