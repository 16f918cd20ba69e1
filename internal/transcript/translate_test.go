package transcript

import (
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happytree/happytree/internal/photo"
)

func testAttachment(t *testing.T) *photo.Attachment {
	t.Helper()
	att, err := photo.Encode("leaf.jpg", []byte{0xFF, 0xD8, 0xFF})
	require.NoError(t, err)
	return att
}

func TestModelMessagesRoles(t *testing.T) {
	tr := New()
	tr.AppendUser("My basil leaves are drooping")
	tr.AppendAssistant("Drooping basil usually signals underwatering.")
	tr.AppendUser("I water it daily though")

	msgs := ModelMessages(tr.Entries(), nil, uuid.Nil)
	require.Len(t, msgs, 3)

	assert.Equal(t, ai.RoleUser, msgs[0].Role)
	assert.Equal(t, ai.RoleModel, msgs[1].Role)
	assert.Equal(t, ai.RoleUser, msgs[2].Role)

	require.Len(t, msgs[1].Content, 1)
	assert.Equal(t, "Drooping basil usually signals underwatering.", msgs[1].Content[0].Text)
}

func TestModelMessagesAttachmentBinding(t *testing.T) {
	tr := New()
	tr.AppendUser("What is this plant?")
	tr.AppendAssistant("I need a photo to tell.")
	target := tr.AppendUser("Here is a photo")

	att := testAttachment(t)
	msgs := ModelMessages(tr.Entries(), att, target.ID)
	require.Len(t, msgs, 3)

	// Earlier entries stay text-only.
	require.Len(t, msgs[0].Content, 1)
	assert.True(t, msgs[0].Content[0].IsText())

	// The bound entry carries text first, then the photo.
	require.Len(t, msgs[2].Content, 2)
	assert.True(t, msgs[2].Content[0].IsText())
	assert.Equal(t, "Here is a photo", msgs[2].Content[0].Text)
	assert.True(t, msgs[2].Content[1].IsMedia())
	assert.Equal(t, "image/jpeg", msgs[2].Content[1].ContentType)
	assert.Equal(t, att.DataURL(), msgs[2].Content[1].Text)
}

// Identical prompt text must not attract the photo; only the entry ID binds.
func TestModelMessagesIdenticalTextNotRebound(t *testing.T) {
	tr := New()
	tr.AppendUser("look at this leaf")
	tr.AppendAssistant("Looks healthy.")
	target := tr.AppendUser("look at this leaf")

	msgs := ModelMessages(tr.Entries(), testAttachment(t), target.ID)

	multimodal := 0
	for _, m := range msgs {
		if len(m.Content) > 1 {
			multimodal++
		}
	}
	assert.Equal(t, 1, multimodal, "exactly one message may carry the photo")
	assert.Len(t, msgs[0].Content, 1, "the earlier identical prompt stays text-only")
	assert.Len(t, msgs[2].Content, 2)
}

func TestModelMessagesNoAttachment(t *testing.T) {
	tr := New()
	target := tr.AppendUser("plain question")

	msgs := ModelMessages(tr.Entries(), nil, target.ID)
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Content, 1)
	assert.True(t, msgs[0].Content[0].IsText())
}

func TestModelMessagesUnknownTarget(t *testing.T) {
	tr := New()
	tr.AppendUser("a")
	tr.AppendAssistant("b")

	// An ID that matches no entry leaves every message text-only.
	msgs := ModelMessages(tr.Entries(), testAttachment(t), uuid.New())
	for _, m := range msgs {
		assert.Len(t, m.Content, 1)
	}
}

func TestModelMessagesEmpty(t *testing.T) {
	msgs := ModelMessages(nil, nil, uuid.Nil)
	assert.Empty(t, msgs)
}
