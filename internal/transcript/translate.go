package transcript

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/happytree/happytree/internal/photo"
)

// ModelMessages renders transcript entries as Genkit messages for one
// model invocation. User entries become user messages, assistant entries
// become model messages, in transcript order.
//
// When att is non-nil, the media part joins exactly the entry whose ID is
// attachTo; every other entry stays text-only. The binding is by entry ID,
// so repeated or identical prompt texts never receive the photo twice.
func ModelMessages(entries []Entry, att *photo.Attachment, attachTo uuid.UUID) []*ai.Message {
	msgs := make([]*ai.Message, 0, len(entries))
	for _, e := range entries {
		switch e.Role {
		case RoleAssistant:
			msgs = append(msgs, ai.NewModelMessage(ai.NewTextPart(e.Content)))
		case RoleUser:
			if att != nil && e.ID == attachTo {
				msgs = append(msgs, ai.NewUserMessage(
					ai.NewTextPart(e.Content),
					ai.NewMediaPart(att.MIMEType, att.DataURL()),
				))
				continue
			}
			msgs = append(msgs, ai.NewUserMessage(ai.NewTextPart(e.Content)))
		}
	}
	return msgs
}
