package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tejastrax/tejax/internal/api"
)

// InvokeResponder generates the assistant's reply to the chat's transcript,
// persists it, and publishes a snapshot. The reply reaches clients through
// the subscription; the response carries it only for confirmation.
func (s *Store) InvokeResponder(ctx context.Context, request *api.InvokeResponderRequest) (*api.InvokeResponderResponse, error) {
	transcript, err := s.listMessages(ctx, request.ChatID)
	if err != nil {
		return nil, err
	}

	reply, err := s.responder.Reply(ctx, transcript)
	if err != nil {
		return nil, errors.Wrap(err, "generating reply")
	}

	message := &api.Message{
		ID:                uuid.New().String(),
		ChatID:            request.ChatID,
		Role:              api.RoleAssistant,
		Content:           reply,
		CreationTimestamp: time.Now().UnixMicro(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, role, content, creation_timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, message.ID, message.ChatID, message.Role, message.Content, message.CreationTimestamp)
	if err != nil {
		return nil, errors.Wrap(err, "inserting assistant message")
	}

	s.publish(ctx, request.ChatID)
	return &api.InvokeResponderResponse{Reply: reply}, nil
}
