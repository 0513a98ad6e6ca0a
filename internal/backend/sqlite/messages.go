package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tejastrax/tejax/internal/api"
)

// InsertUserMessage persists a user message and publishes a snapshot.
func (s *Store) InsertUserMessage(ctx context.Context, request *api.InsertUserMessageRequest) (*api.Message, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM chats WHERE id = ?`, request.ChatID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, api.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying chat")
	}

	message := &api.Message{
		ID:                uuid.New().String(),
		ChatID:            request.ChatID,
		Role:              api.RoleUser,
		Content:           request.Content,
		CreationTimestamp: time.Now().UnixMicro(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, role, content, creation_timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, message.ID, message.ChatID, message.Role, message.Content, message.CreationTimestamp)
	if err != nil {
		return nil, errors.Wrap(err, "inserting message")
	}

	s.publish(ctx, request.ChatID)
	return message, nil
}

// UpdateMessage replaces a message's content and publishes a snapshot.
func (s *Store) UpdateMessage(ctx context.Context, request *api.UpdateMessageRequest) (*api.Message, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE messages SET content = ? WHERE id = ?
	`, request.Content, request.ID)
	if err != nil {
		return nil, errors.Wrap(err, "updating message")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "checking rows affected")
	}
	if rowsAffected == 0 {
		return nil, api.ErrNotFound
	}

	message := &api.Message{}
	err = s.db.QueryRowContext(ctx, `
		SELECT id, chat_id, role, content, creation_timestamp FROM messages WHERE id = ?
	`, request.ID).Scan(&message.ID, &message.ChatID, &message.Role, &message.Content, &message.CreationTimestamp)
	if err != nil {
		return nil, errors.Wrap(err, "querying message")
	}

	s.publish(ctx, message.ChatID)
	return message, nil
}

// DeleteMessage removes a message and publishes a snapshot.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	var chatID string
	err := s.db.QueryRowContext(ctx, `SELECT chat_id FROM messages WHERE id = ?`, id).Scan(&chatID)
	if err == sql.ErrNoRows {
		return api.ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "querying message")
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "deleting message")
	}

	s.publish(ctx, chatID)
	return nil
}
