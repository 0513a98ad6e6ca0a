package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tejastrax/tejax/internal/api"
)

// ListChats returns all chats ordered by creation time descending, ties
// broken by id.
func (s *Store) ListChats(ctx context.Context) ([]*api.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, creation_timestamp
		FROM chats
		ORDER BY creation_timestamp DESC, id ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "querying chats")
	}
	defer rows.Close()

	var chats []*api.Chat
	for rows.Next() {
		chat := &api.Chat{}
		if err := rows.Scan(&chat.ID, &chat.Title, &chat.CreationTimestamp); err != nil {
			return nil, errors.Wrap(err, "scanning chat row")
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating chat rows")
	}
	return chats, nil
}

// CreateChat creates a chat with a store-assigned id.
func (s *Store) CreateChat(ctx context.Context, request *api.CreateChatRequest) (*api.Chat, error) {
	chat := &api.Chat{
		ID:                uuid.New().String(),
		Title:             request.Title,
		CreationTimestamp: time.Now().UnixMicro(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (id, title, creation_timestamp)
		VALUES (?, ?, ?)
	`, chat.ID, chat.Title, chat.CreationTimestamp)
	if err != nil {
		return nil, errors.Wrap(err, "inserting chat")
	}
	return chat, nil
}

// RenameChat updates a chat's title.
func (s *Store) RenameChat(ctx context.Context, request *api.RenameChatRequest) (*api.Chat, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE chats SET title = ? WHERE id = ?
	`, request.Title, request.ID)
	if err != nil {
		return nil, errors.Wrap(err, "updating chat title")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "checking rows affected")
	}
	if rowsAffected == 0 {
		return nil, api.ErrNotFound
	}

	chat := &api.Chat{}
	err = s.db.QueryRowContext(ctx, `
		SELECT id, title, creation_timestamp FROM chats WHERE id = ?
	`, request.ID).Scan(&chat.ID, &chat.Title, &chat.CreationTimestamp)
	if err == sql.ErrNoRows {
		return nil, api.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying chat")
	}
	return chat, nil
}

// DeleteChat removes a chat and all of its messages in one transaction.
func (s *Store) DeleteChat(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "deleting chat")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "checking rows affected")
	}
	if rowsAffected == 0 {
		return api.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, id); err != nil {
		return errors.Wrap(err, "deleting chat messages")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	s.hub.publish(id, nil)
	return nil
}
