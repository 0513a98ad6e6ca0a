// Package postgres implements the chat protocol over a shared Postgres
// store. Message writes NOTIFY a channel; subscriptions LISTEN on it and
// re-query the ordered message set to build each pushed snapshot.
package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/backend"
)

// notifyChannel carries the chat id of every committed message write.
const notifyChannel = "tejax_messages"

// Store implements api.Client over Postgres.
type Store struct {
	pool      *pgxpool.Pool
	responder backend.Responder
}

// New store. The schema is created if it does not exist.
func New(ctx context.Context, dsn string, responder backend.Responder) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to postgres")
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chats (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			creation_timestamp BIGINT NOT NULL
		)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "creating chats table")
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			chat_id TEXT NOT NULL REFERENCES chats (id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			creation_timestamp BIGINT NOT NULL
		)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "creating messages table")
	}

	_, err = pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS messages_chat_id ON messages (chat_id)`)
	if err != nil {
		return nil, errors.Wrap(err, "creating messages index")
	}

	return &Store{pool: pool, responder: responder}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// ListChats returns all chats ordered by creation time descending, ties
// broken by id.
func (s *Store) ListChats(ctx context.Context) ([]*api.Chat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, creation_timestamp
		FROM chats
		ORDER BY creation_timestamp DESC, id ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "querying chats")
	}
	chats, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[api.Chat])
	if err != nil {
		return nil, errors.Wrap(err, "collecting rows")
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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chats (id, title, creation_timestamp) VALUES ($1, $2, $3)
	`, chat.ID, chat.Title, chat.CreationTimestamp)
	if err != nil {
		return nil, errors.Wrap(err, "inserting chat")
	}
	return chat, nil
}

// RenameChat updates a chat's title.
func (s *Store) RenameChat(ctx context.Context, request *api.RenameChatRequest) (*api.Chat, error) {
	chat := &api.Chat{}
	err := s.pool.QueryRow(ctx, `
		UPDATE chats SET title = $2 WHERE id = $1
		RETURNING id, title, creation_timestamp
	`, request.ID, request.Title).Scan(&chat.ID, &chat.Title, &chat.CreationTimestamp)
	if err == pgx.ErrNoRows {
		return nil, api.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "updating chat title")
	}
	return chat, nil
}

// DeleteChat removes a chat; its messages go with it via the cascade.
func (s *Store) DeleteChat(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting chat")
	}
	if tag.RowsAffected() == 0 {
		return api.ErrNotFound
	}
	return s.notifyChat(ctx, id)
}

// InsertUserMessage persists a user message and notifies subscribers.
func (s *Store) InsertUserMessage(ctx context.Context, request *api.InsertUserMessageRequest) (*api.Message, error) {
	message := &api.Message{
		ID:                uuid.New().String(),
		ChatID:            request.ChatID,
		Role:              api.RoleUser,
		Content:           request.Content,
		CreationTimestamp: time.Now().UnixMicro(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, chat_id, role, content, creation_timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, message.ID, message.ChatID, message.Role, message.Content, message.CreationTimestamp)
	if err != nil {
		return nil, errors.Wrap(err, "inserting message")
	}
	if err := s.notifyChat(ctx, request.ChatID); err != nil {
		return nil, err
	}
	return message, nil
}

// InvokeResponder generates, persists and announces the assistant's reply.
func (s *Store) InvokeResponder(ctx context.Context, request *api.InvokeResponderRequest) (*api.InvokeResponderResponse, error) {
	transcript, err := s.listMessages(ctx, request.ChatID)
	if err != nil {
		return nil, err
	}

	reply, err := s.responder.Reply(ctx, transcript)
	if err != nil {
		return nil, errors.Wrap(err, "generating reply")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO messages (id, chat_id, role, content, creation_timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New().String(), request.ChatID, api.RoleAssistant, reply, time.Now().UnixMicro())
	if err != nil {
		return nil, errors.Wrap(err, "inserting assistant message")
	}
	if err := s.notifyChat(ctx, request.ChatID); err != nil {
		return nil, err
	}
	return &api.InvokeResponderResponse{Reply: reply}, nil
}

// UpdateMessage replaces a message's content and notifies subscribers.
func (s *Store) UpdateMessage(ctx context.Context, request *api.UpdateMessageRequest) (*api.Message, error) {
	message := &api.Message{}
	err := s.pool.QueryRow(ctx, `
		UPDATE messages SET content = $2 WHERE id = $1
		RETURNING id, chat_id, role, content, creation_timestamp
	`, request.ID, request.Content).Scan(&message.ID, &message.ChatID, &message.Role, &message.Content, &message.CreationTimestamp)
	if err == pgx.ErrNoRows {
		return nil, api.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "updating message")
	}
	if err := s.notifyChat(ctx, message.ChatID); err != nil {
		return nil, err
	}
	return message, nil
}

// DeleteMessage removes a message and notifies subscribers.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	var chatID string
	err := s.pool.QueryRow(ctx, `
		DELETE FROM messages WHERE id = $1 RETURNING chat_id
	`, id).Scan(&chatID)
	if err == pgx.ErrNoRows {
		return api.ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "deleting message")
	}
	return s.notifyChat(ctx, chatID)
}

func (s *Store) listMessages(ctx context.Context, chatID string) ([]*api.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, chat_id, role, content, creation_timestamp
		FROM messages
		WHERE chat_id = $1
		ORDER BY creation_timestamp ASC, id ASC
	`, chatID)
	if err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	messages, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[api.Message])
	if err != nil {
		return nil, errors.Wrap(err, "collecting rows")
	}
	return messages, nil
}

func (s *Store) notifyChat(ctx context.Context, chatID string) error {
	_, err := s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, chatID)
	return errors.Wrap(err, "notifying subscribers")
}
