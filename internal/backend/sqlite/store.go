// Package sqlite implements the chat protocol over a local SQLite store.
// Message writes publish a fresh ordered snapshot to the chat's
// subscribers through an in-process hub.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/backend"
)

// Store implements api.Client over SQLite.
type Store struct {
	db        *sql.DB
	responder backend.Responder
	hub       *hub
}

// New store. The database file is created if it does not exist.
func New(dbPath string, responder backend.Responder) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chats (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			creation_timestamp INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "creating chats table")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			chat_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			creation_timestamp INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "creating messages table")
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS messages_chat_id ON messages (chat_id)`)
	if err != nil {
		return nil, errors.Wrap(err, "creating messages index")
	}

	return &Store{
		db:        db,
		responder: responder,
		hub:       newHub(),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// listMessages returns a chat's messages ordered by creation time
// ascending, ties broken by id.
func (s *Store) listMessages(ctx context.Context, chatID string) ([]*api.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, role, content, creation_timestamp
		FROM messages
		WHERE chat_id = ?
		ORDER BY creation_timestamp ASC, id ASC
	`, chatID)
	if err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	defer rows.Close()

	var messages []*api.Message
	for rows.Next() {
		message := &api.Message{}
		if err := rows.Scan(&message.ID, &message.ChatID, &message.Role, &message.Content, &message.CreationTimestamp); err != nil {
			return nil, errors.Wrap(err, "scanning message row")
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating message rows")
	}
	return messages, nil
}

// publish pushes the current ordered message set of a chat to its
// subscribers.
func (s *Store) publish(ctx context.Context, chatID string) {
	messages, err := s.listMessages(ctx, chatID)
	if err != nil {
		return
	}
	s.hub.publish(chatID, messages)
}
