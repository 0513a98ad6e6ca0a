package postgres

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/tejastrax/tejax/internal/api"
)

// ListenMessages subscribes to the message feed of a chat. A dedicated
// connection LISTENs for write notifications; each notification for this
// chat triggers a re-query of the ordered message set, pushed as a
// snapshot. The current set is delivered immediately.
func (s *Store) ListenMessages(ctx context.Context, chatID string) (api.Subscription, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "acquiring connection")
	}
	if _, err := conn.Exec(ctx, `LISTEN `+notifyChannel); err != nil {
		conn.Release()
		return nil, errors.Wrap(err, "listening on channel")
	}

	messages, err := s.listMessages(ctx, chatID)
	if err != nil {
		conn.Release()
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		updates: make(chan []*api.Message, 1),
		cancel:  cancel,
	}
	sub.push(messages)

	go func() {
		defer conn.Release()
		defer sub.terminate(nil)
		for {
			notification, err := conn.Conn().WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					sub.terminate(errors.Wrap(err, "waiting for notification"))
				}
				return
			}
			if notification.Payload != chatID {
				continue
			}
			snapshot, err := s.listMessages(subCtx, chatID)
			if err != nil {
				sub.terminate(err)
				return
			}
			sub.push(snapshot)
		}
	}()
	return sub, nil
}

type subscription struct {
	updates chan []*api.Message
	cancel  context.CancelFunc
	once    sync.Once
	err     error
}

// push replaces any undrained snapshot with the latest one.
func (s *subscription) push(messages []*api.Message) {
	for {
		select {
		case s.updates <- messages:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

func (s *subscription) terminate(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.updates)
	})
}

func (s *subscription) Updates() <-chan []*api.Message { return s.updates }
func (s *subscription) Err() error                     { return s.err }

func (s *subscription) Close() {
	s.cancel()
}
