package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-go-golems/docqa/pkg/conversation"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const DefaultRedisPrefix = "docqa:"

// RedisStore keeps each conversation as a JSON document and maintains a
// sorted set of ids scored by the last update, in milliseconds.
type RedisStore struct {
	mu     sync.Mutex
	client *redis.Client
	prefix string
	now    Clock
	closed bool
}

type RedisStoreOption func(*RedisStore)

func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

func WithRedisClock(now Clock) RedisStoreOption {
	return func(s *RedisStore) {
		s.now = now
	}
}

// NewRedisStore wraps client and pings it.
func NewRedisStore(ctx context.Context, client *redis.Client, options ...RedisStoreOption) (*RedisStore, error) {
	s := &RedisStore{
		client: client,
		prefix: DefaultRedisPrefix,
		now:    time.Now,
	}
	for _, o := range options {
		o(s)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}
	return s, nil
}

func (s *RedisStore) conversationKey(id string) string {
	return s.prefix + "conversation:" + id
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "conversations"
}

func (s *RedisStore) Create(ctx context.Context, title string) (string, error) {
	if err := s.ensureOpen(); err != nil {
		return "", err
	}

	c := conversation.New(newConversationID(), title, s.now())
	if err := s.save(ctx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*conversation.Conversation, bool, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, false, err
	}

	c, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return c, true, nil
}

func (s *RedisStore) List(ctx context.Context) ([]*conversation.Conversation, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list conversation ids")
	}

	out := make([]*conversation.Conversation, 0, len(ids))
	for _, id := range ids {
		c, err := s.load(ctx, id)
		if err != nil {
			if errors.Is(err, ErrConversationNotFound) {
				// index entry outlived its document
				continue
			}
			return nil, err
		}
		out = append(out, c)
	}
	sortByRecency(out)
	return out, nil
}

func (s *RedisStore) AppendMessage(ctx context.Context, id string, msg *conversation.Message) error {
	return s.update(ctx, id, func(c *conversation.Conversation, now time.Time) {
		c.AppendMessage(msg, now)
	})
}

func (s *RedisStore) Overwrite(ctx context.Context, id string, msgs []*conversation.Message) error {
	return s.update(ctx, id, func(c *conversation.Conversation, now time.Time) {
		c.Overwrite(msgs, now)
	})
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.conversationKey(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	return errors.Wrap(err, "delete conversation")
}

func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}

// update is a plain read-modify-write; concurrent writers are last-write-wins.
func (s *RedisStore) update(ctx context.Context, id string, f func(*conversation.Conversation, time.Time)) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	f(c, s.now())
	return s.save(ctx, c)
}

func (s *RedisStore) load(ctx context.Context, id string) (*conversation.Conversation, error) {
	data, err := s.client.Get(ctx, s.conversationKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get conversation %s", id)
	}
	return decodeConversation(id, string(data))
}

func (s *RedisStore) save(ctx context.Context, c *conversation.Conversation) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal conversation")
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.conversationKey(c.ID), data, 0)
		pipe.ZAdd(ctx, s.indexKey(), &redis.Z{
			Score:  float64(c.UpdatedAt.UnixMilli()),
			Member: c.ID,
		})
		return nil
	})
	return errors.Wrapf(err, "save conversation %s", c.ID)
}

func (s *RedisStore) ensureOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
