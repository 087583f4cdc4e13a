package store

import (
	"context"
	"time"

	"dentabot/dialog"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Memory keeps slots in process. A conversation ends after ttl without turns.
type Memory struct {
	logger *zap.Logger
	ttl    time.Duration
	data   *cache.Cache
}

func NewMemory(logger *zap.Logger, ttl time.Duration) *Memory {
	m := Memory{
		logger: logger,
		ttl:    ttl,
		data:   cache.New(ttl, time.Minute),
	}
	m.data.OnEvicted(func(conversationId string, i interface{}) {
		m.logger.Debug("slots dropped", zap.String("conversation", conversationId))
	})
	return &m
}

func (m *Memory) Get(_ context.Context, conversationId string) (dialog.ConversationSlots, error) {
	val, ok := m.data.Get(conversationId)
	if !ok {
		return dialog.ConversationSlots{}, nil
	}
	slots := val.(dialog.ConversationSlots)
	// reading counts as activity
	m.data.Set(conversationId, slots, m.ttl)
	return slots, nil
}

func (m *Memory) Set(_ context.Context, conversationId string, slots dialog.ConversationSlots) error {
	m.data.Set(conversationId, slots, m.ttl)
	return nil
}

func (m *Memory) Clear(_ context.Context, conversationId string) error {
	m.data.Delete(conversationId)
	return nil
}

// Len reports how many conversations currently hold slots.
func (m *Memory) Len() int {
	return m.data.ItemCount()
}
