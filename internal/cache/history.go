package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// HistoryLimit — сколько последних сообщений отдаем при join-chat
	HistoryLimit = 50

	historyTTL = 24 * time.Hour
	keyPrefix  = "chat:history:"
)

// HistoryCache — горячий кеш последних сообщений комнаты в Redis.
// Хранит готовые к отправке JSON-сообщения; источник истины — Postgres,
// поэтому любая ошибка кеша не фатальна для вызывающего.
type HistoryCache struct {
	rdb *redis.Client
}

func NewHistoryCache(rdb *redis.Client) *HistoryCache {
	return &HistoryCache{rdb: rdb}
}

func key(roomID string) string {
	return keyPrefix + roomID
}

// Append дописывает сообщение в хвост истории комнаты,
// обрезая список до последних HistoryLimit
func (c *HistoryCache) Append(ctx context.Context, roomID string, message []byte) error {
	pipe := c.rdb.TxPipeline()
	pipe.RPush(ctx, key(roomID), message)
	pipe.LTrim(ctx, key(roomID), -HistoryLimit, -1)
	pipe.Expire(ctx, key(roomID), historyTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Recent возвращает закешированную историю комнаты, старые сообщения первыми.
// Пустой срез без ошибки означает промах кеша.
func (c *HistoryCache) Recent(ctx context.Context, roomID string) ([][]byte, error) {
	values, err := c.rdb.LRange(ctx, key(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([][]byte, 0, len(values))
	for _, v := range values {
		messages = append(messages, []byte(v))
	}
	return messages, nil
}

// Seed заполняет кеш историей из базы после промаха
func (c *HistoryCache) Seed(ctx context.Context, roomID string, messages [][]byte) error {
	if len(messages) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		values = append(values, m)
	}

	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key(roomID))
	pipe.RPush(ctx, key(roomID), values...)
	pipe.LTrim(ctx, key(roomID), -HistoryLimit, -1)
	pipe.Expire(ctx, key(roomID), historyTTL)
	_, err := pipe.Exec(ctx)
	return err
}
