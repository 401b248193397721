package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"checkout-service/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis client for the catalog cache
func NewClient(addr, password string, db int, catalogTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, ttl: catalogTTL}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func bookKey(externalID string) string {
	return fmt.Sprintf("catalog:book:%s", externalID)
}

// GetBooks fetches cached catalog entries for the given external ids.
// The second return value lists the ids that were not in the cache.
func (c *Client) GetBooks(ctx context.Context, externalIDs []string) ([]models.Book, []string, error) {
	if len(externalIDs) == 0 {
		return nil, nil, nil
	}

	keys := make([]string, len(externalIDs))
	for i, id := range externalIDs {
		keys[i] = bookKey(id)
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, externalIDs, err
	}

	books := make([]models.Book, 0, len(externalIDs))
	var missing []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, externalIDs[i])
			continue
		}

		var book models.Book
		if err := json.Unmarshal([]byte(raw), &book); err != nil {
			// Treat a corrupt entry as a miss so the DB repopulates it.
			missing = append(missing, externalIDs[i])
			continue
		}
		books = append(books, book)
	}

	return books, missing, nil
}

// SetBook caches a catalog entry under its external id
func (c *Client) SetBook(ctx context.Context, book *models.Book) error {
	if book.ExternalID == "" {
		return fmt.Errorf("book %d has no external id", book.ID)
	}

	raw, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("failed to marshal book: %w", err)
	}

	return c.rdb.Set(ctx, bookKey(book.ExternalID), raw, c.ttl).Err()
}

// InvalidateBook drops a cached catalog entry, used when the catalog sync
// archives or reprices a title.
func (c *Client) InvalidateBook(ctx context.Context, externalID string) error {
	return c.rdb.Del(ctx, bookKey(externalID)).Err()
}
