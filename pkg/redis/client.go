// Package redis wraps a Valkey connection used as a fast-path dedup cache for
// inbound provider message ids. The message log in MySQL remains the source
// of truth; losing this cache only costs an extra query per inbound message.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/environments"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/logger"
)

type Client struct {
	client valkey.Client
}

const (
	seenMessageKeyPrefix = "inbound_seen:"
	seenMessageTTL       = 24 * time.Hour
)

func NewRedisClient(cfg environments.RedisConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Connected to Redis (via Valkey client)")

	return &Client{client: client}, nil
}

// MarkInboundSeen remembers a provider message id for the dedup window.
func (c *Client) MarkInboundSeen(ctx context.Context, providerMessageID string) error {
	key := seenMessageKeyPrefix + providerMessageID

	err := c.client.Do(ctx, c.client.B().Set().Key(key).Value("1").Ex(seenMessageTTL).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to cache inbound message id: %w", err)
	}

	return nil
}

// WasInboundSeen reports whether a provider message id was already processed
// within the dedup window.
func (c *Client) WasInboundSeen(ctx context.Context, providerMessageID string) (bool, error) {
	key := seenMessageKeyPrefix + providerMessageID

	result := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if result.Error() != nil {
		if valkey.IsValkeyNil(result.Error()) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check inbound message id: %w", result.Error())
	}

	return true, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

func (c *Client) Close() error {
	c.client.Close()
	return nil
}
