package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ikkim/shopfront-backend/config"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	staleKeyPrefix     = "storefront:stale:"
	blacklistKeyPrefix = "blacklist:"

	// markers outlive any render cache entry
	staleMarkerTTL = 24 * time.Hour
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Publish(context.Context, string, any) *redis.IntCmd
}

// Client carries stale markers to the renderer and keeps the token blacklist.
type Client struct {
	store   cmdable
	raw     *redis.Client
	channel string
	now     func() time.Time
}

// StaleMessage is published on the invalidation channel.
type StaleMessage struct {
	Path     string    `json:"path"`
	Scope    string    `json:"scope"`
	MarkedAt time.Time `json:"marked_at"`
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	raw := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := raw.Ping(pingCtx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		_ = raw.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return &Client{store: raw, raw: raw, channel: cfg.Channel, now: time.Now}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	logger.Info("Closing Redis connection", nil)
	return c.raw.Close()
}

// Ping is used by the health check.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx).Err()
}

// StaleKey is the marker key the renderer checks before serving a cached path.
func StaleKey(path string) string {
	return staleKeyPrefix + path
}

// MarkStale writes the marker for path and announces it on the channel.
// Subscribers that miss the message still see the marker.
func (c *Client) MarkStale(ctx context.Context, path, scope string) error {
	msg := StaleMessage{Path: path, Scope: scope, MarkedAt: c.now().UTC()}

	if err := c.store.Set(ctx, StaleKey(path), msg.MarkedAt.Format(time.RFC3339Nano), staleMarkerTTL).Err(); err != nil {
		return fmt.Errorf("set stale marker %s: %w", path, err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode stale message: %w", err)
	}
	if err := c.store.Publish(ctx, c.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish stale message %s: %w", path, err)
	}
	return nil
}

// BlacklistToken adds a token to the blacklist
func (c *Client) BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	logger.From(ctx).Debug("Adding token to blacklist", map[string]interface{}{
		"expiry": expiry.String(),
	})

	if err := c.store.Set(ctx, blacklistKeyPrefix+token, "revoked", expiry).Err(); err != nil {
		logger.From(ctx).Error("Failed to blacklist token", err, nil)
		return err
	}
	return nil
}

// IsTokenBlacklisted checks if a token is in the blacklist
func (c *Client) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	val, err := c.store.Get(ctx, blacklistKeyPrefix+token).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		logger.From(ctx).Error("Failed to check token blacklist", err, nil)
		return false, err
	}
	return val == "revoked", nil
}
