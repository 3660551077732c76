package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/Justype/simmaker/internal/utils"
	"github.com/redis/go-redis/v9"
)

// MailboxOptions locates the Redis list job epilogues push their states to
type MailboxOptions struct {
	Addr string
	DB   int
	Key  string
}

// MailboxChannel drains "<id>: <state>" messages from a Redis list.
// Jobs report with: redis-cli RPUSH <key> "$JOB_ID: succeed"
type MailboxChannel struct {
	client *redis.Client
	key    string
}

// NewMailboxChannel connects to Redis and checks the connection.
func NewMailboxChannel(ctx context.Context, opts MailboxOptions) (*MailboxChannel, error) {
	client := redis.NewClient(&redis.Options{
		Addr: opts.Addr,
		DB:   opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return NewMailboxChannelWithClient(client, opts.Key), nil
}

// NewMailboxChannelWithClient uses an existing client.
func NewMailboxChannelWithClient(client *redis.Client, key string) *MailboxChannel {
	return &MailboxChannel{client: client, key: key}
}

func (c *MailboxChannel) Key() string {
	return c.key
}

// Poll pops every pending message.
func (c *MailboxChannel) Poll(ctx context.Context) ([]Update, error) {
	var updates []Update
	for {
		msg, err := c.client.LPop(ctx, c.key).Result()
		if errors.Is(err, redis.Nil) {
			return updates, nil
		}
		if err != nil {
			return updates, fmt.Errorf("failed to read mailbox %s: %w", c.key, err)
		}

		u, err := ParseUpdate(msg)
		if err != nil {
			utils.PrintWarning("Ignoring mailbox message: %v", err)
			continue
		}
		updates = append(updates, u)
	}
}

// Reset drops pending messages left over from a previous run.
func (c *MailboxChannel) Reset(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

func (c *MailboxChannel) Close() error {
	return c.client.Close()
}
