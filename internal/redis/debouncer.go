package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/staffboard/staffboard/internal/domain"
)

const debounceInterval = 1 * time.Second

// Debouncer suppresses rapid duplicate submissions with a SET NX window.
type Debouncer struct {
	rdb *goredis.Client
}

var _ domain.Debouncer = (*Debouncer)(nil)

func NewDebouncer(client *Client) *Debouncer {
	return &Debouncer{rdb: client.rdb}
}

// Allow reports whether the action identified by key may proceed.
// The first call within the window wins; repeats are rejected.
func (d *Debouncer) Allow(ctx context.Context, key string) (bool, error) {
	set, err := d.rdb.SetNX(ctx, "debounce:"+key, "1", debounceInterval).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check debounce: %w", err)
	}
	return set, nil
}
