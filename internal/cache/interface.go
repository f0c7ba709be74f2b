package cache

import (
	"context"
	"errors"
)

var ErrCacheMiss = errors.New("cache miss")

// MemberCache is a short-TTL cache for channel member identity lists, sitting
// in front of the channel store for the delivery tracker's per-message
// membership read. The store stays the source of truth; entries are
// invalidated whenever membership changes.
type MemberCache interface {
	GetMembers(ctx context.Context, channelID string) ([]string, error)
	SetMembers(ctx context.Context, channelID string, memberIDs []string) error
	Invalidate(ctx context.Context, channelID string) error
	Close() error
}
