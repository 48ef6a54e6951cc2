package gateway

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type cachedGateway struct {
	Gateway
	urls *expirable.LRU[string, string]
}

// WithPlaybackCache wraps g so resolved playback URLs are reused until ttl
// elapses. Empty results are never cached so a video whose URL is not yet
// available is re-resolved on the next call. A non-positive size disables caching.
func WithPlaybackCache(g Gateway, size int, ttl time.Duration) Gateway {
	if size <= 0 {
		return g
	}
	return &cachedGateway{
		Gateway: g,
		urls:    expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (c *cachedGateway) ResolvePlaybackURL(ctx context.Context, indexID, videoID string) (string, error) {
	key := indexID + "/" + videoID
	if u, ok := c.urls.Get(key); ok {
		return u, nil
	}

	u, err := c.Gateway.ResolvePlaybackURL(ctx, indexID, videoID)
	if err != nil {
		return "", err
	}
	if u != "" {
		c.urls.Add(key, u)
	}
	return u, nil
}
