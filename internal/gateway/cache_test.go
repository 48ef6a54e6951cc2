package gateway_test

import (
	"context"
	"testing"
	"time"

	"github.com/JaimeStill/warden/internal/gateway"
)

type urlGateway struct {
	gateway.Gateway
	calls int
	url   string
}

func (g *urlGateway) ResolvePlaybackURL(ctx context.Context, indexID, videoID string) (string, error) {
	g.calls++
	return g.url, nil
}

func TestPlaybackCacheReusesURL(t *testing.T) {
	inner := &urlGateway{url: "https://cdn.example/a.m3u8"}
	g := gateway.WithPlaybackCache(inner, 8, time.Minute)

	for range 3 {
		u, err := g.ResolvePlaybackURL(context.Background(), "idx", "vid")
		if err != nil {
			t.Fatalf("error: %v", err)
		}
		if u != inner.url {
			t.Errorf("url = %q", u)
		}
	}
	if inner.calls != 1 {
		t.Errorf("provider calls = %d, want 1", inner.calls)
	}
}

func TestPlaybackCacheSkipsEmpty(t *testing.T) {
	inner := &urlGateway{}
	g := gateway.WithPlaybackCache(inner, 8, time.Minute)

	g.ResolvePlaybackURL(context.Background(), "idx", "vid")
	inner.url = "https://cdn.example/late.m3u8"

	u, _ := g.ResolvePlaybackURL(context.Background(), "idx", "vid")
	if u != inner.url {
		t.Errorf("url = %q, want late url", u)
	}
	if inner.calls != 2 {
		t.Errorf("provider calls = %d, want 2", inner.calls)
	}
}

func TestPlaybackCacheKeyedByIndex(t *testing.T) {
	inner := &urlGateway{url: "u"}
	g := gateway.WithPlaybackCache(inner, 8, time.Minute)

	g.ResolvePlaybackURL(context.Background(), "idx-a", "vid")
	g.ResolvePlaybackURL(context.Background(), "idx-b", "vid")

	if inner.calls != 2 {
		t.Errorf("provider calls = %d, want 2", inner.calls)
	}
}

func TestPlaybackCacheDisabled(t *testing.T) {
	inner := &urlGateway{url: "u"}
	if g := gateway.WithPlaybackCache(inner, 0, time.Minute); g != gateway.Gateway(inner) {
		t.Error("zero size should return the inner gateway")
	}
}
