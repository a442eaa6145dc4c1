package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "quickstay/internal/adapters/redis"
)

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Total int64  `json:"total"`
	}

	ok, err := c.Get(ctx, "k", &payload{})
	if err != nil {
		t.Fatalf("get on empty: %v", err)
	}
	if ok {
		t.Fatalf("expected miss on empty cache")
	}

	in := payload{Name: "Seaside Suite", Total: 20000}
	if err := c.Set(ctx, "k", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out payload
	ok, err = c.Get(ctx, "k", &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out != in {
		t.Fatalf("roundtrip mismatch: %+v", out)
	}

	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ = c.Get(ctx, "k", &out); ok {
		t.Fatalf("expected miss after del")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Second)

	var out string
	if ok, _ := c.Get(ctx, "k", &out); ok {
		t.Fatalf("expected expiry after TTL")
	}
}
