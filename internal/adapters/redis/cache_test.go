package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "hotel_scout/internal/adapters/redis"
)

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	var out float64
	ok, err := c.Get(ctx, "currency:usd_rub:rate", &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("hit on empty cache")
	}

	if err := c.Set(ctx, "currency:usd_rub:rate", 90.5, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	ok, err = c.Get(ctx, "currency:usd_rub:rate", &out)
	if err != nil || !ok {
		t.Fatalf("get after set: ok=%v err=%v", ok, err)
	}
	if out != 90.5 {
		t.Fatalf("value: %v", out)
	}

	if err := c.Del(ctx, "currency:usd_rub:rate"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ = c.Get(ctx, "currency:usd_rub:rate", &out); ok {
		t.Fatal("hit after delete")
	}
}

func TestCache_EntriesExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(31 * time.Second)

	var out string
	if ok, _ := c.Get(ctx, "k", &out); ok {
		t.Fatal("entry survived its TTL")
	}
}
