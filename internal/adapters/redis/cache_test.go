package redisad_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	redisad "hotel_monitor/internal/adapters/redis"
)

type entry struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var got entry
	ok, err := c.Get(ctx, "hotel:1", &got)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "hotel:1", entry{Name: "Grand Plaza", Price: 120}, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("hotel:1"); ttl.Seconds() != 60 {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	ok, err = c.Get(ctx, "hotel:1", &got)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Name != "Grand Plaza" || got.Price != 120 {
		t.Fatalf("unexpected value: %+v", got)
	}

	if err := c.Del(ctx, "hotel:1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if mr.Exists("hotel:1") {
		t.Fatalf("key should be gone")
	}
}
