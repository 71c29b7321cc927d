package redisad_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	redisad "github.com/nrenier/ratehawk-connector/internal/adapters/redis"
	"github.com/nrenier/ratehawk-connector/internal/domain"
)

func TestCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	hotel := domain.Hotel{
		ID:       "ratehawk_hotel_42",
		Source:   "ratehawk",
		SourceID: "42",
		Name:     "Hotel Alpha",
	}
	if err := cache.Set(ctx, "hotel:ratehawk_hotel_42", hotel, 60); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got domain.Hotel
	ok, err := cache.Get(ctx, "hotel:ratehawk_hotel_42", &got)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Name != "Hotel Alpha" || got.ID != hotel.ID {
		t.Fatalf("unexpected value: %+v", got)
	}

	// keys are namespaced
	if !mr.Exists("rh:hotel:ratehawk_hotel_42") {
		t.Fatalf("expected namespaced key in redis")
	}

	if err := cache.Del(ctx, "hotel:ratehawk_hotel_42"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	ok, _ = cache.Get(ctx, "hotel:ratehawk_hotel_42", &got)
	if ok {
		t.Fatalf("expected miss after Del")
	}
}

func TestCache_MissReturnsFalse(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	var dst map[string]any
	ok, err := cache.Get(context.Background(), "nope", &dst)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if ok {
		t.Fatalf("expected miss")
	}
}

func TestCache_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	if err := cache.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	mr.Close()
	if err := cache.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping failure after server close")
	}
}

func TestCache_TTLApplied(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	if err := cache.Set(ctx, "k", "v", 60); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("rh:k"); ttl <= 0 {
		t.Fatalf("expected a TTL, got %v", ttl)
	}
}
