package cache

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func TestTiersLocateAndPromote(t *testing.T) {
	ctx := context.Background()
	tiers, err := NewTiers(newTestStore(t), newTestStore(t))
	if err != nil {
		t.Fatalf("new tiers: %v", err)
	}
	locator := Locator{Namespace: "images", Path: "id/200x150.jpg"}

	tier, err := tiers.Locate(ctx, locator)
	if err != nil || tier != TierMiss {
		t.Fatalf("expected miss, got %s (%v)", tier, err)
	}

	if _, err := tiers.Durable.Put(ctx, locator, bytes.NewReader([]byte("thumb")), PutOptions{}); err != nil {
		t.Fatalf("put error: %v", err)
	}
	if tier, _ := tiers.Locate(ctx, locator); tier != TierCache {
		t.Fatalf("expected cache tier, got %s", tier)
	}

	if _, err := tiers.Promote(ctx, locator); err != nil {
		t.Fatalf("promote error: %v", err)
	}
	if tier, _ := tiers.Locate(ctx, locator); tier != TierStatic {
		t.Fatalf("expected static tier, got %s", tier)
	}

	result, err := tiers.Static.Get(ctx, locator)
	if err != nil {
		t.Fatalf("static get: %v", err)
	}
	defer result.Reader.Close()
	body, _ := io.ReadAll(result.Reader)
	if string(body) != "thumb" {
		t.Fatalf("promoted body mismatch: %q", body)
	}
}

func TestTiersPublishWritesBothTiers(t *testing.T) {
	ctx := context.Background()
	tiers, _ := NewTiers(newTestStore(t), newTestStore(t))
	locator := Locator{Namespace: "images", Path: "id/10x10.avif"}

	if _, err := tiers.Publish(ctx, locator, bytes.NewReader([]byte("avif"))); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	if _, err := tiers.Durable.Stat(ctx, locator); err != nil {
		t.Fatalf("durable tier should hold the file: %v", err)
	}
	if _, err := tiers.Static.Stat(ctx, locator); err != nil {
		t.Fatalf("static tier should hold the file: %v", err)
	}
}

func TestNewTiersRequiresBothStores(t *testing.T) {
	if _, err := NewTiers(nil, newTestStore(t)); err != ErrStoreUnavailable {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
