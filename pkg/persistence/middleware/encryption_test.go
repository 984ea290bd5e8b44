package middleware_test

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/aretw0/formwork/pkg/adapters/memory"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/persistence/middleware"
	"github.com/aretw0/formwork/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func encrypted(t *testing.T, config middleware.EncryptionConfig) middleware.Middleware {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(config)
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware() error = %v", err)
	}
	return mw
}

func secretSnapshot(value string) domain.Snapshot {
	return domain.Snapshot{
		Field: domain.Field{Name: "card", Value: value, HasValue: true, Touched: true},
		Meta:  domain.Meta{Name: "card", Trigger: domain.DefaultTrigger, InitialValue: "none", HasInitialValue: true},
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunRecoveryCacheContract(t, encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(memory.NewCache()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewCache()
	secure := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	if err := secure.Put(ctx, "card", secretSnapshot("4111-1111")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Peek at what was parked, then put it back.
	stored, err := underlying.Take(ctx, "card")
	if err != nil {
		t.Fatalf("Underlying take failed: %v", err)
	}
	if stored.Field.Value == "4111-1111" || stored.Field.Touched {
		t.Fatalf("Expected the record to be sealed, got %+v", stored.Field)
	}
	if stored.Meta.InitialValue != "none" {
		t.Errorf("Expected metadata to stay readable, got %+v", stored.Meta)
	}
	if err := underlying.Put(ctx, "card", stored); err != nil {
		t.Fatal(err)
	}

	got, err := secure.Take(ctx, "card")
	if err != nil {
		t.Fatalf("Take via middleware failed: %v", err)
	}
	if got.Field.Value != "4111-1111" || !got.Field.Touched || !got.Field.HasValue {
		t.Errorf("Expected the original record, got %+v", got.Field)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewCache()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureOld := encrypted(t, middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	if err := secureOld.Put(ctx, "card", secretSnapshot("old")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	secureNew := encrypted(t, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)
	got, err := secureNew.Take(ctx, "card")
	if err != nil {
		t.Fatalf("Take with rotated key failed: %v", err)
	}
	if got.Field.Value != "old" {
		t.Errorf("Decryption with fallback key failed, got %v", got.Field.Value)
	}

	if err := secureNew.Put(ctx, "card", secretSnapshot("new")); err != nil {
		t.Fatalf("Put with new key failed: %v", err)
	}
	if _, err := secureOld.Take(ctx, "card"); err == nil {
		t.Error("Expected failure when taking a new-key record with the old key only")
	}
}

func TestEncryptionMiddleware_PlainRecord(t *testing.T) {
	underlying := memory.NewCache()
	secure := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	if err := underlying.Put(ctx, "card", secretSnapshot("plain")); err != nil {
		t.Fatal(err)
	}
	if _, err := secure.Take(ctx, "card"); err == nil {
		t.Error("Expected a plain record to be rejected")
	}
	if _, err := secure.Take(ctx, "card"); !errors.Is(err, ports.ErrSnapshotNotFound) {
		t.Errorf("Expected the rejected record to be consumed, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	if !errors.Is(err, middleware.ErrKeySize) {
		t.Errorf("Expected ErrKeySize, got %v", err)
	}
	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	if !errors.Is(err, middleware.ErrKeySize) {
		t.Errorf("Expected ErrKeySize for a fallback key, got %v", err)
	}
}
