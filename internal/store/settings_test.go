package store

import (
	"context"
	"testing"

	"github.com/nvaprinting/stockroom/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestSetSettingReplaces(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if v, _ := GetSetting(ctx, database, "last_end_of_day"); v != "" {
		t.Errorf("expected empty setting, got %q", v)
	}

	SetSetting(ctx, database, "last_end_of_day", "2026-01-01")
	SetSetting(ctx, database, "last_end_of_day", "2026-01-02")

	v, err := GetSetting(ctx, database, "last_end_of_day")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "2026-01-02" {
		t.Errorf("expected '2026-01-02', got %q", v)
	}
}
