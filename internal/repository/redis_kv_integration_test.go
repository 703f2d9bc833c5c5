//go:build integration

package repository

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-local/internal/database"
)

func TestRedisKV(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	rdb, err := database.NewRedisClient(context.Background(), url, zerolog.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer rdb.Close()

	testKV(t, NewRedisKV(rdb, "exstem-test:"))
}
