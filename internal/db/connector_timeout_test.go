package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// A context deadline must cut retries short, even with backoff pending.
func TestStandardConnector_RespectsContextTimeout(t *testing.T) {
	connector := NewStandardConnector(&tilevault.ConnectionConfig{
		Host:     "nonexistent.invalid",
		Port:     5432,
		Database: "vault",
		Username: "vault",
		Password: "secret",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := connector.Connect(ctx)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Less(t, elapsed, 2*time.Second,
		"connect should give up shortly after the 100ms deadline, took %v", elapsed)
}
