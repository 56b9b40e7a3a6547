package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// TempSQLitePath returns a database file path inside the test's temp dir.
func TempSQLitePath(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "launchdeck_test.db")
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@launchdeck.test", prefix, time.Now().UnixNano())
}

// ============================================================================
// Test Data Factories
// ============================================================================

// LaunchRecord builds an upstream launch record shaped like the SpaceX v2 API.
func LaunchRecord(flightNumber int, launchDateUnix int64) map[string]any {
	return map[string]any{
		"flight_number":    flightNumber,
		"mission_name":     fmt.Sprintf("Mission %d", flightNumber),
		"launch_date_unix": launchDateUnix,
		"launch_site": map[string]any{
			"site_id":   "ccafs_slc_40",
			"site_name": "CCAFS SLC 40",
		},
		"links": map[string]any{
			"mission_patch":       fmt.Sprintf("https://images.launchdeck.test/%d.png", flightNumber),
			"mission_patch_small": fmt.Sprintf("https://images.launchdeck.test/%d_small.png", flightNumber),
		},
		"rocket": map[string]any{
			"rocket_id":   "falcon9",
			"rocket_name": "Falcon 9",
			"rocket_type": "FT",
		},
	}
}

// LaunchRecords builds n records with flight numbers 1..n and cursors
// baseUnix, baseUnix+1, ... in upstream (oldest first) order.
func LaunchRecords(n int, baseUnix int64) []map[string]any {
	records := make([]map[string]any, n)
	for i := range records {
		records[i] = LaunchRecord(i+1, baseUnix+int64(i))
	}
	return records
}
