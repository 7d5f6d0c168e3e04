// Package testutil collects small test-gating helpers shared across
// packages that can optionally exercise a real native library.
package testutil

import (
	"os"
	"testing"
)

// SkipUnlessEnv skips the test unless the given env var equals want.
func SkipUnlessEnv(t *testing.T, key, want string) {
	t.Helper()
	if os.Getenv(key) != want {
		t.Skipf("skipped: set %s=%s to run", key, want)
	}
}

// IsCI reports whether running under a common CI environment.
func IsCI() bool {
	return os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
}
