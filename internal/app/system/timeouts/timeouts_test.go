// internal/app/system/timeouts/timeouts_test.go
package timeouts

import (
	"context"
	"testing"
	"time"
)

func TestConfigureOverridesAndReset(t *testing.T) {
	defer Reset()

	Configure(Config{
		Short: 12 * time.Second,
		Batch: 3 * time.Minute,
	})

	if Short() != 12*time.Second {
		t.Errorf("Short = %v, want 12s", Short())
	}
	if Batch() != 3*time.Minute {
		t.Errorf("Batch = %v, want 3m", Batch())
	}
	// Zero values leave the defaults alone.
	if Medium() != DefaultMedium {
		t.Errorf("Medium = %v, want default %v", Medium(), DefaultMedium)
	}

	Reset()
	if Short() != DefaultShort || Batch() != DefaultBatch {
		t.Errorf("Reset did not restore defaults: short=%v batch=%v", Short(), Batch())
	}
}

func TestCurrentReflectsConfiguration(t *testing.T) {
	defer Reset()

	Configure(Config{Long: 45 * time.Second})
	cur := Current()
	if cur.Long != 45*time.Second {
		t.Errorf("Current().Long = %v, want 45s", cur.Long)
	}
	if cur.Ping != DefaultPing {
		t.Errorf("Current().Ping = %v, want default %v", cur.Ping, DefaultPing)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	defer Reset()

	t.Setenv("TIMEOUT_SHORT", "7s")
	t.Setenv("TIMEOUT_BATCH", "2m")
	t.Setenv("TIMEOUT_LONG", "not-a-duration")

	if n := ConfigureFromEnv(); n != 2 {
		t.Errorf("ConfigureFromEnv = %d, want 2", n)
	}
	if Short() != 7*time.Second {
		t.Errorf("Short = %v, want 7s", Short())
	}
	if Batch() != 2*time.Minute {
		t.Errorf("Batch = %v, want 2m", Batch())
	}
	if Long() != DefaultLong {
		t.Errorf("Long = %v, want default after bad env value", Long())
	}
}

func TestWithTimeoutCancels(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Hour, nil, "test op")
	cancel()
	if ctx.Err() != context.Canceled {
		t.Errorf("ctx.Err() = %v, want Canceled", ctx.Err())
	}
}
