package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	raw := []byte("tick_rate_hz: 10\nsave_every_ticks: 100\nrate_limits:\n  chat_window_ticks: 25\n  chat_max: 3\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	tune, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tune.TickRateHz != 10 {
		t.Fatalf("tick_rate_hz = %d, want 10", tune.TickRateHz)
	}
	if tune.SaveEveryTicks != 100 {
		t.Fatalf("save_every_ticks = %d, want 100", tune.SaveEveryTicks)
	}
	if tune.RateLimits.ChatMax != 3 {
		t.Fatalf("chat_max = %d, want 3", tune.RateLimits.ChatMax)
	}
	// Untouched keys keep their defaults.
	if tune.HistoryWindow != Defaults().HistoryWindow {
		t.Fatalf("history_window = %d, want default %d", tune.HistoryWindow, Defaults().HistoryWindow)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
