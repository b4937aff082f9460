package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz"`

	// SaveEveryTicks controls the interval snapshot flush.
	SaveEveryTicks int `yaml:"save_every_ticks"`

	// HistoryWindow is how many trailing history entries ride in a
	// location_update.
	HistoryWindow int `yaml:"history_window"`

	// Ambient flavor cadence while a chatventure idles in chill mode.
	AmbientMinTicks int `yaml:"ambient_min_ticks"`
	AmbientMaxTicks int `yaml:"ambient_max_ticks"`

	// DefaultJoinLimit applies to chatventures whose struct blueprint
	// does not declare its own.
	DefaultJoinLimit int `yaml:"default_join_limit"`

	RateLimits RateLimits `yaml:"rate_limits"`
}

type RateLimits struct {
	ChatWindowTicks int `yaml:"chat_window_ticks"`
	ChatMax         int `yaml:"chat_max"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:       5,
		SaveEveryTicks:   3000,
		HistoryWindow:    150,
		AmbientMinTicks:  60,
		AmbientMaxTicks:  600,
		DefaultJoinLimit: 100,
		RateLimits: RateLimits{
			ChatWindowTicks: 50,
			ChatMax:         10,
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
