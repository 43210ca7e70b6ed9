package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Run("empty config gains full defaults", func(t *testing.T) {
		var cfg Config
		cfg.Normalize()

		assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
		assert.Equal(t, "sunday", cfg.WeekStart)
		assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
		assert.Equal(t, 5, cfg.HorizonYears)
		assert.Equal(t, 3, cfg.MaxVisibleEvents)
		assert.Equal(t, "{moreCount} More", cfg.MoreLabel)
		assert.Equal(t, 3, cfg.CacheRadius)
		assert.NotNil(t, cfg.SortedMonthView)
		assert.True(t, *cfg.SortedMonthView)
		assert.NotNil(t, cfg.ShowAdjacentMonths)
		assert.True(t, *cfg.ShowAdjacentMonths)
		assert.NotNil(t, cfg.ICS)
	})

	t.Run("explicit values survive", func(t *testing.T) {
		no := false
		cfg := Config{
			Listen:           "0.0.0.0:9999",
			WeekStart:        "monday",
			MaxVisibleEvents: 7,
			SortedMonthView:  &no,
		}
		cfg.Normalize()

		assert.Equal(t, "0.0.0.0:9999", cfg.Listen)
		assert.Equal(t, "monday", cfg.WeekStart)
		assert.Equal(t, 7, cfg.MaxVisibleEvents)
		assert.False(t, *cfg.SortedMonthView)
	})

	t.Run("unknown week start falls back to sunday", func(t *testing.T) {
		cfg := Config{WeekStart: "wednesday"}
		cfg.Normalize()
		assert.Equal(t, "sunday", cfg.WeekStart)
	})
}

func TestWeekStartDay(t *testing.T) {
	assert.Equal(t, time.Sunday, (&Config{WeekStart: "sunday"}).WeekStartDay())
	assert.Equal(t, time.Monday, (&Config{WeekStart: "monday"}).WeekStartDay())
	assert.Equal(t, time.Sunday, (&Config{}).WeekStartDay())
}

func TestLocation(t *testing.T) {
	t.Run("valid timezone resolves", func(t *testing.T) {
		cfg := &Config{Timezone: "Asia/Seoul"}
		assert.Equal(t, "Asia/Seoul", cfg.Location().String())
	})

	t.Run("unknown timezone falls back to local", func(t *testing.T) {
		cfg := &Config{Timezone: "Not/AZone"}
		assert.Equal(t, time.Local, cfg.Location())
	})

	t.Run("empty means local", func(t *testing.T) {
		assert.Equal(t, time.Local, (&Config{}).Location())
	})
}

func TestLoadAndSave(t *testing.T) {
	t.Run("missing file creates defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sub", "config.yaml")

		cfg, err := Load(path)
		assert.NoError(t, err)
		assert.Equal(t, "127.0.0.1:8080", cfg.Listen)

		// The default file must exist now with restrictive permissions.
		info, err := os.Stat(path)
		assert.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("round trip preserves values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")

		orig := DefaultConfig()
		orig.Listen = "127.0.0.1:7777"
		orig.WeekStart = "monday"
		orig.MaxVisibleEvents = 6
		orig.ICS = []ICSConfig{{URL: "https://example.com/cal.ics", ID: "work", Name: "Work"}}
		assert.NoError(t, orig.Save(path))

		got, err := Load(path)
		assert.NoError(t, err)
		assert.Equal(t, "127.0.0.1:7777", got.Listen)
		assert.Equal(t, "monday", got.WeekStart)
		assert.Equal(t, 6, got.MaxVisibleEvents)
		assert.Len(t, got.ICS, 1)
		assert.Equal(t, "work", got.ICS[0].ID)
	})

	t.Run("partial file is normalized on load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		assert.NoError(t, os.WriteFile(path, []byte("listen: 127.0.0.1:7070\n"), 0o600))

		got, err := Load(path)
		assert.NoError(t, err)
		assert.Equal(t, "127.0.0.1:7070", got.Listen)
		assert.Equal(t, "*/15 * * * *", got.RefreshCron)
		assert.Equal(t, 3, got.MaxVisibleEvents)
	})

	t.Run("invalid YAML is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		assert.NoError(t, os.WriteFile(path, []byte("listen: [unclosed\n"), 0o600))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("empty path is rejected", func(t *testing.T) {
		_, err := Load("")
		assert.Error(t, err)
		assert.Error(t, Save("", DefaultConfig()))
	})
}
