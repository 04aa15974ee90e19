package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogCapture(t *testing.T) {
	t.Run("derived loggers share entries", func(t *testing.T) {
		logger, logs := NewTestLogger(t)

		logger.Info("upload accepted", slog.String("filename", "study.xlsx"))
		logger.With(slog.String("component", "transform_service")).Warn("duplicate key")

		AssertLogContains(t, logs, slog.LevelWarn, "duplicate key")
		AssertLogAttr(t, logs, "component", "transform_service")
		AssertLogAttr(t, logs, "filename", "study.xlsx")
		assert.Len(t, logs.Entries(), 2)
		assert.Len(t, logs.Entries(slog.LevelInfo), 1)
		assert.Empty(t, logs.Entries(slog.LevelError))
	})

	t.Run("concurrent writers", func(t *testing.T) {
		logger, logs := NewTestLogger(nil)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.With(slog.Int("worker", n)).Info("transform finished")
			}(i)
		}
		wg.Wait()

		assert.Len(t, logs.Entries(), 10)
	})
}
