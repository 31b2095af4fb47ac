package common

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := SetLogOutput(&buf)
	t.Cleanup(func() { SetLogOutput(prev) })
	return &buf
}

func TestLoggerFiltersByLevel(t *testing.T) {
	buf := captureLogs(t)
	l := CreateLogger("dict")

	l.Infof("hidden at the default level")
	l.Warningf("refresh failed: %d", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN  | dict            | refresh failed: 3")

	buf.Reset()
	l.SetLevel(logger.DEBUG)
	l.Debugf("visible")
	assert.Contains(t, buf.String(), "DEBUG | dict")

	buf.Reset()
	l.SetLevel(logger.ERROR)
	l.Warningf("hidden")
	l.Errorf("broken")
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "ERROR | dict")
}

func TestLoggerPanicf(t *testing.T) {
	buf := captureLogs(t)
	l := CreateLogger("server")
	l.SetLevel(logger.CRITICAL)

	assert.PanicsWithValue(t, "invariant violated: 1", func() {
		l.Panicf("invariant violated: %d", 1)
	})
	assert.Empty(t, buf.String())
}

func TestLoggerConcurrentLevelChange(t *testing.T) {
	captureLogs(t)
	l := CreateLogger("rpc")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.SetLevel(logger.DEBUG)
				l.Debugf("line %d", j)
				l.SetLevel(logger.WARNING)
			}
		}()
	}
	wg.Wait()
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]logger.LogLevel{
		"":        logger.WARNING,
		"warn":    logger.WARNING,
		"Warning": logger.WARNING,
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"error":   logger.ERROR,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
