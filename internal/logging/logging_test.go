package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("should parse the level", func(t *testing.T) {
		assert.Equal(t, logrus.DebugLevel, New("debug", "text").GetLevel())
		assert.Equal(t, logrus.WarnLevel, New(" WARN ", "text").GetLevel())
	})

	t.Run("should default to info on a bad level", func(t *testing.T) {
		assert.Equal(t, logrus.InfoLevel, New("loud", "text").GetLevel())
	})

	t.Run("should use the json formatter", func(t *testing.T) {
		logger := New("info", "JSON")
		_, ok := logger.Formatter.(*logrus.JSONFormatter)
		assert.True(t, ok)

		var buf bytes.Buffer
		logger.SetOutput(&buf)
		logger.WithField("file", "a.csv").Info("imported")
		assert.Contains(t, buf.String(), `"file":"a.csv"`)
	})
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))

	logger := New("info", "text")
	assert.Same(t, logger, OrDiscard(logger))
}
