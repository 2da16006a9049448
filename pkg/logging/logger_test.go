package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "desconocido", ""} {
		assert.NotNil(t, NewLogger(Config{Level: level}), "level %q", level)
	}
	assert.NotNil(t, NewLogger(Config{Level: "info", Pretty: true}))
}
