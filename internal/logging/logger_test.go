package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNew_LevelByEnv(t *testing.T) {
	assert.False(t, New("prod").Core().Enabled(zap.DebugLevel))
	assert.True(t, New("prod").Core().Enabled(zap.InfoLevel))
	assert.True(t, New("dev").Core().Enabled(zap.DebugLevel))
	assert.True(t, New("test").Core().Enabled(zap.DebugLevel))
}
