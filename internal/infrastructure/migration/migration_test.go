package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewManagerPicksStrategyByEnvironment(t *testing.T) {
	tests := []struct {
		environment string
		strategy    string
	}{
		{"development", "gorm_auto_migrate"},
		{"dev", "gorm_auto_migrate"},
		{"Development", "gorm_auto_migrate"},
		{"test", "golang_migrate"},
		{"production", "golang_migrate"},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			mgr := NewManager(tt.environment)
			assert.Equal(t, tt.strategy, mgr.GetStrategy().GetName())
		})
	}
}
