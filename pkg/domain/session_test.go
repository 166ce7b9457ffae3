package domain_test

import (
	"testing"
	"time"

	"github.com/aretw0/orrery/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestSessionConfig_Validate(t *testing.T) {
	base := domain.SessionConfig{SessionID: "s", FPS: 30, YearsPerFrame: 0.01, EntityCount: 2}

	tests := []struct {
		name    string
		mutate  func(*domain.SessionConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(*domain.SessionConfig) {}},
		{name: "max fps", mutate: func(c *domain.SessionConfig) { c.FPS = domain.MaxFPS }},
		{name: "missing id", mutate: func(c *domain.SessionConfig) { c.SessionID = "" }, wantErr: true},
		{name: "zero fps", mutate: func(c *domain.SessionConfig) { c.FPS = 0 }, wantErr: true},
		{name: "fps above max", mutate: func(c *domain.SessionConfig) { c.FPS = domain.MaxFPS + 1 }, wantErr: true},
		{name: "huge fps", mutate: func(c *domain.SessionConfig) { c.FPS = 2_000_000_000 }, wantErr: true},
		{name: "negative years", mutate: func(c *domain.SessionConfig) { c.YearsPerFrame = -1 }, wantErr: true},
		{name: "negative count", mutate: func(c *domain.SessionConfig) { c.EntityCount = -1 }, wantErr: true},
		{name: "ids disagree with count", mutate: func(c *domain.SessionConfig) { c.EntityIDs = []string{"sun"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSessionConfig_TickIntervalPositiveForValidRates(t *testing.T) {
	c := domain.SessionConfig{SessionID: "s", FPS: domain.MaxFPS}
	assert.NoError(t, c.Validate())
	assert.Equal(t, time.Millisecond, c.TickInterval())
}
