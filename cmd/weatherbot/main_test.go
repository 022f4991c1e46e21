package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
)

type foreignConfig struct{}

func (foreignConfig) CoreConfig() *coreconfig.Config { return &coreconfig.Config{} }

func TestBootstrapRejectsForeignConfig(t *testing.T) {
	got, err := bootstrapApp(context.Background(), foreignConfig{})
	assert.Nil(t, got)
	assert.EqualError(t, err, "unexpected config type main.foreignConfig")
}
