package telemetry

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/goproj/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown := Setup(context.Background(), "goproj", "", logging.Nop{})
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_WithEndpoint(t *testing.T) {
	// the gRPC exporter connects lazily, so no collector is needed here
	shutdown := Setup(context.Background(), "goproj", "http://127.0.0.1:4317", logging.Nop{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
