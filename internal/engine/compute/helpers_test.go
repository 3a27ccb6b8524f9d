package compute_test

import (
	"testing"

	"go.trai.ch/hoard/internal/adapters/telemetry"
	"go.trai.ch/hoard/internal/core/ports/mocks"
	"go.trai.ch/hoard/internal/engine/compute"
	"go.trai.ch/hoard/internal/engine/kvcache"
	"go.uber.org/mock/gomock"
)

func newEngine(t *testing.T, cfg compute.Config) (*compute.Engine, *kvcache.Cache, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	cache := kvcache.New(kvcache.Config{}, nil)
	return compute.New(cfg, cache, logger, telemetry.NewNoOpTracer(), nil), cache, logger
}
