// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/hoard/internal/adapters/config"
	_ "go.trai.ch/hoard/internal/adapters/events"
	_ "go.trai.ch/hoard/internal/adapters/logger"
	_ "go.trai.ch/hoard/internal/adapters/metrics"
	_ "go.trai.ch/hoard/internal/adapters/sqlite"
	_ "go.trai.ch/hoard/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/hoard/internal/app"
	_ "go.trai.ch/hoard/internal/engine/compute"
	_ "go.trai.ch/hoard/internal/engine/kvcache"
	_ "go.trai.ch/hoard/internal/engine/query"
)
