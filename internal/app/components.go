package app

import (
	"github.com/stacklok/component-registry-server/internal/service"
	"github.com/stacklok/component-registry-server/internal/telemetry"
)

// AppComponents holds the long-lived components of a RegistryApp
type AppComponents struct {
	RegistryService service.RegistryService

	// Telemetry is set only when the app created the providers itself
	Telemetry *telemetry.Telemetry
}
