package platforms

import (
	"net/http"

	"github.com/ethanbaker/sourcing/pkg/sourcing"
)

// NewRegistry registers an adapter for every platform with an implementation.
// Platforms left out fail searches with an unsupported platform error.
func NewRegistry(config *Config, client *http.Client, opts *Options) *sourcing.AdapterRegistry {
	linkedInSettings := config.For(sourcing.PlatformLinkedIn)
	hhSettings := config.For(sourcing.PlatformHHRu)
	lalafoSettings := config.For(sourcing.PlatformLalafo)
	superJobSettings := config.For(sourcing.PlatformSuperJob)

	return sourcing.NewAdapterRegistry(
		NewAdapter(sourcing.PlatformLinkedIn, NewLinkedInSource(linkedInSettings, client), linkedInFallback(), linkedInSettings, opts),
		NewAdapter(sourcing.PlatformHHRu, NewHHSource(hhSettings, client), hhFallback(), hhSettings, opts),
		NewAdapter(sourcing.PlatformLalafo, NewLalafoSource(lalafoSettings, client), lalafoFallback(), lalafoSettings, opts),
		NewAdapter(sourcing.PlatformSuperJob, nil, superJobFallback(), superJobSettings, opts),
	)
}
