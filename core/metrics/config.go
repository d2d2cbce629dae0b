package metrics

import (
	"fmt"
	"slices"

	"github.com/kilianp07/dispatchopt/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}

// Validate rejects sink types that no package has registered.
func (c Config) Validate() error {
	known := SinkTypes()
	for i, s := range c.Sinks {
		if !slices.Contains(known, s.Type) {
			return fmt.Errorf("metrics.sinks[%d]: unknown type %q", i, s.Type)
		}
	}
	return nil
}
