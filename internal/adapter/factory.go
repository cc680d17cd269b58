package adapter

import (
	"fmt"

	"github.com/yourusername/fleet-manager/internal/config"
	"github.com/yourusername/fleet-manager/internal/store"
)

// New builds the adapter for a server definition based on its configured
// adapter type. An empty type defaults to the local process adapter.
func New(def config.ServerDefinition, defaults config.SupervisorConfig, st store.Store) (Adapter, error) {
	switch def.Adapter {
	case "", "process":
		return NewProcessAdapter(def, defaults, st), nil
	case "mock":
		return NewMockAdapter(def, defaults, st), nil
	default:
		return nil, fmt.Errorf("unknown adapter type %q for server %s", def.Adapter, def.ID)
	}
}
