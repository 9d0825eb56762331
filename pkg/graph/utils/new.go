// Package graphutils is the graph store utility package
package graphutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/graph"
	"github.com/noemaco/noema/pkg/graph/memory"
	"github.com/noemaco/noema/pkg/graph/neo4j"
)

type NewGraphDriverOpts struct {
	ProviderType string
	URI          string
	Username     string
	Password     string
	Logger       *zap.Logger
}

func NewGraphDriver(o *NewGraphDriverOpts) (graph.Driver, error) {
	switch o.ProviderType {
	case "memory":
		return memory.NewDriver(memory.Config{}, o.Logger)
	case "neo4j":
		return neo4j.NewDriver(neo4j.Config{
			URI:      o.URI,
			Username: o.Username,
			Password: o.Password,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported graph provider: %s", o.ProviderType)
	}
}
