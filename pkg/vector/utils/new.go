// Package vectorutils is the vector store utility package
package vectorutils

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/vector"
	"github.com/noemaco/noema/pkg/vector/chroma"
	"github.com/noemaco/noema/pkg/vector/memory"
	"github.com/noemaco/noema/pkg/vector/qdrant"
	"github.com/noemaco/noema/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string
	TargetURL    string
	DBPath       string
	Dimensions   uint
	Logger       *zap.Logger
}

func NewVectorDriver(o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "memory":
		return memory.NewDriver(memory.Config{
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "sqlite":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "chroma":
		return chroma.NewDriver(chroma.Config{
			URL: o.TargetURL,
		}, o.Logger)
	case "qdrant":
		host, port, err := splitHostPort(o.TargetURL)
		if err != nil {
			return nil, err
		}
		return qdrant.NewDriver(qdrant.Config{
			Host:       host,
			Port:       port,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

// splitHostPort extracts host and port from a target such as
// "localhost:6334" or "http://localhost:6334". Port 0 means unset.
func splitHostPort(target string) (string, int, error) {
	if target == "" {
		return "", 0, fmt.Errorf("%w: qdrant target is required", vector.ErrConfig)
	}

	hostport := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		hostport = u.Host
	}

	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, 0, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("%w: invalid port in target %q", vector.ErrConfig, target)
	}

	return host, port, nil
}
