//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/arena/internal/server"
)

var ServerSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvideLevel,
	ProvideWorld,
	ProvideSimulation,
	ProvideBus,
	ProvideServerConfig,
	ProvideServer,
)

func InitializeServer(path ConfigPath) (*server.Server, error) {
	wire.Build(ServerSet)
	return nil, nil
}
