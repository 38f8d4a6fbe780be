package changelog

import (
	"github.com/smallbiznis/collections/internal/changelog/repository"
	"github.com/smallbiznis/collections/internal/changelog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("changelog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
