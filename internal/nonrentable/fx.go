package nonrentable

import (
	"github.com/smallbiznis/collections/internal/nonrentable/repository"
	"github.com/smallbiznis/collections/internal/nonrentable/service"
	"go.uber.org/fx"
)

var Module = fx.Module("nonrentable.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
