package errorlog

import (
	"github.com/smallbiznis/collections/internal/errorlog/repository"
	"github.com/smallbiznis/collections/internal/errorlog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("errorlog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
