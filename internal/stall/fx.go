package stall

import (
	"github.com/smallbiznis/collections/internal/stall/repository"
	"github.com/smallbiznis/collections/internal/stall/service"
	"go.uber.org/fx"
)

var Module = fx.Module("stall.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
