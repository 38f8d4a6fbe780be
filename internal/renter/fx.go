package renter

import (
	"github.com/smallbiznis/collections/internal/renter/repository"
	"github.com/smallbiznis/collections/internal/renter/service"
	"go.uber.org/fx"
)

var Module = fx.Module("renter.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
