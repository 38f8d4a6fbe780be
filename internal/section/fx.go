package section

import (
	"github.com/smallbiznis/collections/internal/section/repository"
	"github.com/smallbiznis/collections/internal/section/service"
	"go.uber.org/fx"
)

var Module = fx.Module("section.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
