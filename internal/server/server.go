package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/smallbiznis/collections/internal/account/domain"
	"github.com/smallbiznis/collections/internal/authorization"
	"github.com/smallbiznis/collections/internal/cache"
	changelogdomain "github.com/smallbiznis/collections/internal/changelog/domain"
	"github.com/smallbiznis/collections/internal/clock"
	"github.com/smallbiznis/collections/internal/config"
	errorlogdomain "github.com/smallbiznis/collections/internal/errorlog/domain"
	invoicedomain "github.com/smallbiznis/collections/internal/invoice/domain"
	locationdomain "github.com/smallbiznis/collections/internal/location/domain"
	nonrentabledomain "github.com/smallbiznis/collections/internal/nonrentable/domain"
	"github.com/smallbiznis/collections/internal/observability"
	obsmiddleware "github.com/smallbiznis/collections/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/collections/internal/observability/metrics"
	obstracing "github.com/smallbiznis/collections/internal/observability/tracing"
	"github.com/smallbiznis/collections/internal/providers/pdf"
	renterdomain "github.com/smallbiznis/collections/internal/renter/domain"
	sectiondomain "github.com/smallbiznis/collections/internal/section/domain"
	stalldomain "github.com/smallbiznis/collections/internal/stall/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	if httpMetrics != nil {
		r.Use(obsmetrics.GinMiddleware(httpMetrics))
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger
	clock  clock.Clock

	authzSvc       authorization.Service
	locationSvc    locationdomain.Service
	sectionSvc     sectiondomain.Service
	stallSvc       stalldomain.Service
	nonrentableSvc nonrentabledomain.Service
	renterSvc      renterdomain.Service
	invoiceSvc     invoicedomain.Service
	generator      invoicedomain.Generator
	accountSvc     accountdomain.Service
	changeLogSvc   changelogdomain.Service
	errorLogSvc    errorlogdomain.Service
	lookup         cache.LookupCache
	pdf            pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	Clock          clock.Clock
	AuthzSvc       authorization.Service
	LocationSvc    locationdomain.Service
	SectionSvc     sectiondomain.Service
	StallSvc       stalldomain.Service
	NonrentableSvc nonrentabledomain.Service
	RenterSvc      renterdomain.Service
	InvoiceSvc     invoicedomain.Service
	Generator      invoicedomain.Generator
	AccountSvc     accountdomain.Service
	ChangeLogSvc   changelogdomain.Service
	ErrorLogSvc    errorlogdomain.Service
	Lookup         cache.LookupCache
	PDF            pdf.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http.server"),
		clock:          p.Clock,
		authzSvc:       p.AuthzSvc,
		locationSvc:    p.LocationSvc,
		sectionSvc:     p.SectionSvc,
		stallSvc:       p.StallSvc,
		nonrentableSvc: p.NonrentableSvc,
		renterSvc:      p.RenterSvc,
		invoiceSvc:     p.InvoiceSvc,
		generator:      p.Generator,
		accountSvc:     p.AccountSvc,
		changeLogSvc:   p.ChangeLogSvc,
		errorLogSvc:    p.ErrorLogSvc,
		lookup:         p.Lookup,
		pdf:            p.PDF,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.OrgContext(), s.ActorContext())

	api.GET("/reference/statuses", s.ListStatusOptions)
	api.GET("/reference/rent-types", s.ListRentTypes)
	api.GET("/reference/invoice-types", s.ListInvoiceTypes)

	// -------- Locations --------
	api.GET("/locations", s.authorize(authorization.ObjectLocation, authorization.ActionView), s.ListLocations)
	api.GET("/locations/options", s.authorize(authorization.ObjectLocation, authorization.ActionView), s.ListLocationOptions)
	api.POST("/locations", s.authorize(authorization.ObjectLocation, authorization.ActionCreate), s.CreateLocation)
	api.GET("/locations/:id", s.authorize(authorization.ObjectLocation, authorization.ActionView), s.GetLocationByID)
	api.PUT("/locations/:id", s.authorize(authorization.ObjectLocation, authorization.ActionUpdate), s.UpdateLocation)
	api.POST("/locations/:id/activate", s.authorize(authorization.ObjectLocation, authorization.ActionStatus), s.ActivateLocation)
	api.POST("/locations/:id/deactivate", s.authorize(authorization.ObjectLocation, authorization.ActionStatus), s.DeactivateLocation)

	// -------- Sections --------
	api.GET("/sections", s.authorize(authorization.ObjectSection, authorization.ActionView), s.ListSections)
	api.GET("/sections/options", s.authorize(authorization.ObjectSection, authorization.ActionView), s.ListSectionOptions)
	api.POST("/sections", s.authorize(authorization.ObjectSection, authorization.ActionCreate), s.CreateSection)
	api.GET("/sections/:id", s.authorize(authorization.ObjectSection, authorization.ActionView), s.GetSectionByID)
	api.PUT("/sections/:id", s.authorize(authorization.ObjectSection, authorization.ActionUpdate), s.UpdateSection)
	api.POST("/sections/:id/activate", s.authorize(authorization.ObjectSection, authorization.ActionStatus), s.ActivateSection)
	api.POST("/sections/:id/deactivate", s.authorize(authorization.ObjectSection, authorization.ActionStatus), s.DeactivateSection)

	// -------- Stalls --------
	api.GET("/stalls", s.authorize(authorization.ObjectStall, authorization.ActionView), s.ListStalls)
	api.GET("/stalls/options", s.authorize(authorization.ObjectStall, authorization.ActionView), s.ListVacantStallOptions)
	api.POST("/stalls", s.authorize(authorization.ObjectStall, authorization.ActionCreate), s.CreateStall)
	api.GET("/stalls/:id", s.authorize(authorization.ObjectStall, authorization.ActionView), s.GetStallByID)
	api.PUT("/stalls/:id", s.authorize(authorization.ObjectStall, authorization.ActionUpdate), s.UpdateStall)
	api.POST("/stalls/:id/activate", s.authorize(authorization.ObjectStall, authorization.ActionStatus), s.ActivateStall)
	api.POST("/stalls/:id/deactivate", s.authorize(authorization.ObjectStall, authorization.ActionStatus), s.DeactivateStall)

	// -------- Non-rentables --------
	api.GET("/nonrentables", s.authorize(authorization.ObjectNonrentable, authorization.ActionView), s.ListNonrentables)
	api.POST("/nonrentables", s.authorize(authorization.ObjectNonrentable, authorization.ActionCreate), s.CreateNonrentable)
	api.GET("/nonrentables/:id", s.authorize(authorization.ObjectNonrentable, authorization.ActionView), s.GetNonrentableByID)
	api.PUT("/nonrentables/:id", s.authorize(authorization.ObjectNonrentable, authorization.ActionUpdate), s.UpdateNonrentable)
	api.POST("/nonrentables/:id/activate", s.authorize(authorization.ObjectNonrentable, authorization.ActionStatus), s.ActivateNonrentable)
	api.POST("/nonrentables/:id/deactivate", s.authorize(authorization.ObjectNonrentable, authorization.ActionStatus), s.DeactivateNonrentable)

	// -------- Renters --------
	api.GET("/renters", s.authorize(authorization.ObjectRenter, authorization.ActionView), s.ListRenters)
	api.GET("/renters/options", s.authorize(authorization.ObjectRenter, authorization.ActionView), s.ListRenterOptions)
	api.POST("/renters", s.authorize(authorization.ObjectRenter, authorization.ActionCreate), s.CreateRenter)
	api.GET("/renters/:id", s.authorize(authorization.ObjectRenter, authorization.ActionView), s.GetRenterByID)
	api.PUT("/renters/:id", s.authorize(authorization.ObjectRenter, authorization.ActionUpdate), s.UpdateRenter)
	api.POST("/renters/:id/activate", s.authorize(authorization.ObjectRenter, authorization.ActionStatus), s.ActivateRenter)
	api.POST("/renters/:id/deactivate", s.authorize(authorization.ObjectRenter, authorization.ActionStatus), s.DeactivateRenter)
	api.GET("/renters/:id/statement", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.RenderRenterStatement)

	// -------- Invoices --------
	api.GET("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.ListInvoices)
	api.POST("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionCreate), s.CreateInvoice)
	api.POST("/invoices/generate", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceGenerate), s.GenerateInvoices)
	api.GET("/invoices/generations", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.ListGenerations)
	api.GET("/invoices/periods", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.ListGenerationPeriods)
	api.GET("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.GetInvoiceByID)
	api.PUT("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionUpdate), s.UpdateInvoice)
	api.GET("/invoices/:id/pdf", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.RenderInvoicePDF)

	// -------- Accounts --------
	api.GET("/accounts", s.authorize(authorization.ObjectAccount, authorization.ActionView), s.ListAccounts)
	api.POST("/accounts", s.authorize(authorization.ObjectAccount, authorization.ActionCreate), s.CreateAccount)
	api.GET("/accounts/:id", s.authorize(authorization.ObjectAccount, authorization.ActionView), s.GetAccountByID)
	api.PUT("/accounts/:id", s.authorize(authorization.ObjectAccount, authorization.ActionUpdate), s.UpdateAccount)
	api.POST("/accounts/:id/activate", s.authorize(authorization.ObjectAccount, authorization.ActionStatus), s.ActivateAccount)
	api.POST("/accounts/:id/deactivate", s.authorize(authorization.ObjectAccount, authorization.ActionStatus), s.DeactivateAccount)
	api.POST("/accounts/:id/access", s.authorize(authorization.ObjectAccount, authorization.ActionAccountAccess), s.GrantAccountAccess)
	api.DELETE("/accounts/:id/access", s.authorize(authorization.ObjectAccount, authorization.ActionAccountAccess), s.RevokeAccountAccess)

	// -------- Logs --------
	api.GET("/change-logs", s.authorize(authorization.ObjectChangeLog, authorization.ActionView), s.ListChangeLogs)
	api.GET("/error-logs", s.authorize(authorization.ObjectErrorLog, authorization.ActionView), s.ListErrorLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
