package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collections/internal/auditcontext"
	"github.com/smallbiznis/collections/internal/changelog/domain"
	"github.com/smallbiznis/collections/internal/clock"
	errorlogdomain "github.com/smallbiznis/collections/internal/errorlog/domain"
	"github.com/smallbiznis/collections/internal/observability/metrics"
	"github.com/smallbiznis/collections/internal/orgcontext"
	"github.com/smallbiznis/collections/pkg/async"
	"github.com/smallbiznis/collections/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	transactionLogChanges = "Log Changes"
	tableChangeLogs       = "change_logs"

	outcomeWritten = "written"
	outcomeFailed  = "failed"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Queue    *async.Queue
	ErrorLog errorlogdomain.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	queue    *async.Queue
	errorLog errorlogdomain.Service
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("changelog.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		queue:    p.Queue,
		errorLog: p.ErrorLog,
		metrics:  p.Metrics,
	}
}

func (s *Service) RecordChanges(ctx context.Context, req domain.RecordRequest) (domain.RecordResult, error) {
	if err := req.Ref.Validate(); err != nil {
		return domain.RecordResult{}, err
	}

	diffs := Diff(req.New, req.Original)
	if len(diffs) == 0 {
		return domain.RecordResult{}, nil
	}

	entry := &domain.ChangeLog{
		ID:         s.genID.Generate(),
		EntityKind: req.Ref.Kind,
		EntityID:   req.Ref.ID,
		Changes:    diffs,
		ActorID:    s.resolveActor(ctx, req.ActorID),
		RequestID:  auditcontext.RequestIDFromContext(ctx),
		CreatedAt:  s.clock.Now().UTC(),
	}
	if orgID, ok := orgcontext.OrgIDFromContext(ctx); ok {
		entry.OrgID = orgID
	}

	s.queue.Submit(ctx, func(taskCtx context.Context) {
		s.write(taskCtx, entry)
	})

	return domain.RecordResult{Diffs: diffs, Dispatched: true}, nil
}

func (s *Service) write(ctx context.Context, entry *domain.ChangeLog) {
	err := s.repo.Insert(ctx, s.db, entry)
	if err == nil {
		s.metrics.RecordChangeLog(ctx, string(entry.EntityKind), outcomeWritten)
		return
	}

	s.log.Warn("failed to write change log",
		zap.String("entity_kind", string(entry.EntityKind)),
		zap.String("entity_id", entry.EntityID.String()),
		zap.Error(err),
	)
	s.metrics.RecordChangeLog(ctx, string(entry.EntityKind), outcomeFailed)

	if s.errorLog == nil {
		return
	}
	if logErr := s.errorLog.Write(ctx, errorlogdomain.Entry{
		Transaction: transactionLogChanges,
		Table:       tableChangeLogs,
		Data:        entry,
		Err:         err,
	}); logErr != nil {
		s.log.Error("failed to record change log failure", zap.Error(logErr))
	}
}

func (s *Service) List(ctx context.Context, req domain.ListChangeLogRequest) (domain.ListChangeLogResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListChangeLogResponse{}, domain.ErrInvalidOrganization
	}

	var ref *domain.EntityRef
	if strings.TrimSpace(req.EntityKind) != "" || strings.TrimSpace(req.EntityID) != "" {
		kind, err := domain.ParseEntityKind(req.EntityKind)
		if err != nil {
			return domain.ListChangeLogResponse{}, err
		}
		id, err := snowflake.ParseString(strings.TrimSpace(req.EntityID))
		if err != nil || id == 0 {
			return domain.ListChangeLogResponse{}, domain.ErrInvalidEntityID
		}
		ref = &domain.EntityRef{Kind: kind, ID: id}
	}

	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListChangeLogResponse{}, domain.ErrInvalidPageToken
	}
	pageSize := req.Size()

	rows, err := s.repo.List(ctx, s.db, domain.ListFilter{
		OrgID:  orgID,
		Ref:    ref,
		Cursor: cursor,
		Limit:  pageSize,
	})
	if err != nil {
		return domain.ListChangeLogResponse{}, err
	}

	items, pageInfo := pagination.Paginate(rows, pageSize, func(item *domain.ChangeLog) pagination.Cursor {
		return pagination.Cursor{ID: item.ID, CreatedAt: item.CreatedAt}
	})

	logs := make([]domain.ChangeLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	return domain.ListChangeLogResponse{ChangeLogs: logs, PageInfo: pageInfo}, nil
}

func (s *Service) resolveActor(ctx context.Context, actorID *snowflake.ID) *snowflake.ID {
	if actorID != nil && *actorID != 0 {
		id := *actorID
		return &id
	}
	if id, ok := auditcontext.AccountIDFromContext(ctx); ok {
		return &id
	}
	return nil
}
