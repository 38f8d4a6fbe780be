package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collections/internal/auditcontext"
	"github.com/smallbiznis/collections/internal/clock"
	"github.com/smallbiznis/collections/internal/config"
	"github.com/smallbiznis/collections/internal/errorlog/domain"
	"github.com/smallbiznis/collections/internal/observability/metrics"
	"github.com/smallbiznis/collections/internal/orgcontext"
	"github.com/smallbiznis/collections/pkg/async"
	"github.com/smallbiznis/collections/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	outcomeWritten = "written"
	outcomeFailed  = "failed"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Queue   *async.Queue
	Config  config.Config
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	queue   *async.Queue
	system  string
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("errorlog.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		queue:   p.Queue,
		system:  p.Config.SystemTag,
		metrics: p.Metrics,
	}
}

// Record builds the row synchronously so the caller's context values are
// captured, then inserts it on the async queue.
func (s *Service) Record(ctx context.Context, entry domain.Entry) {
	row := s.build(ctx, entry)
	if s.queue == nil {
		_ = s.insert(context.WithoutCancel(ctx), row)
		return
	}
	s.queue.Submit(ctx, func(taskCtx context.Context) {
		_ = s.insert(taskCtx, row)
	})
}

func (s *Service) Write(ctx context.Context, entry domain.Entry) error {
	if strings.TrimSpace(entry.Transaction) == "" {
		return domain.ErrInvalidTransaction
	}
	return s.insert(ctx, s.build(ctx, entry))
}

func (s *Service) List(ctx context.Context, req domain.ListErrorLogRequest) (domain.ListErrorLogResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListErrorLogResponse{}, domain.ErrInvalidOrganization
	}

	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListErrorLogResponse{}, domain.ErrInvalidPageToken
	}
	pageSize := req.Size()

	rows, err := s.repo.List(ctx, s.db, domain.ListFilter{
		OrgID:       orgID,
		Transaction: req.Transaction,
		Table:       req.Table,
		Cursor:      cursor,
		Limit:       pageSize,
	})
	if err != nil {
		return domain.ListErrorLogResponse{}, err
	}

	items, pageInfo := pagination.Paginate(rows, pageSize, func(item *domain.ErrorLog) pagination.Cursor {
		return pagination.Cursor{ID: item.ID, CreatedAt: item.CreatedAt}
	})

	logs := make([]domain.ErrorLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	return domain.ListErrorLogResponse{ErrorLogs: logs, PageInfo: pageInfo}, nil
}

func (s *Service) build(ctx context.Context, entry domain.Entry) *domain.ErrorLog {
	row := &domain.ErrorLog{
		ID:          s.genID.Generate(),
		System:      s.system,
		Transaction: strings.TrimSpace(entry.Transaction),
		Table:       strings.TrimSpace(entry.Table),
		Data:        encodePayload(entry.Data),
		RequestID:   auditcontext.RequestIDFromContext(ctx),
		CreatedAt:   s.clock.Now().UTC(),
	}
	if entry.Err != nil {
		row.Error = entry.Err.Error()
	}
	if orgID, ok := orgcontext.OrgIDFromContext(ctx); ok {
		row.OrgID = orgID
	}
	if actorID, ok := auditcontext.AccountIDFromContext(ctx); ok {
		row.ActorID = &actorID
	}
	return row
}

func (s *Service) insert(ctx context.Context, row *domain.ErrorLog) error {
	if err := s.repo.Insert(ctx, s.db, row); err != nil {
		s.log.Error("failed to write error log",
			zap.String("transaction", row.Transaction),
			zap.String("table", row.Table),
			zap.String("original_error", row.Error),
			zap.Error(err),
		)
		s.metrics.RecordErrorLog(ctx, row.Transaction, outcomeFailed)
		return err
	}
	s.metrics.RecordErrorLog(ctx, row.Transaction, outcomeWritten)
	return nil
}

func encodePayload(data any) datatypes.JSON {
	if data == nil {
		return nil
	}
	if raw, ok := data.(json.RawMessage); ok {
		return datatypes.JSON(raw)
	}
	b, err := json.Marshal(data)
	if err != nil {
		b, _ = json.Marshal(fmt.Sprint(data))
	}
	return datatypes.JSON(b)
}
