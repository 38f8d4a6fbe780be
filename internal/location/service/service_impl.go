package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/smallbiznis/collections/internal/auditcontext"
	"github.com/smallbiznis/collections/internal/cache"
	changelogdomain "github.com/smallbiznis/collections/internal/changelog/domain"
	"github.com/smallbiznis/collections/internal/clock"
	"github.com/smallbiznis/collections/internal/location/domain"
	"github.com/smallbiznis/collections/internal/orgcontext"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
	"github.com/smallbiznis/collections/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	ChangeLog changelogdomain.Service
	Lookup    cache.Invalidator `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	changeLog changelogdomain.Service
	lookup    cache.Invalidator
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("location.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		changeLog: p.ChangeLog,
		lookup:    p.Lookup,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateLocationRequest) (domain.Location, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Location{}, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Location{}, domain.ErrInvalidName
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		return domain.Location{}, err
	}

	now := s.clock.Now().UTC()
	location := domain.Location{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Name:      name,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if actorID, ok := auditcontext.AccountIDFromContext(ctx); ok {
		location.CreatedBy = &actorID
	}

	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, &location)
	})
	if err != nil {
		return domain.Location{}, err
	}

	s.invalidate(orgID)
	return location, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.LocationRow, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.LocationRow{}, domain.ErrInvalidOrganization
	}
	locationID, err := parseID(id)
	if err != nil {
		return domain.LocationRow{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, locationID)
	if err != nil {
		return domain.LocationRow{}, err
	}
	if item == nil {
		return domain.LocationRow{}, domain.ErrNotFound
	}

	rows, err := s.withSections(ctx, orgID, []*domain.Location{item})
	if err != nil {
		return domain.LocationRow{}, err
	}
	return rows[0], nil
}

func (s *Service) List(ctx context.Context, req domain.ListLocationRequest) (domain.ListLocationResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListLocationResponse{}, domain.ErrInvalidOrganization
	}
	status, err := referencedomain.ParseStatus(req.Status)
	if err != nil {
		return domain.ListLocationResponse{}, err
	}

	page := req.Range.Normalize()
	items, total, err := s.repo.List(ctx, s.db, domain.ListFilter{
		OrgID:   orgID,
		Keyword: req.Keyword,
		Status:  status,
		Range:   page,
	})
	if err != nil {
		return domain.ListLocationResponse{}, err
	}

	rows, err := s.withSections(ctx, orgID, items)
	if err != nil {
		return domain.ListLocationResponse{}, err
	}

	return domain.ListLocationResponse{
		RangePage: pagination.BuildRangePage(page, len(rows), total),
		Locations: rows,
	}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateLocationRequest) (domain.Location, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Location{}, domain.ErrInvalidName
	}
	var status referencedomain.Status
	if strings.TrimSpace(req.Status) != "" {
		parsed, err := parseStatus(req.Status)
		if err != nil {
			return domain.Location{}, err
		}
		status = parsed
	}

	return s.mutate(ctx, req.ID, func(location *domain.Location) {
		location.Name = name
		if status != "" {
			location.Status = status
		}
	})
}

func (s *Service) SetStatus(ctx context.Context, id string, status referencedomain.Status) (domain.Location, error) {
	if !status.Valid() {
		return domain.Location{}, referencedomain.ErrInvalidStatus
	}
	return s.mutate(ctx, id, func(location *domain.Location) {
		location.Status = status
	})
}

// mutate loads the location, applies change and persists it, then records
// the field differences.
func (s *Service) mutate(ctx context.Context, id string, change func(*domain.Location)) (domain.Location, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Location{}, domain.ErrInvalidOrganization
	}
	locationID, err := parseID(id)
	if err != nil {
		return domain.Location{}, err
	}

	var before, after domain.Location
	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, orgID, locationID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		before = *current
		after = *current
		change(&after)
		after.UpdatedAt = s.clock.Now().UTC()
		return s.repo.Update(ctx, tx, &after)
	})
	if err != nil {
		return domain.Location{}, err
	}

	s.recordChanges(ctx, before, after)
	s.invalidate(orgID)
	return after, nil
}

func (s *Service) withSections(ctx context.Context, orgID snowflake.ID, items []*domain.Location) ([]domain.LocationRow, error) {
	ids := lo.Map(items, func(item *domain.Location, _ int) snowflake.ID { return item.ID })
	sections, err := s.repo.ListSections(ctx, s.db, orgID, ids)
	if err != nil {
		return nil, err
	}
	byLocation := lo.GroupBy(sections, func(section domain.SectionSummary) snowflake.ID {
		return section.LocationID
	})

	rows := make([]domain.LocationRow, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		children := byLocation[item.ID]
		if children == nil {
			children = []domain.SectionSummary{}
		}
		rows = append(rows, domain.LocationRow{Location: *item, Sections: children})
	}
	return rows, nil
}

func (s *Service) recordChanges(ctx context.Context, before, after domain.Location) {
	_, err := s.changeLog.RecordChanges(ctx, changelogdomain.RecordRequest{
		New:      snapshot(after),
		Original: snapshot(before),
		Ref:      changelogdomain.EntityRef{Kind: changelogdomain.EntityLocation, ID: after.ID},
	})
	if err != nil {
		s.log.Warn("failed to record location changes", zap.String("location_id", after.ID.String()), zap.Error(err))
	}
}

func (s *Service) invalidate(orgID snowflake.ID) {
	if s.lookup != nil {
		s.lookup.Invalidate(orgID)
	}
}

func snapshot(location domain.Location) changelogdomain.Values {
	return changelogdomain.Values{
		{Name: "name", Value: location.Name},
		{Name: "status", Value: location.Status},
	}
}

func parseStatus(raw string) (referencedomain.Status, error) {
	status, err := referencedomain.ParseStatus(raw)
	if err != nil {
		return "", err
	}
	if status == "" {
		return referencedomain.StatusActive, nil
	}
	return status, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
