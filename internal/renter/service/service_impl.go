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
	"github.com/smallbiznis/collections/internal/orgcontext"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/internal/renter/domain"
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
		log:       p.Log.Named("renter.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		changeLog: p.ChangeLog,
		lookup:    p.Lookup,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRenterRequest) (domain.RenterRow, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.RenterRow{}, domain.ErrInvalidOrganization
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.RenterRow{}, domain.ErrInvalidName
	}
	stallID, err := parseOptionalRef(req.StallID, domain.ErrInvalidStall)
	if err != nil {
		return domain.RenterRow{}, err
	}

	now := s.clock.Now().UTC()
	renter := domain.Renter{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Name:      name,
		Status:    referencedomain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if actorID, ok := auditcontext.AccountIDFromContext(ctx); ok {
		renter.CreatedBy = &actorID
	}

	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &renter); err != nil {
			return err
		}
		if stallID == nil {
			return nil
		}
		return s.assign(ctx, tx, orgID, renter.ID, stallID)
	})
	if err != nil {
		return domain.RenterRow{}, err
	}

	s.invalidate(orgID)
	return s.load(ctx, orgID, renter.ID)
}

func (s *Service) Get(ctx context.Context, id string) (domain.RenterRow, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.RenterRow{}, domain.ErrInvalidOrganization
	}
	renterID, err := parseRef(id, domain.ErrInvalidID)
	if err != nil {
		return domain.RenterRow{}, err
	}
	return s.load(ctx, orgID, renterID)
}

func (s *Service) List(ctx context.Context, req domain.ListRenterRequest) (domain.ListRenterResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListRenterResponse{}, domain.ErrInvalidOrganization
	}
	status, err := referencedomain.ParseStatus(req.Status)
	if err != nil {
		return domain.ListRenterResponse{}, err
	}

	filter := domain.ListFilter{
		OrgID:   orgID,
		Keyword: req.Keyword,
		Status:  status,
		Range:   req.Range.Normalize(),
	}
	if filter.ID, err = parseOptionalRef(req.ID, domain.ErrInvalidID); err != nil {
		return domain.ListRenterResponse{}, err
	}
	if filter.SectionID, err = parseOptionalRef(req.SectionID, domain.ErrInvalidSection); err != nil {
		return domain.ListRenterResponse{}, err
	}

	items, total, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListRenterResponse{}, err
	}
	rows, err := s.withStalls(ctx, s.db, orgID, items)
	if err != nil {
		return domain.ListRenterResponse{}, err
	}

	return domain.ListRenterResponse{
		RangePage: pagination.BuildRangePage(filter.Range, len(rows), total),
		Renters:   rows,
	}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRenterRequest) (domain.RenterRow, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.RenterRow{}, domain.ErrInvalidOrganization
	}
	renterID, err := parseRef(req.ID, domain.ErrInvalidID)
	if err != nil {
		return domain.RenterRow{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.RenterRow{}, domain.ErrInvalidName
	}
	stallID, err := parseOptionalRef(req.StallID, domain.ErrInvalidStall)
	if err != nil {
		return domain.RenterRow{}, err
	}

	var before, after domain.RenterRow
	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, orgID, renterID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		rows, err := s.withStalls(ctx, tx, orgID, []*domain.Renter{current})
		if err != nil {
			return err
		}
		before = rows[0]

		updated := *current
		updated.Name = name
		updated.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.Update(ctx, tx, &updated); err != nil {
			return err
		}
		if !sameStall(stallOf(before), stallID) {
			if err := s.assign(ctx, tx, orgID, renterID, stallID); err != nil {
				return err
			}
		}

		rows, err = s.withStalls(ctx, tx, orgID, []*domain.Renter{&updated})
		if err != nil {
			return err
		}
		after = rows[0]
		return nil
	})
	if err != nil {
		return domain.RenterRow{}, err
	}

	s.recordChanges(ctx, before, after)
	s.invalidate(orgID)
	return after, nil
}

func (s *Service) SetStatus(ctx context.Context, id string, status referencedomain.Status) (domain.Renter, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Renter{}, domain.ErrInvalidOrganization
	}
	if !status.Valid() {
		return domain.Renter{}, referencedomain.ErrInvalidStatus
	}
	renterID, err := parseRef(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Renter{}, err
	}

	var before, after domain.RenterRow
	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, orgID, renterID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		rows, err := s.withStalls(ctx, tx, orgID, []*domain.Renter{current})
		if err != nil {
			return err
		}
		before = rows[0]
		after = rows[0]
		after.Status = status
		after.UpdatedAt = s.clock.Now().UTC()
		return s.repo.Update(ctx, tx, &after.Renter)
	})
	if err != nil {
		return domain.Renter{}, err
	}

	s.recordChanges(ctx, before, after)
	s.invalidate(orgID)
	return after.Renter, nil
}

func (s *Service) load(ctx context.Context, orgID, renterID snowflake.ID) (domain.RenterRow, error) {
	item, err := s.repo.FindByID(ctx, s.db, orgID, renterID)
	if err != nil {
		return domain.RenterRow{}, err
	}
	if item == nil {
		return domain.RenterRow{}, domain.ErrNotFound
	}
	rows, err := s.withStalls(ctx, s.db, orgID, []*domain.Renter{item})
	if err != nil {
		return domain.RenterRow{}, err
	}
	return rows[0], nil
}

func (s *Service) assign(ctx context.Context, tx *gorm.DB, orgID, renterID snowflake.ID, stallID *snowflake.ID) error {
	if stallID != nil {
		exists, occupant, err := s.repo.StallOccupant(ctx, tx, orgID, *stallID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrInvalidStall
		}
		if occupant != nil && *occupant != renterID {
			return domain.ErrStallOccupied
		}
	}
	return s.repo.AssignStall(ctx, tx, orgID, renterID, stallID)
}

func (s *Service) withStalls(ctx context.Context, db *gorm.DB, orgID snowflake.ID, items []*domain.Renter) ([]domain.RenterRow, error) {
	ids := lo.Map(items, func(item *domain.Renter, _ int) snowflake.ID { return item.ID })
	stalls, err := s.repo.OccupiedStalls(ctx, db, orgID, ids)
	if err != nil {
		return nil, err
	}
	byRenter := lo.SliceToMap(stalls, func(stall domain.OccupiedStall) (snowflake.ID, domain.OccupiedStall) {
		return stall.RenterID, stall
	})

	rows := make([]domain.RenterRow, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		row := domain.RenterRow{Renter: *item}
		if stall, ok := byRenter[item.ID]; ok {
			row.Stall = &stall
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Service) recordChanges(ctx context.Context, before, after domain.RenterRow) {
	_, err := s.changeLog.RecordChanges(ctx, changelogdomain.RecordRequest{
		New:      snapshot(after),
		Original: snapshot(before),
		Ref:      changelogdomain.EntityRef{Kind: changelogdomain.EntityRenter, ID: after.ID},
	})
	if err != nil {
		s.log.Warn("failed to record renter changes", zap.String("renter_id", after.ID.String()), zap.Error(err))
	}
}

func (s *Service) invalidate(orgID snowflake.ID) {
	if s.lookup != nil {
		s.lookup.Invalidate(orgID)
	}
}

func snapshot(row domain.RenterRow) changelogdomain.Values {
	return changelogdomain.Values{
		{Name: "name", Value: row.Name},
		{Name: "status", Value: row.Status},
		{Name: "stall_id", Value: stallOf(row)},
	}
}

func stallOf(row domain.RenterRow) *snowflake.ID {
	if row.Stall == nil {
		return nil
	}
	id := row.Stall.ID
	return &id
}

func sameStall(a, b *snowflake.ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func parseOptionalRef(value string, invalid error) (*snowflake.ID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	id, err := parseRef(value, invalid)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseRef(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
