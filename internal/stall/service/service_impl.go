package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/collections/internal/auditcontext"
	"github.com/smallbiznis/collections/internal/cache"
	changelogdomain "github.com/smallbiznis/collections/internal/changelog/domain"
	"github.com/smallbiznis/collections/internal/clock"
	"github.com/smallbiznis/collections/internal/orgcontext"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/internal/stall/domain"
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
		log:       p.Log.Named("stall.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		changeLog: p.ChangeLog,
		lookup:    p.Lookup,
	}
}

// terms are the validated editable fields shared by create and update.
type terms struct {
	sectionID    snowflake.ID
	renterID     *snowflake.ID
	name         string
	rent         decimal.Decimal
	rentType     referencedomain.RentType
	occupancyFee decimal.Decimal
	renewal      string
}

func parseTerms(sectionID, renterID, name, rent, rentType, occupancyFee, renewal string) (terms, error) {
	var out terms

	out.name = strings.TrimSpace(name)
	if out.name == "" {
		return terms{}, domain.ErrInvalidName
	}

	id, err := parseRef(sectionID, domain.ErrInvalidSection)
	if err != nil {
		return terms{}, err
	}
	out.sectionID = id

	if strings.TrimSpace(renterID) != "" {
		id, err := parseRef(renterID, domain.ErrInvalidRenter)
		if err != nil {
			return terms{}, err
		}
		out.renterID = &id
	}

	out.rent, err = parsePositive(rent, domain.ErrInvalidRent)
	if err != nil {
		return terms{}, err
	}
	out.occupancyFee, err = parsePositive(occupancyFee, domain.ErrInvalidOccupancyFee)
	if err != nil {
		return terms{}, err
	}

	out.rentType, err = referencedomain.ParseRentType(rentType)
	if err != nil {
		return terms{}, err
	}

	out.renewal = strings.TrimSpace(renewal)
	return out, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateStallRequest) (domain.Stall, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Stall{}, domain.ErrInvalidOrganization
	}
	t, err := parseTerms(req.SectionID, req.RenterID, req.Name, req.Rent, req.RentType, req.OccupancyFee, req.OccupancyRenewalPeriod)
	if err != nil {
		return domain.Stall{}, err
	}

	now := s.clock.Now().UTC()
	stall := domain.Stall{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Status:    referencedomain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.apply(&stall)
	if actorID, ok := auditcontext.AccountIDFromContext(ctx); ok {
		stall.CreatedBy = &actorID
	}

	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		if err := s.validateRefs(ctx, tx, orgID, stall.ID, t); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, &stall)
	})
	if err != nil {
		return domain.Stall{}, err
	}

	s.invalidate(orgID)
	return stall, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.StallRow, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.StallRow{}, domain.ErrInvalidOrganization
	}
	stallID, err := parseRef(id, domain.ErrInvalidID)
	if err != nil {
		return domain.StallRow{}, err
	}

	row, err := s.repo.FindRow(ctx, s.db, orgID, stallID)
	if err != nil {
		return domain.StallRow{}, err
	}
	if row == nil {
		return domain.StallRow{}, domain.ErrNotFound
	}
	return *row, nil
}

func (s *Service) List(ctx context.Context, req domain.ListStallRequest) (domain.ListStallResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListStallResponse{}, domain.ErrInvalidOrganization
	}
	status, err := referencedomain.ParseStatus(req.Status)
	if err != nil {
		return domain.ListStallResponse{}, err
	}

	filter := domain.ListFilter{
		OrgID:  orgID,
		Status: status,
		Range:  req.Range.Normalize(),
	}
	if strings.TrimSpace(req.SectionID) != "" {
		id, err := parseRef(req.SectionID, domain.ErrInvalidSection)
		if err != nil {
			return domain.ListStallResponse{}, err
		}
		filter.SectionID = &id
	}
	if strings.TrimSpace(req.RenterID) != "" {
		id, err := parseRef(req.RenterID, domain.ErrInvalidRenter)
		if err != nil {
			return domain.ListStallResponse{}, err
		}
		filter.RenterID = &id
	}

	items, total, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListStallResponse{}, err
	}

	rows := make([]domain.StallRow, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rows = append(rows, *item)
	}
	return domain.ListStallResponse{
		RangePage: pagination.BuildRangePage(filter.Range, len(rows), total),
		Stalls:    rows,
	}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateStallRequest) (domain.Stall, error) {
	t, err := parseTerms(req.SectionID, req.RenterID, req.Name, req.Rent, req.RentType, req.OccupancyFee, req.OccupancyRenewalPeriod)
	if err != nil {
		return domain.Stall{}, err
	}
	return s.mutate(ctx, req.ID, func(tx *gorm.DB, stall *domain.Stall) error {
		if err := s.validateRefs(ctx, tx, stall.OrgID, stall.ID, t); err != nil {
			return err
		}
		t.apply(stall)
		return nil
	})
}

func (s *Service) SetStatus(ctx context.Context, id string, status referencedomain.Status) (domain.Stall, error) {
	if !status.Valid() {
		return domain.Stall{}, referencedomain.ErrInvalidStatus
	}
	return s.mutate(ctx, id, func(_ *gorm.DB, stall *domain.Stall) error {
		stall.Status = status
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id string, change func(*gorm.DB, *domain.Stall) error) (domain.Stall, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Stall{}, domain.ErrInvalidOrganization
	}
	stallID, err := parseRef(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Stall{}, err
	}

	var before, after domain.Stall
	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, orgID, stallID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		before = *current
		after = *current
		if err := change(tx, &after); err != nil {
			return err
		}
		after.UpdatedAt = s.clock.Now().UTC()
		return s.repo.Update(ctx, tx, &after)
	})
	if err != nil {
		return domain.Stall{}, err
	}

	_, err = s.changeLog.RecordChanges(ctx, changelogdomain.RecordRequest{
		New:      snapshot(after),
		Original: snapshot(before),
		Ref:      changelogdomain.EntityRef{Kind: changelogdomain.EntityStall, ID: after.ID},
	})
	if err != nil {
		s.log.Warn("failed to record stall changes", zap.String("stall_id", after.ID.String()), zap.Error(err))
	}
	s.invalidate(orgID)
	return after, nil
}

// validateRefs checks the section exists and the renter, if any, exists and
// does not already occupy another stall.
func (s *Service) validateRefs(ctx context.Context, tx *gorm.DB, orgID, stallID snowflake.ID, t terms) error {
	ok, err := s.repo.SectionExists(ctx, tx, orgID, t.sectionID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidSection
	}

	if t.renterID == nil {
		return nil
	}
	status, err := s.repo.RenterStatus(ctx, tx, orgID, *t.renterID)
	if err != nil {
		return err
	}
	if status == "" {
		return domain.ErrInvalidRenter
	}
	occupied, err := s.repo.OccupiedBy(ctx, tx, orgID, *t.renterID)
	if err != nil {
		return err
	}
	if occupied != nil && *occupied != stallID {
		return domain.ErrRenterOccupied
	}
	return nil
}

func (s *Service) invalidate(orgID snowflake.ID) {
	if s.lookup != nil {
		s.lookup.Invalidate(orgID)
	}
}

func (t terms) apply(stall *domain.Stall) {
	stall.SectionID = t.sectionID
	stall.RenterID = t.renterID
	stall.Name = t.name
	stall.Rent = t.rent
	stall.RentType = t.rentType
	stall.OccupancyFee = t.occupancyFee
	stall.OccupancyRenewalPeriod = t.renewal
}

func snapshot(stall domain.Stall) changelogdomain.Values {
	return changelogdomain.Values{
		{Name: "section_id", Value: stall.SectionID},
		{Name: "renter_id", Value: stall.RenterID},
		{Name: "name", Value: stall.Name},
		{Name: "rent", Value: stall.Rent},
		{Name: "rent_type", Value: stall.RentType},
		{Name: "occupancy_fee", Value: stall.OccupancyFee},
		{Name: "occupancy_renewal_period", Value: stall.OccupancyRenewalPeriod},
		{Name: "status", Value: stall.Status},
	}
}

func parsePositive(raw string, invalid error) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !value.IsPositive() {
		return decimal.Zero, invalid
	}
	return value.Round(2), nil
}

func parseRef(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
