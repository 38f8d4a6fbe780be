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
	"github.com/smallbiznis/collections/internal/section/domain"
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
		log:       p.Log.Named("section.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		changeLog: p.ChangeLog,
		lookup:    p.Lookup,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateSectionRequest) (domain.Section, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Section{}, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Section{}, domain.ErrInvalidName
	}
	locationID, err := parseRef(req.LocationID, domain.ErrInvalidLocation)
	if err != nil {
		return domain.Section{}, err
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		return domain.Section{}, err
	}

	now := s.clock.Now().UTC()
	section := domain.Section{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		LocationID: locationID,
		Name:       name,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if actorID, ok := auditcontext.AccountIDFromContext(ctx); ok {
		section.CreatedBy = &actorID
	}

	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		if err := s.ensureLocation(ctx, tx, orgID, locationID); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, &section)
	})
	if err != nil {
		return domain.Section{}, err
	}

	s.invalidate(orgID)
	return section, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.SectionRow, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.SectionRow{}, domain.ErrInvalidOrganization
	}
	sectionID, err := parseRef(id, domain.ErrInvalidID)
	if err != nil {
		return domain.SectionRow{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, sectionID)
	if err != nil {
		return domain.SectionRow{}, err
	}
	if item == nil {
		return domain.SectionRow{}, domain.ErrNotFound
	}

	rows, err := s.withLocations(ctx, orgID, []*domain.Section{item})
	if err != nil {
		return domain.SectionRow{}, err
	}
	return rows[0], nil
}

func (s *Service) List(ctx context.Context, req domain.ListSectionRequest) (domain.ListSectionResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListSectionResponse{}, domain.ErrInvalidOrganization
	}
	status, err := referencedomain.ParseStatus(req.Status)
	if err != nil {
		return domain.ListSectionResponse{}, err
	}

	filter := domain.ListFilter{
		OrgID:   orgID,
		Keyword: req.Keyword,
		Status:  status,
		Range:   req.Range.Normalize(),
	}
	if strings.TrimSpace(req.LocationID) != "" {
		locationID, err := parseRef(req.LocationID, domain.ErrInvalidLocation)
		if err != nil {
			return domain.ListSectionResponse{}, err
		}
		filter.LocationID = &locationID
	}

	items, total, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListSectionResponse{}, err
	}
	rows, err := s.withLocations(ctx, orgID, items)
	if err != nil {
		return domain.ListSectionResponse{}, err
	}

	return domain.ListSectionResponse{
		RangePage: pagination.BuildRangePage(filter.Range, len(rows), total),
		Sections:  rows,
	}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateSectionRequest) (domain.Section, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Section{}, domain.ErrInvalidName
	}
	var locationID snowflake.ID
	if strings.TrimSpace(req.LocationID) != "" {
		parsed, err := parseRef(req.LocationID, domain.ErrInvalidLocation)
		if err != nil {
			return domain.Section{}, err
		}
		locationID = parsed
	}
	var status referencedomain.Status
	if strings.TrimSpace(req.Status) != "" {
		parsed, err := parseStatus(req.Status)
		if err != nil {
			return domain.Section{}, err
		}
		status = parsed
	}

	return s.mutate(ctx, req.ID, func(tx *gorm.DB, section *domain.Section) error {
		if locationID != 0 && locationID != section.LocationID {
			if err := s.ensureLocation(ctx, tx, section.OrgID, locationID); err != nil {
				return err
			}
			section.LocationID = locationID
		}
		section.Name = name
		if status != "" {
			section.Status = status
		}
		return nil
	})
}

func (s *Service) SetStatus(ctx context.Context, id string, status referencedomain.Status) (domain.Section, error) {
	if !status.Valid() {
		return domain.Section{}, referencedomain.ErrInvalidStatus
	}
	return s.mutate(ctx, id, func(_ *gorm.DB, section *domain.Section) error {
		section.Status = status
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id string, change func(*gorm.DB, *domain.Section) error) (domain.Section, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Section{}, domain.ErrInvalidOrganization
	}
	sectionID, err := parseRef(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Section{}, err
	}

	var before, after domain.Section
	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, orgID, sectionID)
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
		return domain.Section{}, err
	}

	_, err = s.changeLog.RecordChanges(ctx, changelogdomain.RecordRequest{
		New:      snapshot(after),
		Original: snapshot(before),
		Ref:      changelogdomain.EntityRef{Kind: changelogdomain.EntitySection, ID: after.ID},
	})
	if err != nil {
		s.log.Warn("failed to record section changes", zap.String("section_id", after.ID.String()), zap.Error(err))
	}
	s.invalidate(orgID)
	return after, nil
}

func (s *Service) ensureLocation(ctx context.Context, tx *gorm.DB, orgID, locationID snowflake.ID) error {
	names, err := s.repo.LocationNames(ctx, tx, orgID, []snowflake.ID{locationID})
	if err != nil {
		return err
	}
	if _, ok := names[locationID]; !ok {
		return domain.ErrInvalidLocation
	}
	return nil
}

func (s *Service) withLocations(ctx context.Context, orgID snowflake.ID, items []*domain.Section) ([]domain.SectionRow, error) {
	ids := lo.Uniq(lo.Map(items, func(item *domain.Section, _ int) snowflake.ID { return item.LocationID }))
	names, err := s.repo.LocationNames(ctx, s.db, orgID, ids)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.SectionRow, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rows = append(rows, domain.SectionRow{Section: *item, LocationName: names[item.LocationID]})
	}
	return rows, nil
}

func (s *Service) invalidate(orgID snowflake.ID) {
	if s.lookup != nil {
		s.lookup.Invalidate(orgID)
	}
}

func snapshot(section domain.Section) changelogdomain.Values {
	return changelogdomain.Values{
		{Name: "location_id", Value: section.LocationID},
		{Name: "name", Value: section.Name},
		{Name: "status", Value: section.Status},
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

func parseRef(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
