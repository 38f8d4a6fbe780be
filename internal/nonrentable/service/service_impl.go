package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/smallbiznis/collections/internal/auditcontext"
	changelogdomain "github.com/smallbiznis/collections/internal/changelog/domain"
	"github.com/smallbiznis/collections/internal/clock"
	"github.com/smallbiznis/collections/internal/nonrentable/domain"
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
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	changeLog changelogdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("nonrentable.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		changeLog: p.ChangeLog,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateNonrentableRequest) (domain.Nonrentable, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Nonrentable{}, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Nonrentable{}, domain.ErrInvalidName
	}
	sectionID, err := parseRef(req.SectionID, domain.ErrInvalidSection)
	if err != nil {
		return domain.Nonrentable{}, err
	}
	status := referencedomain.StatusActive
	if strings.TrimSpace(req.Status) != "" {
		if status, err = referencedomain.ParseStatus(req.Status); err != nil || status == "" {
			return domain.Nonrentable{}, referencedomain.ErrInvalidStatus
		}
	}

	now := s.clock.Now().UTC()
	item := domain.Nonrentable{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		SectionID: sectionID,
		Name:      name,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if actorID, ok := auditcontext.AccountIDFromContext(ctx); ok {
		item.CreatedBy = &actorID
	}

	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		if err := s.ensureSection(ctx, tx, orgID, sectionID); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, &item)
	})
	if err != nil {
		return domain.Nonrentable{}, err
	}
	return item, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.NonrentableRow, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.NonrentableRow{}, domain.ErrInvalidOrganization
	}
	itemID, err := parseRef(id, domain.ErrInvalidID)
	if err != nil {
		return domain.NonrentableRow{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, itemID)
	if err != nil {
		return domain.NonrentableRow{}, err
	}
	if item == nil {
		return domain.NonrentableRow{}, domain.ErrNotFound
	}
	rows, err := s.withSections(ctx, orgID, []*domain.Nonrentable{item})
	if err != nil {
		return domain.NonrentableRow{}, err
	}
	return rows[0], nil
}

func (s *Service) List(ctx context.Context, req domain.ListNonrentableRequest) (domain.ListNonrentableResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListNonrentableResponse{}, domain.ErrInvalidOrganization
	}
	status, err := referencedomain.ParseStatus(req.Status)
	if err != nil {
		return domain.ListNonrentableResponse{}, err
	}

	filter := domain.ListFilter{
		OrgID:  orgID,
		Status: status,
		Range:  req.Range.Normalize(),
	}
	if strings.TrimSpace(req.SectionID) != "" {
		sectionID, err := parseRef(req.SectionID, domain.ErrInvalidSection)
		if err != nil {
			return domain.ListNonrentableResponse{}, err
		}
		filter.SectionID = &sectionID
	}

	items, total, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListNonrentableResponse{}, err
	}
	rows, err := s.withSections(ctx, orgID, items)
	if err != nil {
		return domain.ListNonrentableResponse{}, err
	}

	return domain.ListNonrentableResponse{
		RangePage:    pagination.BuildRangePage(filter.Range, len(rows), total),
		Nonrentables: rows,
	}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateNonrentableRequest) (domain.Nonrentable, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Nonrentable{}, domain.ErrInvalidName
	}
	var sectionID snowflake.ID
	if strings.TrimSpace(req.SectionID) != "" {
		parsed, err := parseRef(req.SectionID, domain.ErrInvalidSection)
		if err != nil {
			return domain.Nonrentable{}, err
		}
		sectionID = parsed
	}
	var status referencedomain.Status
	if strings.TrimSpace(req.Status) != "" {
		parsed, err := referencedomain.ParseStatus(req.Status)
		if err != nil || parsed == "" {
			return domain.Nonrentable{}, referencedomain.ErrInvalidStatus
		}
		status = parsed
	}

	return s.mutate(ctx, req.ID, func(tx *gorm.DB, item *domain.Nonrentable) error {
		if sectionID != 0 && sectionID != item.SectionID {
			if err := s.ensureSection(ctx, tx, item.OrgID, sectionID); err != nil {
				return err
			}
			item.SectionID = sectionID
		}
		item.Name = name
		if status != "" {
			item.Status = status
		}
		return nil
	})
}

func (s *Service) SetStatus(ctx context.Context, id string, status referencedomain.Status) (domain.Nonrentable, error) {
	if !status.Valid() {
		return domain.Nonrentable{}, referencedomain.ErrInvalidStatus
	}
	return s.mutate(ctx, id, func(_ *gorm.DB, item *domain.Nonrentable) error {
		item.Status = status
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id string, change func(*gorm.DB, *domain.Nonrentable) error) (domain.Nonrentable, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Nonrentable{}, domain.ErrInvalidOrganization
	}
	itemID, err := parseRef(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Nonrentable{}, err
	}

	var before, after domain.Nonrentable
	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, orgID, itemID)
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
		return domain.Nonrentable{}, err
	}

	_, err = s.changeLog.RecordChanges(ctx, changelogdomain.RecordRequest{
		New:      snapshot(after),
		Original: snapshot(before),
		Ref:      changelogdomain.EntityRef{Kind: changelogdomain.EntityNonrentable, ID: after.ID},
	})
	if err != nil {
		s.log.Warn("failed to record nonrentable changes", zap.String("nonrentable_id", after.ID.String()), zap.Error(err))
	}
	return after, nil
}

func (s *Service) ensureSection(ctx context.Context, tx *gorm.DB, orgID, sectionID snowflake.ID) error {
	names, err := s.repo.SectionNames(ctx, tx, orgID, []snowflake.ID{sectionID})
	if err != nil {
		return err
	}
	if _, ok := names[sectionID]; !ok {
		return domain.ErrInvalidSection
	}
	return nil
}

func (s *Service) withSections(ctx context.Context, orgID snowflake.ID, items []*domain.Nonrentable) ([]domain.NonrentableRow, error) {
	ids := lo.Uniq(lo.Map(items, func(item *domain.Nonrentable, _ int) snowflake.ID { return item.SectionID }))
	names, err := s.repo.SectionNames(ctx, s.db, orgID, ids)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.NonrentableRow, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rows = append(rows, domain.NonrentableRow{Nonrentable: *item, SectionName: names[item.SectionID]})
	}
	return rows, nil
}

func snapshot(item domain.Nonrentable) changelogdomain.Values {
	return changelogdomain.Values{
		{Name: "section_id", Value: item.SectionID},
		{Name: "name", Value: item.Name},
		{Name: "status", Value: item.Status},
	}
}

func parseRef(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
