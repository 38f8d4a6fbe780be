package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/smallbiznis/collections/internal/account/domain"
	"github.com/smallbiznis/collections/internal/auditcontext"
	changelogdomain "github.com/smallbiznis/collections/internal/changelog/domain"
	"github.com/smallbiznis/collections/internal/clock"
	"github.com/smallbiznis/collections/internal/config"
	"github.com/smallbiznis/collections/internal/orgcontext"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	dbpkg "github.com/smallbiznis/collections/pkg/db"
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
	Config    config.Config
	Repo      domain.Repository
	ChangeLog changelogdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	cfg       config.Config
	repo      domain.Repository
	changeLog changelogdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("account.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		cfg:       p.Config,
		repo:      p.Repo,
		changeLog: p.ChangeLog,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAccountRequest) (domain.AccountRow, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.AccountRow{}, domain.ErrInvalidOrganization
	}
	names, err := parseNames(req.FirstName, req.MiddleName, req.LastName)
	if err != nil {
		return domain.AccountRow{}, err
	}
	email, err := parseEmail(req.Email)
	if err != nil {
		return domain.AccountRow{}, err
	}

	now := s.clock.Now().UTC()
	account := domain.Account{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		FirstName:  names[0],
		MiddleName: names[1],
		LastName:   names[2],
		Email:      email,
		Status:     referencedomain.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	actorID, hasActor := auditcontext.AccountIDFromContext(ctx)
	if hasActor {
		account.CreatedBy = &actorID
	}

	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		existing, err := s.repo.FindByEmail(ctx, tx, orgID, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrEmailTaken
		}
		if err := s.repo.Insert(ctx, tx, &account); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrEmailTaken
			}
			return err
		}
		if !req.GrantAccess {
			return nil
		}
		access := s.newAccess(orgID, account.ID, now)
		if hasActor {
			access.CreatedBy = &actorID
		}
		return s.repo.InsertAccess(ctx, tx, &access)
	})
	if err != nil {
		return domain.AccountRow{}, err
	}

	return domain.AccountRow{Account: account, HasAccess: req.GrantAccess}, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.AccountRow, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.AccountRow{}, domain.ErrInvalidOrganization
	}
	accountID, err := parseID(id)
	if err != nil {
		return domain.AccountRow{}, err
	}
	return s.Lookup(ctx, orgID, accountID)
}

func (s *Service) Lookup(ctx context.Context, orgID, id snowflake.ID) (domain.AccountRow, error) {
	account, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.AccountRow{}, err
	}
	if account == nil {
		return domain.AccountRow{}, domain.ErrNotFound
	}
	rows, err := s.withAccess(ctx, s.db, orgID, []*domain.Account{account})
	if err != nil {
		return domain.AccountRow{}, err
	}
	return rows[0], nil
}

func (s *Service) List(ctx context.Context, req domain.ListAccountRequest) (domain.ListAccountResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListAccountResponse{}, domain.ErrInvalidOrganization
	}
	status, err := referencedomain.ParseStatus(req.Status)
	if err != nil {
		return domain.ListAccountResponse{}, err
	}

	filter := domain.ListFilter{
		OrgID:         orgID,
		Keyword:       req.Keyword,
		Status:        status,
		ExcludeEmails: s.cfg.SuperAdminEmails,
		Range:         req.Range.Normalize(),
	}
	if strings.TrimSpace(req.ID) != "" {
		accountID, err := parseID(req.ID)
		if err != nil {
			return domain.ListAccountResponse{}, err
		}
		filter.ID = &accountID
	}

	items, total, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListAccountResponse{}, err
	}
	rows, err := s.withAccess(ctx, s.db, orgID, items)
	if err != nil {
		return domain.ListAccountResponse{}, err
	}

	return domain.ListAccountResponse{
		RangePage: pagination.BuildRangePage(filter.Range, len(rows), total),
		Accounts:  rows,
	}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateAccountRequest) (domain.AccountRow, error) {
	names, err := parseNames(req.FirstName, req.MiddleName, req.LastName)
	if err != nil {
		return domain.AccountRow{}, err
	}
	email, err := parseEmail(req.Email)
	if err != nil {
		return domain.AccountRow{}, err
	}

	return s.mutate(ctx, req.ID, func(tx *gorm.DB, account *domain.Account, _ *bool) error {
		if !strings.EqualFold(account.Email, email) {
			existing, err := s.repo.FindByEmail(ctx, tx, account.OrgID, email)
			if err != nil {
				return err
			}
			if existing != nil && existing.ID != account.ID {
				return domain.ErrEmailTaken
			}
		}
		account.FirstName = names[0]
		account.MiddleName = names[1]
		account.LastName = names[2]
		account.Email = email
		return nil
	})
}

func (s *Service) SetStatus(ctx context.Context, id string, status referencedomain.Status) (domain.AccountRow, error) {
	if !status.Valid() {
		return domain.AccountRow{}, referencedomain.ErrInvalidStatus
	}
	return s.mutate(ctx, id, func(_ *gorm.DB, account *domain.Account, _ *bool) error {
		account.Status = status
		return nil
	})
}

func (s *Service) GrantAccess(ctx context.Context, id string) (domain.AccountRow, error) {
	return s.mutate(ctx, id, func(tx *gorm.DB, account *domain.Account, hasAccess *bool) error {
		if *hasAccess {
			return nil
		}
		access := s.newAccess(account.OrgID, account.ID, s.clock.Now().UTC())
		if actorID, ok := auditcontext.AccountIDFromContext(ctx); ok {
			access.CreatedBy = &actorID
		}
		if err := s.repo.InsertAccess(ctx, tx, &access); err != nil && !dbpkg.IsDuplicateKeyErr(err) {
			return err
		}
		*hasAccess = true
		return nil
	})
}

func (s *Service) RevokeAccess(ctx context.Context, id string) (domain.AccountRow, error) {
	return s.mutate(ctx, id, func(tx *gorm.DB, account *domain.Account, hasAccess *bool) error {
		if !*hasAccess {
			return nil
		}
		if _, err := s.repo.DeleteAccess(ctx, tx, account.OrgID, account.ID, s.cfg.SystemTag); err != nil {
			return err
		}
		*hasAccess = false
		return nil
	})
}

// mutate loads the account and its access flag, applies change and persists
// both, then records the field differences.
func (s *Service) mutate(ctx context.Context, id string, change func(tx *gorm.DB, account *domain.Account, hasAccess *bool) error) (domain.AccountRow, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.AccountRow{}, domain.ErrInvalidOrganization
	}
	accountID, err := parseID(id)
	if err != nil {
		return domain.AccountRow{}, err
	}

	var before, after domain.AccountRow
	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, orgID, accountID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		rows, err := s.withAccess(ctx, tx, orgID, []*domain.Account{current})
		if err != nil {
			return err
		}
		before = rows[0]
		after = rows[0]
		if err := change(tx, &after.Account, &after.HasAccess); err != nil {
			return err
		}
		after.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.Update(ctx, tx, &after.Account); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.AccountRow{}, err
	}

	s.recordChanges(ctx, before, after)
	return after, nil
}

func (s *Service) withAccess(ctx context.Context, db *gorm.DB, orgID snowflake.ID, items []*domain.Account) ([]domain.AccountRow, error) {
	ids := lo.Map(items, func(item *domain.Account, _ int) snowflake.ID { return item.ID })
	holders, err := s.repo.AccessHolders(ctx, db, orgID, s.cfg.SystemTag, ids)
	if err != nil {
		return nil, err
	}
	granted := lo.SliceToMap(holders, func(id snowflake.ID) (snowflake.ID, struct{}) { return id, struct{}{} })

	rows := make([]domain.AccountRow, 0, len(items))
	for _, item := range items {
		_, ok := granted[item.ID]
		rows = append(rows, domain.AccountRow{Account: *item, HasAccess: ok})
	}
	return rows, nil
}

func (s *Service) newAccess(orgID, accountID snowflake.ID, now time.Time) domain.SystemAccess {
	return domain.SystemAccess{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		AccountID: accountID,
		Type:      s.cfg.SystemTag,
		CreatedAt: now,
	}
}

func (s *Service) recordChanges(ctx context.Context, before, after domain.AccountRow) {
	_, err := s.changeLog.RecordChanges(ctx, changelogdomain.RecordRequest{
		New:      snapshot(after),
		Original: snapshot(before),
		Ref:      changelogdomain.EntityRef{Kind: changelogdomain.EntityAccount, ID: after.ID},
	})
	if err != nil {
		s.log.Warn("failed to record account changes", zap.String("account_id", after.ID.String()), zap.Error(err))
	}
}

func snapshot(row domain.AccountRow) changelogdomain.Values {
	return changelogdomain.Values{
		{Name: "firstname", Value: row.FirstName},
		{Name: "middlename", Value: row.MiddleName},
		{Name: "lastname", Value: row.LastName},
		{Name: "email", Value: row.Email},
		{Name: "status", Value: row.Status},
		{Name: "system_access", Value: row.HasAccess},
	}
}

func parseNames(first, middle, last string) ([3]string, error) {
	names := [3]string{strings.TrimSpace(first), strings.TrimSpace(middle), strings.TrimSpace(last)}
	if names[0] == "" {
		return names, domain.ErrInvalidFirstName
	}
	if names[2] == "" {
		return names, domain.ErrInvalidLastName
	}
	return names, nil
}

func parseEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", domain.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
