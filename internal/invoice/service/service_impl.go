package service

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/collections/internal/auditcontext"
	changelogdomain "github.com/smallbiznis/collections/internal/changelog/domain"
	"github.com/smallbiznis/collections/internal/clock"
	"github.com/smallbiznis/collections/internal/config"
	"github.com/smallbiznis/collections/internal/invoice/domain"
	"github.com/smallbiznis/collections/internal/observability/metrics"
	"github.com/smallbiznis/collections/internal/orgcontext"
	"github.com/smallbiznis/collections/pkg/db/pagination"
	"github.com/smallbiznis/collections/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	dateLayout          = "2006-01-02"
	statementPageSize   = 100
	defaultNumberDigits = 5
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	ChangeLog changelogdomain.Service
	Invoicing *config.InvoicingConfigHolder `optional:"true"`
	Metrics   *metrics.Metrics              `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	changeLog changelogdomain.Service
	invoicing *config.InvoicingConfigHolder
	metrics   *metrics.Metrics
	number    func(digits int) string
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invoice.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		changeLog: p.ChangeLog,
		invoicing: p.Invoicing,
		metrics:   p.Metrics,
		number:    randomNumber,
	}
}

type terms struct {
	renterID    snowflake.ID
	invoiceType string
	invoiceDate time.Time
	dueDate     time.Time
	amount      decimal.Decimal
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.InvoiceRow, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.InvoiceRow{}, domain.ErrInvalidOrganization
	}
	t, err := parseTerms(req)
	if err != nil {
		return domain.InvoiceRow{}, err
	}

	now := s.clock.Now().UTC()
	invoice := domain.Invoice{
		ID:            s.genID.Generate(),
		OrgID:         orgID,
		RenterID:      t.renterID,
		Type:          t.invoiceType,
		InvoiceDate:   t.invoiceDate,
		DueDate:       t.dueDate,
		InvoiceNumber: s.number(s.invoicing.Get().InvoiceNumberDigits),
		Amount:        t.amount,
		Generated:     false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if actorID, ok := auditcontext.AccountIDFromContext(ctx); ok {
		invoice.CreatedBy = &actorID
	}

	var renterName string
	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		renter, err := s.repo.FindRenter(ctx, tx, orgID, t.renterID)
		if err != nil {
			return err
		}
		if renter == nil {
			return domain.ErrInvalidRenter
		}
		renterName = renter.Name
		return s.repo.Insert(ctx, tx, &invoice)
	})
	if err != nil {
		return domain.InvoiceRow{}, err
	}

	s.metrics.RecordManualInvoice(ctx, orgID.String())
	return domain.InvoiceRow{Invoice: invoice, RenterName: renterName}, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.InvoiceRow, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.InvoiceRow{}, domain.ErrInvalidOrganization
	}
	invoiceID, err := parseRef(id, domain.ErrInvalidID)
	if err != nil {
		return domain.InvoiceRow{}, err
	}

	row, err := s.repo.FindRow(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return domain.InvoiceRow{}, err
	}
	if row == nil {
		return domain.InvoiceRow{}, domain.ErrNotFound
	}
	return *row, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListInvoiceResponse{}, domain.ErrInvalidOrganization
	}

	filter := domain.ListFilter{OrgID: orgID, Range: req.Range.Normalize()}
	if strings.TrimSpace(req.RenterID) != "" {
		renterID, err := parseRef(req.RenterID, domain.ErrInvalidRenter)
		if err != nil {
			return domain.ListInvoiceResponse{}, err
		}
		filter.RenterID = &renterID
	}

	rows, total, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}
	return domain.ListInvoiceResponse{
		RangePage: pagination.BuildRangePage(filter.Range, len(rows), total),
		Invoices:  rows,
	}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateInvoiceRequest) (domain.InvoiceRow, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.InvoiceRow{}, domain.ErrInvalidOrganization
	}
	invoiceID, err := parseRef(req.ID, domain.ErrInvalidID)
	if err != nil {
		return domain.InvoiceRow{}, err
	}
	t, err := parseTerms(req.CreateInvoiceRequest)
	if err != nil {
		return domain.InvoiceRow{}, err
	}

	var before, after domain.Invoice
	var renterName string
	err = rls.Transaction(ctx, s.db, orgID, func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, orgID, invoiceID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		renter, err := s.repo.FindRenter(ctx, tx, orgID, t.renterID)
		if err != nil {
			return err
		}
		if renter == nil {
			return domain.ErrInvalidRenter
		}
		renterName = renter.Name

		before = *current
		after = *current
		after.RenterID = t.renterID
		after.Type = t.invoiceType
		after.InvoiceDate = t.invoiceDate
		after.DueDate = t.dueDate
		after.Amount = t.amount
		after.UpdatedAt = s.clock.Now().UTC()
		return s.repo.Update(ctx, tx, &after)
	})
	if err != nil {
		return domain.InvoiceRow{}, err
	}

	_, err = s.changeLog.RecordChanges(ctx, changelogdomain.RecordRequest{
		New:      snapshot(after),
		Original: snapshot(before),
		Ref:      changelogdomain.EntityRef{Kind: changelogdomain.EntityInvoice, ID: after.ID},
	})
	if err != nil {
		s.log.Warn("failed to record invoice changes", zap.String("invoice_id", after.ID.String()), zap.Error(err))
	}
	return domain.InvoiceRow{Invoice: after, RenterName: renterName}, nil
}

func (s *Service) ListGenerations(ctx context.Context, req domain.ListGenerationRequest) (domain.ListGenerationResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListGenerationResponse{}, domain.ErrInvalidOrganization
	}

	page := req.Range.Normalize()
	items, total, err := s.repo.ListGenerations(ctx, s.db, orgID, page)
	if err != nil {
		return domain.ListGenerationResponse{}, err
	}
	records := make([]domain.GenerationRecord, 0, len(items))
	for _, item := range items {
		if item != nil {
			records = append(records, *item)
		}
	}
	return domain.ListGenerationResponse{
		RangePage:   pagination.BuildRangePage(page, len(records), total),
		Generations: records,
	}, nil
}

// Statement walks every invoice of the renter page by page.
func (s *Service) Statement(ctx context.Context, renterID string) (domain.Statement, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Statement{}, domain.ErrInvalidOrganization
	}
	id, err := parseRef(renterID, domain.ErrInvalidRenter)
	if err != nil {
		return domain.Statement{}, err
	}

	renter, err := s.repo.FindRenter(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Statement{}, err
	}
	if renter == nil {
		return domain.Statement{}, domain.ErrNotFound
	}

	state := pagination.NewQueryState(func(ctx context.Context, r pagination.Range) ([]domain.InvoiceRow, int64, error) {
		return s.repo.List(ctx, s.db, domain.ListFilter{OrgID: orgID, RenterID: &id, Range: r})
	}, statementPageSize)
	invoices, err := state.LoadAll(ctx)
	if err != nil {
		return domain.Statement{}, err
	}

	total := lo.Reduce(invoices, func(sum decimal.Decimal, row domain.InvoiceRow, _ int) decimal.Decimal {
		return sum.Add(row.Amount)
	}, decimal.Zero)

	return domain.Statement{
		Renter:      *renter,
		Invoices:    invoices,
		Total:       total,
		GeneratedAt: s.clock.Now().UTC(),
	}, nil
}

func snapshot(invoice domain.Invoice) changelogdomain.Values {
	return changelogdomain.Values{
		{Name: "renter_id", Value: invoice.RenterID},
		{Name: "type", Value: invoice.Type},
		{Name: "invoice_date", Value: invoice.InvoiceDate.Format(dateLayout)},
		{Name: "due_date", Value: invoice.DueDate.Format(dateLayout)},
		{Name: "amount", Value: invoice.Amount},
	}
}

func parseTerms(req domain.CreateInvoiceRequest) (terms, error) {
	renterID, err := parseRef(req.RenterID, domain.ErrInvalidRenter)
	if err != nil {
		return terms{}, err
	}
	invoiceType, ok := lo.Find(domain.InvoiceTypes(), func(candidate string) bool {
		return strings.EqualFold(candidate, strings.TrimSpace(req.Type))
	})
	if !ok {
		return terms{}, domain.ErrInvalidType
	}
	invoiceDate, err := time.Parse(dateLayout, strings.TrimSpace(req.InvoiceDate))
	if err != nil {
		return terms{}, domain.ErrInvalidInvoiceDate
	}
	dueDate, err := time.Parse(dateLayout, strings.TrimSpace(req.DueDate))
	if err != nil || dueDate.Before(invoiceDate) {
		return terms{}, domain.ErrInvalidDueDate
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || !amount.IsPositive() {
		return terms{}, domain.ErrInvalidAmount
	}

	return terms{
		renterID:    renterID,
		invoiceType: invoiceType,
		invoiceDate: invoiceDate,
		dueDate:     dueDate,
		amount:      amount.Round(2),
	}, nil
}

func parseRef(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}

// randomNumber returns a zero-padded numeric string. Collisions are not
// checked.
func randomNumber(digits int) string {
	if digits <= 0 {
		digits = defaultNumberDigits
	}
	var b strings.Builder
	b.Grow(digits)
	for i := 0; i < digits; i++ {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return b.String()
}
