package pdf

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotoconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/collections/internal/config"
	invoicedomain "github.com/smallbiznis/collections/internal/invoice/domain"
)

const dateLayout = "Jan 02, 2006"

type PDFProvider struct {
	issuer string
}

func New(cfg config.Config) Provider {
	issuer := strings.TrimSpace(cfg.AppName)
	if issuer == "" {
		issuer = "Collections"
	}
	return &PDFProvider{issuer: issuer}
}

func (p *PDFProvider) RenderInvoice(ctx context.Context, invoice invoicedomain.InvoiceRow) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := newDocument()
	p.header(m, "Invoice")

	m.AddRow(24,
		col.New(6).Add(
			text.New("Invoice number: "+invoice.InvoiceNumber, props.Text{Top: 0}),
			text.New("Invoice date: "+invoice.InvoiceDate.Format(dateLayout), props.Text{Top: 5}),
			text.New("Due date: "+invoice.DueDate.Format(dateLayout), props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New(invoice.RenterName, props.Text{Top: 5, Align: align.Right}),
		),
	)

	tableHeader(m)
	m.AddRow(10,
		text.NewCol(6, invoice.Type, props.Text{Size: 9}),
		text.NewCol(3, invoice.DueDate.Format(dateLayout), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(3, formatAmount(invoice.Amount.StringFixed(2)), props.Text{Size: 9, Align: align.Right}),
	)
	totalRow(m, "Amount due", invoice.Amount.StringFixed(2))

	return generate(m)
}

func newDocument() core.Maroto {
	cfg := marotoconfig.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func (p *PDFProvider) header(m core.Maroto, title string) {
	m.AddRow(10,
		text.NewCol(8, title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, p.issuer, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)
	m.AddRow(6, col.New(12))
}

func tableHeader(m core.Maroto) {
	m.AddRow(8,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Due", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))
}

func totalRow(m core.Maroto, label, amount string) {
	m.AddRow(2, line.NewCol(12))
	m.AddRow(10,
		col.New(6),
		text.NewCol(3, label, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
		text.NewCol(3, formatAmount(amount), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)
}

func generate(m core.Maroto) (io.Reader, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

// formatAmount groups the integer part of a fixed-point amount by thousands.
func formatAmount(fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		return sign + b.String() + "." + frac
	}
	return sign + b.String()
}
