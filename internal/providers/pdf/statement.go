package pdf

import (
	"context"
	"io"

	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	invoicedomain "github.com/smallbiznis/collections/internal/invoice/domain"
)

func (p *PDFProvider) RenderStatement(ctx context.Context, statement invoicedomain.Statement) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := newDocument()
	p.header(m, "Statement of Account")

	m.AddRow(16,
		col.New(6).Add(
			text.New("Renter", props.Text{Style: fontstyle.Bold}),
			text.New(statement.Renter.Name, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Statement date: "+statement.GeneratedAt.Format(dateLayout), props.Text{Align: align.Right}),
			text.New("Status: "+string(statement.Renter.Status), props.Text{Top: 5, Align: align.Right}),
		),
	)

	tableHeader(m)
	if len(statement.Invoices) == 0 {
		m.AddRow(10, text.NewCol(12, "No invoices", props.Text{Size: 9, Align: align.Center}))
	}
	for _, invoice := range statement.Invoices {
		m.AddRow(8,
			text.NewCol(6, "#"+invoice.InvoiceNumber+" "+invoice.Type+" ("+invoice.InvoiceDate.Format(dateLayout)+")", props.Text{Size: 9}),
			text.NewCol(3, invoice.DueDate.Format(dateLayout), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, formatAmount(invoice.Amount.StringFixed(2)), props.Text{Size: 9, Align: align.Right}),
		)
	}
	totalRow(m, "Total", statement.Total.StringFixed(2))

	return generate(m)
}
