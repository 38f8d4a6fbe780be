package pagination

const (
	DefaultRangeLimit = 10
	MaxRangeLimit     = 250
)

// Range selects rows [Offset, Offset+Limit).
type Range struct {
	Offset int `form:"offset"`
	Limit  int `form:"limit"`
}

func (r Range) Normalize() Range {
	if r.Offset < 0 {
		r.Offset = 0
	}
	if r.Limit <= 0 {
		r.Limit = DefaultRangeLimit
	}
	if r.Limit > MaxRangeLimit {
		r.Limit = MaxRangeLimit
	}
	return r
}

// Next returns the range that follows r.
func (r Range) Next() Range {
	r = r.Normalize()
	return Range{Offset: r.Offset + r.Limit, Limit: r.Limit}
}

// RangePage describes one page of a counted listing.
type RangePage struct {
	Total   int64 `json:"total"`
	Offset  int   `json:"offset"`
	Limit   int   `json:"limit"`
	HasMore bool  `json:"has_more"`
}

func BuildRangePage(r Range, returned int, total int64) RangePage {
	r = r.Normalize()
	return RangePage{
		Total:   total,
		Offset:  r.Offset,
		Limit:   r.Limit,
		HasMore: int64(r.Offset+returned) < total,
	}
}
