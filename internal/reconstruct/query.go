package reconstruct

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/dwsmith1983/accredit/pkg/types"
)

// Page size bounds applied by Normalize.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// QueryParams selects one sorted page of rows.
type QueryParams struct {
	SortBy    string
	SortOrder types.SortOrder
	Page      int
	PageSize  int
}

// Normalize clamps q: page below 1 becomes 1, a non-positive page size becomes
// defaultSize, a page size above maxSize becomes maxSize and any sort order
// other than asc becomes desc. Non-positive bounds select the package defaults.
func (q QueryParams) Normalize(defaultSize, maxSize int) QueryParams {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultSize
	}
	if q.PageSize > maxSize {
		q.PageSize = maxSize
	}
	if !strings.EqualFold(string(q.SortOrder), string(types.SortAsc)) {
		q.SortOrder = types.SortDesc
	} else {
		q.SortOrder = types.SortAsc
	}
	return q
}

// ParseParams builds QueryParams from raw request values. Unparseable
// numbers are left zero so Normalize substitutes defaults.
func ParseParams(page, pageSize, sortBy, sortOrder string) QueryParams {
	p, _ := strconv.Atoi(strings.TrimSpace(page))
	s, _ := strconv.Atoi(strings.TrimSpace(pageSize))
	return QueryParams{
		SortBy:    strings.TrimSpace(sortBy),
		SortOrder: types.SortOrder(strings.TrimSpace(sortOrder)),
		Page:      p,
		PageSize:  s,
	}
}

// Query sorts rows by q.SortBy and returns page q.Page. rows is not modified.
// Rows without a value for the sort field come last in both directions. An
// empty SortBy keeps the input order. q is normalized with package defaults.
func Query(rows []types.FlatRow, q QueryParams) types.Page {
	return paginate(rows, q.Normalize(DefaultPageSize, MaxPageSize))
}

// paginate expects q to be normalized.
func paginate(rows []types.FlatRow, q QueryParams) types.Page {
	sorted := slices.Clone(rows)
	if q.SortBy != "" {
		slices.SortStableFunc(sorted, func(a, b types.FlatRow) int {
			return compareField(a[q.SortBy], b[q.SortBy], q.SortOrder)
		})
	}

	total := len(sorted)
	p := types.Pagination{
		CurrentPage:  q.Page,
		TotalPages:   (total + q.PageSize - 1) / q.PageSize,
		PageSize:     q.PageSize,
		TotalRecords: total,
	}

	results := []types.FlatRow{}
	// Compare pages before multiplying; a huge page would overflow start.
	if q.Page <= p.TotalPages {
		start := (q.Page - 1) * q.PageSize
		end := min(start+q.PageSize, total)
		results = sorted[start:end]
		p.StartRecord = start + 1
		p.EndRecord = end
	}
	return types.Page{Results: results, Pagination: p}
}

// compareField orders two field values. nil sorts after everything
// regardless of order.
func compareField(a, b any, order types.SortOrder) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c := compareValues(a, b)
	if order == types.SortDesc {
		return -c
	}
	return c
}

// compareValues compares numbers numerically and strings lexicographically.
// Mixed types order bool < number < string.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	if ra == rankNumber {
		fa, _ := number(a)
		fb, _ := number(b)
		return cmp.Compare(fa, fb)
	}
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	}
	return 0
}

const (
	rankBool = iota
	rankNumber
	rankString
	rankOther
)

func rank(v any) int {
	if _, ok := number(v); ok {
		return rankNumber
	}
	switch v.(type) {
	case bool:
		return rankBool
	case string:
		return rankString
	}
	return rankOther
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
