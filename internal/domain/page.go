package domain

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	// maxPage keeps (Page-1)*Limit far below any int or Postgres bigint
	// overflow; no tenant has anywhere near this many rows.
	maxPage = 1_000_000
)

// PaginationParams is a 1-indexed page window shared by the experience
// listing, the CSV export and the audit trail.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams normalises optional query values. Missing or
// non-positive values fall back to page 1 and a limit of 20. Limits are
// clamped to 100 and pages to maxPage.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: defaultPageLimit}
	if page != nil && *page > 0 {
		p.Page = min(*page, maxPage)
	}
	if limit != nil && *limit > 0 {
		p.Limit = min(*limit, maxPageLimit)
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}
