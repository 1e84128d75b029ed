package pagination

// Params holds a page request.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// NewParams clamps page to ≥1 and derives the row offset.
func NewParams(page, perPage int) Params {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	return Params{Page: page, PerPage: perPage, Offset: (page - 1) * perPage}
}

// PageCount returns ceil(total/perPage), never less than 1.
func PageCount(total, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 1
	}
	pages := total / perPage
	if total%perPage > 0 {
		pages++
	}
	return pages
}

// Button is one entry of a rendered page strip. Gap entries stand for the
// elided pages between the window and the last page.
type Button struct {
	Page   int  `json:"page,omitempty"`
	Active bool `json:"active,omitempty"`
	Gap    bool `json:"gap,omitempty"`
}

// Window builds the page strip for current out of pages: buttons
// 1..min(pages, size), then a gap and the last page when pages > size.
// A single page renders no strip at all.
func Window(current, pages, size int) []Button {
	if pages <= 1 {
		return nil
	}
	if size < 1 {
		size = 1
	}

	n := min(pages, size)
	out := make([]Button, 0, n+2)
	for p := 1; p <= n; p++ {
		out = append(out, Button{Page: p, Active: p == current})
	}
	if pages > size {
		out = append(out,
			Button{Gap: true},
			Button{Page: pages, Active: pages == current},
		)
	}
	return out
}
