package kwic

import "fmt"

// Page is one slice of a result set in stable corpus order.
type Page struct {
	Results    []Result
	Page       int
	PageSize   int
	TotalHits  int
	TotalPages int
}

// Paginate slices results into 1-based pages. A page past the end is empty,
// not an error, so clients can ask for any page without special-casing the
// last one. Bounds are compared before multiplying, so huge page numbers or
// sizes cannot overflow.
func Paginate(results []Result, page, pageSize int) (Page, error) {
	if page < 1 || pageSize < 1 {
		return Page{}, fmt.Errorf("%w: page=%d page_size=%d", ErrInvalidPage, page, pageSize)
	}

	total := len(results)
	p := Page{
		Results:   []Result{},
		Page:      page,
		PageSize:  pageSize,
		TotalHits: total,
	}
	p.TotalPages = total / pageSize
	if total%pageSize != 0 {
		p.TotalPages++
	}
	if page > p.TotalPages {
		return p, nil
	}

	start := (page - 1) * pageSize
	p.Results = results[start : start+min(pageSize, total-start)]
	return p, nil
}
