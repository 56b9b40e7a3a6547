// Package pagination implements cursor pagination over an ordered launch listing.
package pagination

import "github.com/launchdeck/launchdeck/internal/model"

// DefaultPageSize is used when the requested page size is not positive.
const DefaultPageSize = 20

// Paginate returns up to pageSize launches that follow the cursor after.
// A nil cursor starts at the beginning. A cursor that matches no launch
// yields an empty page rather than an error.
//
// results must already be in display order; Paginate does not sort.
func Paginate(results []model.Launch, after *string, pageSize int) []model.Launch {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	start := 0
	if after != nil {
		start = -1
		for i := range results {
			if results[i].Cursor == *after {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return []model.Launch{}
		}
	}

	end := len(results)
	if pageSize < end-start {
		end = start + pageSize
	}
	if start >= end {
		return []model.Launch{}
	}

	page := make([]model.Launch, end-start)
	copy(page, results[start:end])
	return page
}

// BuildPage attaches continuation metadata to page, which must have been cut
// from all. HasMore is true only when launches remain beyond the page's last
// cursor, so a page that ends at the final launch reports false even when full.
func BuildPage(all, page []model.Launch) model.Page {
	out := model.Page{Launches: page}
	if len(page) == 0 {
		return out
	}

	end := page[len(page)-1].Cursor
	out.EndCursor = &end
	out.HasMore = len(all) > 0 && end != all[len(all)-1].Cursor
	return out
}
