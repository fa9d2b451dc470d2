// =============================================================================
// Hoshuko Library Tools - Paginator
// =============================================================================
//
// Cards and lists are printed one grade per sheet. The paginator groups
// students by year and cuts each group into sheets of a fixed size:
//
//   小1 x 25, chunk 12  ->  [12] [12] [1]
//   小2 x 3,  chunk 12  ->  [3]
//
// Groups come out in ascending year order with unknown grades (year 0) last.
// Inside a group the input order is kept.
//
// =============================================================================

package converter

import (
	"fmt"
	"sort"

	"github.com/ginjaninja78/hoshuko-library-tools/internal/types"
)

// Paginate groups records by Year and splits each group into pages of at
// most chunkSize records.
//
// PARAMETERS:
//   - records:   Students in input order.
//   - chunkSize: Page capacity, usually Mode.ChunkSize(). Must be at least 1.
//
// RETURNS:
//   - The pages. An empty input yields no pages.
//   - An error if chunkSize < 1.
func Paginate(records []types.StudentRecord, chunkSize int) ([]types.Page, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be at least 1, got %d", chunkSize)
	}

	groups := make(map[int][]types.StudentRecord)
	years := make([]int, 0)
	for _, r := range records {
		if _, seen := groups[r.Year]; !seen {
			years = append(years, r.Year)
		}
		groups[r.Year] = append(groups[r.Year], r)
	}

	sort.Slice(years, func(i, j int) bool {
		a, b := years[i], years[j]
		if a == 0 || b == 0 {
			// Unknown year sorts last.
			return b == 0 && a != 0
		}
		return a < b
	})

	pages := make([]types.Page, 0)
	for _, year := range years {
		group := groups[year]
		for start, index := 0, 1; start < len(group); start, index = start+chunkSize, index+1 {
			end := start + chunkSize
			if end > len(group) {
				end = len(group)
			}
			pages = append(pages, types.Page{
				Year:    year,
				Index:   index,
				Records: group[start:end:end],
			})
		}
	}

	return pages, nil
}

// ToDisplayPages projects pages for the sheet writer.
func ToDisplayPages(pages []types.Page) []types.DisplayPage {
	out := make([]types.DisplayPage, len(pages))
	for i, p := range pages {
		records := make([]types.DisplayRecord, len(p.Records))
		for j, r := range p.Records {
			records[j] = ToDisplayRecord(r)
		}
		out[i] = types.DisplayPage{
			Year:    p.Year,
			Index:   p.Index,
			Label:   p.Label(),
			Records: records,
		}
	}
	return out
}
