package inventory

import (
	"sort"
	"strings"

	"github.com/vbonduro/pantry/internal/domain"
)

type SortField string

const (
	SortByName     SortField = "name"
	SortByQuantity SortField = "quantity"
)

type ListOptions struct {
	// Query filters to names containing it, case-insensitively.
	Query      string
	SortBy     SortField
	Descending bool
}

// List returns the entries of s matching opts. Ties on quantity fall back to
// name order so the output is stable.
func List(s Snapshot, opts ListOptions) []domain.Item {
	q := Normalize(opts.Query)
	items := make([]domain.Item, 0, len(s))
	for name, qty := range s {
		if q != "" && !strings.Contains(name, q) {
			continue
		}
		items = append(items, domain.Item{Name: name, Quantity: qty})
	}

	less := func(a, b domain.Item) bool { return a.Name < b.Name }
	if opts.SortBy == SortByQuantity {
		less = func(a, b domain.Item) bool {
			if a.Quantity != b.Quantity {
				return a.Quantity < b.Quantity
			}
			return a.Name < b.Name
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if opts.Descending {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
	return items
}
