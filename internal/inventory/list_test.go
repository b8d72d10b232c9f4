package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vbonduro/pantry/internal/domain"
)

func TestList(t *testing.T) {
	snap := Snapshot{"apple": 3, "pineapple": 1, "bread": 3, "milk": 2}

	tests := []struct {
		name     string
		opts     ListOptions
		expected []domain.Item
	}{
		{
			name: "default sorts by name",
			opts: ListOptions{},
			expected: []domain.Item{
				{Name: "apple", Quantity: 3},
				{Name: "bread", Quantity: 3},
				{Name: "milk", Quantity: 2},
				{Name: "pineapple", Quantity: 1},
			},
		},
		{
			name: "name descending",
			opts: ListOptions{SortBy: SortByName, Descending: true},
			expected: []domain.Item{
				{Name: "pineapple", Quantity: 1},
				{Name: "milk", Quantity: 2},
				{Name: "bread", Quantity: 3},
				{Name: "apple", Quantity: 3},
			},
		},
		{
			name: "quantity ascending breaks ties by name",
			opts: ListOptions{SortBy: SortByQuantity},
			expected: []domain.Item{
				{Name: "pineapple", Quantity: 1},
				{Name: "milk", Quantity: 2},
				{Name: "apple", Quantity: 3},
				{Name: "bread", Quantity: 3},
			},
		},
		{
			name: "query is case-insensitive substring",
			opts: ListOptions{Query: "APPLE"},
			expected: []domain.Item{
				{Name: "apple", Quantity: 3},
				{Name: "pineapple", Quantity: 1},
			},
		},
		{
			name:     "no match",
			opts:     ListOptions{Query: "cheese"},
			expected: []domain.Item{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, List(snap, tt.opts))
		})
	}
}
