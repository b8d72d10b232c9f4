package inventory

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxQuantity is the largest quantity an entry may hold. It matches the
// INT columns of the SQL stores.
const MaxQuantity = math.MaxInt32

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer no larger than 2147483647")
	ErrEmptyName       = errors.New("item name required")
	ErrNotLoaded       = errors.New("inventory has not been loaded")
)

// Snapshot maps a normalized item name to its quantity. Entries with a zero
// quantity are never stored.
type Snapshot map[string]int

// Clone returns an independent copy. A nil snapshot clones to an empty one.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Equal reports whether both snapshots hold the same entries.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Names returns the item names in ascending order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Normalize folds an item name to its key form.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DisplayName capitalizes the first letter of a normalized name.
func DisplayName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

type Op string

const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// Mutation is one entry of a batched write. Quantity is ignored for deletes.
type Mutation struct {
	Name     string
	Op       Op
	Quantity int
}

// Reconcile computes the batch that makes remote match working. When the two
// snapshots are equal the batch is empty. Otherwise every working entry is
// upserted and every name present remotely but missing from working is
// deleted. Upserts come first, each group ordered by name.
func Reconcile(remote, working Snapshot) []Mutation {
	if remote.Equal(working) {
		return nil
	}

	muts := make([]Mutation, 0, len(working)+len(remote))
	for _, name := range working.Names() {
		qty := working[name]
		if qty <= 0 {
			continue
		}
		muts = append(muts, Mutation{Name: name, Op: OpUpsert, Quantity: qty})
	}
	for _, name := range remote.Names() {
		if _, ok := working[name]; !ok {
			muts = append(muts, Mutation{Name: name, Op: OpDelete})
		}
	}
	return muts
}

// Apply returns a copy of s with muts applied.
func (s Snapshot) Apply(muts []Mutation) Snapshot {
	out := s.Clone()
	for _, m := range muts {
		switch m.Op {
		case OpUpsert:
			if m.Quantity > 0 {
				out[m.Name] = m.Quantity
			} else {
				delete(out, m.Name)
			}
		case OpDelete:
			delete(out, m.Name)
		}
	}
	return out
}
