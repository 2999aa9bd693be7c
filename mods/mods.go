// Package mods sorts and filters module listings for display.
package mods

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chinmay1088/dhub/api"
)

// SortKey orders a module listing.
type SortKey string

const (
	SortRecent  SortKey = "recent"
	SortName    SortKey = "name"
	SortAuthor  SortKey = "author"
	SortBalance SortKey = "balance"
	SortUpdated SortKey = "updated"
	SortCreated SortKey = "created"
)

// SortKeys lists the accepted sort keys in display order.
var SortKeys = []SortKey{SortRecent, SortName, SortAuthor, SortBalance, SortUpdated, SortCreated}

// ParseSortKey validates a sort key. An empty string means SortRecent.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortRecent, nil
	}
	for _, k := range SortKeys {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q (want one of %s)", s, joinKeys())
}

func joinKeys() string {
	parts := make([]string, len(SortKeys))
	for i, k := range SortKeys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

// lastActivity is the update time, or the creation time for modules never
// updated.
func lastActivity(m api.Module) int64 {
	if m.Updated != 0 {
		return m.Updated
	}
	return m.Created
}

// Sort orders mods in place. Time and balance keys put the largest first;
// name and author sort alphabetically. Ties keep their original order.
func Sort(mods []api.Module, key SortKey) {
	var less func(a, b api.Module) bool
	switch key {
	case SortName:
		less = func(a, b api.Module) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortAuthor:
		less = func(a, b api.Module) bool { return a.Key < b.Key }
	case SortBalance:
		less = func(a, b api.Module) bool { return a.Balance.GreaterThan(b.Balance) }
	case SortUpdated:
		less = func(a, b api.Module) bool { return a.Updated > b.Updated }
	case SortCreated:
		less = func(a, b api.Module) bool { return a.Created > b.Created }
	default:
		less = func(a, b api.Module) bool { return lastActivity(a) > lastActivity(b) }
	}
	sort.SliceStable(mods, func(i, j int) bool { return less(mods[i], mods[j]) })
}

// Filter selects modules to show.
type Filter struct {
	// User keeps only modules owned by this key.
	User string
	// Search keeps modules whose name, key, description or URL contains the
	// term, case-insensitively.
	Search string
}

func (f Filter) match(m api.Module) bool {
	if f.User != "" && m.Key != f.User {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	for _, field := range []string{m.Name, m.Key, m.Desc, m.URL} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Apply returns the modules matching f, leaving mods untouched.
func (f Filter) Apply(mods []api.Module) []api.Module {
	out := make([]api.Module, 0, len(mods))
	for _, m := range mods {
		if f.match(m) {
			out = append(out, m)
		}
	}
	return out
}

// Select filters then sorts a listing.
func Select(mods []api.Module, f Filter, key SortKey) []api.Module {
	out := f.Apply(mods)
	Sort(out, key)
	return out
}
