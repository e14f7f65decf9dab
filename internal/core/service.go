// Package core implements the object lifecycle services and the migration
// engine over the version-control gateway, the file codec, and the
// reference index. Services are stateless beyond the codec's shared cache:
// every mutation is read-merge-write followed by a commit.
package core

import (
	"sort"
	"strings"

	"cs-go/internal/model"
	"cs-go/internal/store"
)

// Version is the engine version objects are written with. Projects record
// it as engineVersion; the migration engine compares against it.
const Version = "0.12.0"

// Service coordinates the lifecycle of Projects, Collections, Entries and
// Assets. All version-control work goes through the gateway's queue; all
// file I/O goes through the codec.
type Service struct {
	gateway       Gateway
	codec         *store.Codec
	index         *store.Index
	layout        store.Layout
	logger        Logger
	clock         Clock
	idgen         IDGenerator
	engineVersion string
	migrations    []Migration
}

// NewService creates a Service writing objects as engineVersion. Pass
// Version outside of tests.
func NewService(gateway Gateway, codec *store.Codec, index *store.Index, layout store.Layout, logger Logger, clock Clock, idgen IDGenerator, engineVersion string) *Service {
	return &Service{
		gateway:       gateway,
		codec:         codec,
		index:         index,
		layout:        layout,
		logger:        logger,
		clock:         clock,
		idgen:         idgen,
		engineVersion: engineVersion,
	}
}

// ListOptions paginates, sorts and filters a listing. Limit zero returns
// everything from Offset on. SortBy accepts "created", "updated" or "name";
// Filter is a case-insensitive substring match on the object's name.
type ListOptions struct {
	Offset int
	Limit  int
	SortBy string
	Filter string
}

// paginate applies offset/limit to a slice length and returns the bounds.
func paginate(n int, opts ListOptions) (int, int) {
	lo := opts.Offset
	if lo > n {
		lo = n
	}
	hi := n
	if opts.Limit > 0 && lo+opts.Limit < n {
		hi = lo + opts.Limit
	}
	return lo, hi
}

// sortBy orders items by the requested key using the accessors. Unknown
// keys leave the listing in directory order.
func sortBy[T any](items []T, key string, name func(T) string, rec func(T) model.ObjectRecord) {
	switch key {
	case "name":
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(name(items[i])) < strings.ToLower(name(items[j]))
		})
	case "created":
		sort.SliceStable(items, func(i, j int) bool {
			return rec(items[i]).Created.Before(rec(items[j]).Created)
		})
	case "updated":
		sort.SliceStable(items, func(i, j int) bool {
			a, b := rec(items[i]).Updated, rec(items[j]).Updated
			switch {
			case a == nil:
				return b != nil
			case b == nil:
				return false
			default:
				return a.Before(*b)
			}
		})
	}
}

func matchesFilter(name, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(filter))
}
