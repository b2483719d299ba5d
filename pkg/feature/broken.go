package feature

import (
	"fmt"
	"sort"

	"github.com/cargodeb/cargodeb/pkg/errors"
)

// BrokenFold computes, per feature, the effective "tests are known broken"
// flag by folding each feature's explicit override with the effective flags
// of every feature it requires, recursively.
//
// The fold is memoized; results are tri-state (unset, true, false). If two
// propagated values disagree anywhere along the way the fold fails with a
// CONFLICTING_OVERRIDE error naming the feature and the conflicting values,
// never silently picking one.
type BrokenFold struct {
	graph    *Graph
	override func(feature string) *bool
	memo     map[string]*bool
}

// NewBrokenFold creates a fold over g. The override function returns the
// explicit per-feature configuration value, or nil when none is set.
func NewBrokenFold(g *Graph, override func(feature string) *bool) *BrokenFold {
	if override == nil {
		override = func(string) *bool { return nil }
	}
	return &BrokenFold{
		graph:    g,
		override: override,
		memo:     make(map[string]*bool),
	}
}

// Effective returns the effective broken flag for a feature. A feature with
// no explicit value anywhere in its requirement closure is not broken.
func (b *BrokenFold) Effective(feature string) (bool, error) {
	v, err := b.fold(feature)
	if err != nil {
		return false, err
	}
	return v != nil && *v, nil
}

func (b *BrokenFold) fold(feature string) (*bool, error) {
	if v, ok := b.memo[feature]; ok {
		return v, nil
	}

	var vals []bool
	if own := b.override(feature); own != nil {
		vals = append(vals, *own)
	}
	if d, ok := b.graph.Deps(feature); ok {
		for _, req := range d.Features {
			v, err := b.fold(req)
			if err != nil {
				return nil, err
			}
			if v != nil {
				vals = append(vals, *v)
			}
		}
	}

	var result *bool
	for i := range vals {
		if result == nil {
			result = &vals[i]
			continue
		}
		if *result != vals[i] {
			return nil, conflictError(feature, vals)
		}
	}

	b.memo[feature] = result
	return result, nil
}

func conflictError(feature string, vals []bool) error {
	strs := make([]string, len(vals))
	for i, v := range vals {
		strs[i] = fmt.Sprintf("%t", v)
	}
	sort.Strings(strs)
	return errors.New(errors.ErrCodeConflictingOverride,
		"cannot determine test_is_broken for feature %q: dependencies have inconsistent config values %v",
		feature, strs)
}
