// Package aggregate merges inheritable item properties down an ancestor chain.
//
// Merging is type-directed: strings concatenate, slices concatenate (keeping
// duplicates) and maps shallow-merge with later values overriding earlier
// ones. A missing value is the identity for its type. Inputs are never
// mutated; every merge returns fresh values.
package aggregate

import "git.home.luguber.info/inful/sitebuilder/internal/models"

// Selector picks one inheritable property off an item.
type Selector func(*models.Item) any

// Built-in selectors for the inheritable item properties.
var (
	Vars        Selector = func(it *models.Item) any { return it.Vars }
	HeadHTML    Selector = func(it *models.Item) any { return it.HeadHTML }
	FooterHTML  Selector = func(it *models.Item) any { return it.FooterHTML }
	SidebarHTML Selector = func(it *models.Item) any { return it.SidebarHTML }
)

// Aggregate merges sel's value across the items named by ids, left to right
// (root first). Ids missing from items are skipped. The result is nil when no
// item contributed a value.
func Aggregate(sel Selector, ids []string, items map[string]*models.Item) any {
	var acc any
	for _, id := range ids {
		item, ok := items[id]
		if !ok || item == nil {
			continue
		}
		acc = merge(acc, sel(item))
	}
	return acc
}

// Merge folds values left to right with the type-directed rule.
func Merge(values ...any) any {
	var acc any
	for _, v := range values {
		acc = merge(acc, v)
	}
	return acc
}

func merge(acc, next any) any {
	switch v := next.(type) {
	case nil:
		return acc
	case string:
		s, _ := acc.(string)
		return s + v
	case []any:
		prev, _ := acc.([]any)
		out := make([]any, 0, len(prev)+len(v))
		out = append(out, prev...)
		return append(out, v...)
	case []string:
		prev, _ := acc.([]string)
		out := make([]string, 0, len(prev)+len(v))
		out = append(out, prev...)
		return append(out, v...)
	case map[string]any:
		prev, _ := acc.(map[string]any)
		out := make(map[string]any, len(prev)+len(v))
		for k, val := range prev {
			out[k] = val
		}
		for k, val := range v {
			out[k] = val
		}
		return out
	default:
		// Scalars have no merge rule; the more specific value wins.
		return next
	}
}

// AggregateVars is Aggregate over Vars with a non-nil map result.
func AggregateVars(ids []string, items map[string]*models.Item) map[string]any {
	return asMap(Aggregate(Vars, ids, items))
}

// AggregateFragment is Aggregate over an HTML fragment selector.
func AggregateFragment(sel Selector, ids []string, items map[string]*models.Item) string {
	s, _ := Aggregate(sel, ids, items).(string)
	return s
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}
