package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/litedoc/pkg/core"
)

// resolver replaces DbRef stubs with the documents they point to.
// Loaded documents are cached for the lifetime of one read.
type resolver struct {
	engine *Engine
	cache  map[string]map[string]core.Document
}

func newResolver(e *Engine) *resolver {
	return &resolver{engine: e, cache: make(map[string]map[string]core.Document)}
}

// parseIncludePath splits "$.Parent.Rooms[*]" into ["Parent", "Rooms"].
func parseIncludePath(path string) ([]string, error) {
	rest, ok := strings.CutPrefix(path, "$")
	if !ok {
		rest = "." + path
	}
	rest, ok = strings.CutPrefix(rest, ".")
	if !ok || rest == "" {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidPath, path)
	}

	segs := strings.Split(rest, ".")
	for i, seg := range segs {
		seg = strings.TrimSuffix(seg, "[*]")
		if !segmentRe.MatchString(seg) {
			return nil, fmt.Errorf("%w: %q", core.ErrInvalidPath, path)
		}
		segs[i] = seg
	}
	return segs, nil
}

// apply resolves every include path on doc, in order.
func (r *resolver) apply(ctx context.Context, doc core.Document, paths []string) error {
	for _, path := range paths {
		segs, err := parseIncludePath(path)
		if err != nil {
			return err
		}
		if err := r.resolve(ctx, map[string]any(doc), segs); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) resolve(ctx context.Context, node map[string]any, segs []string) error {
	field := segs[0]
	v, ok := node[field]
	if !ok || v == nil {
		return nil
	}

	if len(segs) == 1 {
		out, err := r.load(ctx, v)
		if err != nil {
			return err
		}
		node[field] = out
		return nil
	}

	for _, child := range children(v) {
		if err := r.resolve(ctx, child, segs[1:]); err != nil {
			return err
		}
	}
	return nil
}

// load replaces a stub, or each stub of an array, with its target.
// Values that are not stubs are returned unchanged.
func (r *resolver) load(ctx context.Context, v any) (any, error) {
	if arr, ok := v.([]any); ok {
		out := make([]any, len(arr))
		for i, el := range arr {
			loaded, err := r.load(ctx, el)
			if err != nil {
				return nil, err
			}
			out[i] = loaded
		}
		return out, nil
	}

	id, coll, ok := core.AsRef(v)
	if !ok {
		return v, nil
	}
	doc, err := r.fetch(ctx, coll, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return map[string]any(doc), nil
}

func (r *resolver) fetch(ctx context.Context, coll string, id any) (core.Document, error) {
	key, err := idKey(id)
	if err != nil {
		return nil, nil
	}

	byKey, ok := r.cache[coll]
	if !ok {
		byKey = make(map[string]core.Document)
		r.cache[coll] = byKey
	}
	if doc, ok := byKey[key]; ok {
		if doc == nil {
			return nil, nil
		}
		return deepClone(doc), nil
	}

	doc, err := r.engine.findRaw(ctx, coll, key)
	if err != nil {
		return nil, fmt.Errorf("include %s: %w", coll, err)
	}
	byKey[key] = doc
	if doc == nil {
		return nil, nil
	}
	return deepClone(doc), nil
}

// children returns the objects directly reachable from v: v itself, or the
// objects held in an array.
func children(v any) []map[string]any {
	switch t := v.(type) {
	case core.Document:
		return []map[string]any{t}
	case map[string]any:
		return []map[string]any{t}
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, el := range t {
			out = append(out, children(el)...)
		}
		return out
	}
	return nil
}

func deepClone(doc core.Document) core.Document {
	return core.Document(cloneValue(map[string]any(doc)).(map[string]any))
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, el := range t {
			out[k] = cloneValue(el)
		}
		return out
	case core.Document:
		return cloneValue(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = cloneValue(el)
		}
		return out
	}
	return v
}
