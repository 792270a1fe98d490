package typed

import (
	"strings"

	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/mapper"
	"github.com/aretw0/litedoc/pkg/query"
)

// documentField translates an entity field path into its stored form.
// The identity, by Go or JSON name, is stored as "_id"; the identity of a
// scalar reference ("Reference.ID") is the "$id" of its stub.
func documentField(m *mapper.Mapping, name string) string {
	id := m.Descriptor().Identity
	if name == id.Name || name == id.Field {
		return core.IDKey
	}

	head, rest, ok := strings.Cut(name, ".")
	if !ok {
		return name
	}
	for _, ref := range m.References() {
		if ref.List || (head != ref.Name && head != ref.Field) {
			continue
		}
		target, err := mapper.Describe(ref.Target)
		if err != nil {
			break
		}
		if rest == target.Identity.Name || rest == target.Identity.Field {
			return ref.Name + "." + core.RefIDKey
		}
		break
	}
	return name
}

// documentPredicate rewrites the field names of pred with documentField.
func documentPredicate(m *mapper.Mapping, pred query.Predicate) query.Predicate {
	if pred == nil {
		return nil
	}
	return query.Rename(pred, func(field string) string {
		return documentField(m, field)
	})
}
