package typed

import "github.com/aretw0/litedoc/pkg/mapper"

type setOptions struct {
	name   string
	naming mapper.Namer
	refs   []refDecl
}

type refDecl struct {
	field      string
	collection string
}

// SetOption configures how a Set binds its collection.
type SetOption func(*setOptions)

// WithName overrides the collection name of the entity type.
func WithName(name string) SetOption {
	return func(o *setOptions) {
		o.name = name
	}
}

// WithNaming sets the rule naming collections after entity types. It also
// names the targets of references that do not carry a collection.
func WithNaming(naming mapper.Namer) SetOption {
	return func(o *setOptions) {
		o.naming = naming
	}
}

// WithReference declares field as a reference without a struct tag.
// An empty collection targets the collection of the field's type.
// A field already tagged as a reference is redirected to collection.
func WithReference(field, collection string) SetOption {
	return func(o *setOptions) {
		o.refs = append(o.refs, refDecl{field: field, collection: collection})
	}
}

func buildOptions(opts []SetOption) *setOptions {
	o := &setOptions{naming: mapper.TypeName}
	for _, opt := range opts {
		opt(o)
	}
	if o.naming == nil {
		o.naming = mapper.TypeName
	}
	return o
}
