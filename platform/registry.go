package platform

// Relationship defines which post kind may be attached under which.
type Relationship struct {
	// ParentKind is the kind of the post being commented on or endorsed.
	ParentKind Kind

	// ChildKind is the kind of the post being attached.
	ChildKind Kind
}

// Registry holds all permitted parent-child relationships between post kinds.
type Registry struct {
	relationships []Relationship
	byParent      map[Kind][]Relationship
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		relationships: []Relationship{},
		byParent:      make(map[Kind][]Relationship),
	}
}

// DefaultRegistry returns the platform's rules: originals and comments accept
// comments and endorsements; endorsements accept nothing.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Relationship{ParentKind: KindOriginal, ChildKind: KindComment})
	r.Register(Relationship{ParentKind: KindOriginal, ChildKind: KindEndorsement})
	r.Register(Relationship{ParentKind: KindComment, ChildKind: KindComment})
	r.Register(Relationship{ParentKind: KindComment, ChildKind: KindEndorsement})
	return r
}

// Register adds a relationship to the registry.
func (r *Registry) Register(rel Relationship) {
	if r.Allows(rel.ParentKind, rel.ChildKind) {
		return
	}
	r.relationships = append(r.relationships, rel)
	r.byParent[rel.ParentKind] = append(r.byParent[rel.ParentKind], rel)
}

// Allows reports whether a post of kind child may be attached to a post of kind parent.
func (r *Registry) Allows(parent, child Kind) bool {
	for _, rel := range r.byParent[parent] {
		if rel.ChildKind == child {
			return true
		}
	}
	return false
}

// ChildrenOf returns all child relationships for a given parent kind.
func (r *Registry) ChildrenOf(parent Kind) []Relationship {
	return r.byParent[parent]
}

// AllRelationships returns all registered relationships.
func (r *Registry) AllRelationships() []Relationship {
	return r.relationships
}

// HasChildren returns true if the parent kind has any registered child relationships.
func (r *Registry) HasChildren(parent Kind) bool {
	return len(r.byParent[parent]) > 0
}
