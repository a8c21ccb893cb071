package container

// ContextualBuilder implements the fluent scoped-alias API.
//
//	// when *PhotoController needs a Filesystem, build *S3 for it
//	c.When(container.TypeOf[*PhotoController]()).
//	    Needs(container.TypeOf[Filesystem]()).
//	    Give(container.TypeOf[*S3]())
//
// Scoped aliases apply to parameters resolved from their declared type, so
// any override given to Make or Define still wins over them.
type ContextualBuilder struct {
	container *Container
	owner     TypeID
	needs     TypeID
}

// When starts a scoped alias for parameters of owner.
func (c *Container) When(owner TypeID) *ContextualBuilder {
	return &ContextualBuilder{container: c, owner: owner}
}

// Needs names the declared parameter type the alias applies to.
func (b *ContextualBuilder) Needs(abstract TypeID) *ContextualBuilder {
	b.needs = abstract
	return b
}

// Give resolves concrete for the parameter.
func (b *ContextualBuilder) Give(concrete TypeID) error {
	if concrete == "" {
		return &ConfigError{Op: "give", Type: b.owner, Reason: "empty type id"}
	}
	return b.give(contextualGive{id: concrete})
}

// GiveValue hands the parameter a pre-built value.
//
//	c.When(photos).Needs(container.TypeOf[Dir]()).GiveValue(Dir("/tmp/photos"))
func (b *ContextualBuilder) GiveValue(value any) error {
	return b.give(contextualGive{value: value})
}

// GiveFactory calls f for the parameter on every construction of the owner.
func (b *ContextualBuilder) GiveFactory(f Factory) error {
	if f == nil {
		return &ConfigError{Op: "give", Type: b.owner, Reason: "nil factory"}
	}
	return b.give(contextualGive{factory: f})
}

func (b *ContextualBuilder) give(g contextualGive) error {
	if b.owner == "" || b.needs == "" {
		return &ConfigError{Op: "give", Type: b.owner, Reason: "When and Needs must name a type"}
	}
	b.container.mu.Lock()
	defer b.container.mu.Unlock()
	b.container.store.give(b.owner, b.needs, g)
	return nil
}
