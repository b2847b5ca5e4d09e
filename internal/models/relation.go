package models

import "fmt"

// RelationKind names the entity collection a relation points into.
type RelationKind string

const (
	RelationBlog    RelationKind = "blog"
	RelationContest RelationKind = "contest"
	RelationPayment RelationKind = "payment"
	RelationAccount RelationKind = "account"
	RelationGeneral RelationKind = "general"
)

// Relation links a record to the domain entity that caused it. Kind and ID
// travel together: anything other than a bare "general" relation must carry
// both, never one of the two.
type Relation struct {
	Kind RelationKind `gorm:"column:kind;type:varchar(16)" json:"kind,omitempty"`
	ID   string       `gorm:"column:id;type:uuid" json:"id,omitempty"`
}

// General returns the relation used when an event is not tied to an entity.
func General() Relation {
	return Relation{Kind: RelationGeneral}
}

// RelatedTo builds an entity-bound relation.
func RelatedTo(kind RelationKind, id string) Relation {
	return Relation{Kind: kind, ID: id}
}

// IsZero reports whether no relation was supplied at all.
func (r Relation) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

// Validate enforces the both-or-neither contract on the (kind, id) pair.
func (r Relation) Validate() error {
	switch r.Kind {
	case "", RelationGeneral:
		if r.ID != "" {
			return fmt.Errorf("relation: id %q supplied without an entity kind", r.ID)
		}
		return nil
	case RelationBlog, RelationContest, RelationPayment, RelationAccount:
		if r.ID == "" {
			return fmt.Errorf("relation: kind %q requires an entity id", r.Kind)
		}
		return nil
	default:
		return fmt.Errorf("relation: unknown kind %q", r.Kind)
	}
}
