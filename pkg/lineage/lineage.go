// Package lineage defines the generation derivation DAG. A generation is
// one versioned node in a design's history; its parent set is fixed at
// creation and referenced by identifier, never owned.
package lineage

import (
	"time"

	"github.com/google/uuid"
)

// GenerationID identifies one generation node.
type GenerationID string

// NewGenerationID returns a fresh random identifier.
func NewGenerationID() GenerationID {
	return GenerationID(uuid.NewString())
}

// Short returns an abbreviated ID for log and error messages.
func (id GenerationID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// IsZero reports whether the ID is unset.
func (id GenerationID) IsZero() bool { return id == "" }

// Origin describes how a generation was produced.
type Origin string

const (
	OriginGenerate        Origin = "generate"
	OriginRegenerate      Origin = "regenerate"
	OriginImport          Origin = "import"
	OriginAIMerge         Origin = "ai_merge"
	OriginAIDraft         Origin = "ai_draft"
	OriginFactoryFeedback Origin = "factory_feedback"
)

// Valid reports whether o is one of the known origin tags.
func (o Origin) Valid() bool {
	switch o {
	case OriginGenerate, OriginRegenerate, OriginImport, OriginAIMerge, OriginAIDraft, OriginFactoryFeedback:
		return true
	}
	return false
}

// Generation is a node in the lineage DAG. Zero parents marks a root
// (generate/import), one a linear derivation, two or more a merge.
// IsActive may change over a generation's lifetime but never participates
// in its geometry identity.
type Generation struct {
	ID        GenerationID
	ProjectID string
	Origin    Origin
	ParentIDs []GenerationID
	IsActive  bool
	CreatedAt time.Time
}

// IsRoot reports whether the generation has no ancestry.
func (g *Generation) IsRoot() bool { return len(g.ParentIDs) == 0 }

// IsMerge reports whether the generation combines multiple parents.
func (g *Generation) IsMerge() bool { return len(g.ParentIDs) > 1 }
