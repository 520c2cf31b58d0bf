// Package store persists the generation/spec/asset graph. The contract
// the derivation pipeline relies on: snapshots are append-only, and
// geometry_assets holds exactly one row per generation, updated in place.
package store

import (
	"errors"
	"time"

	"github.com/lastforge/lastforge/pkg/identity"
	"github.com/lastforge/lastforge/pkg/kernel"
	"github.com/lastforge/lastforge/pkg/lineage"
	"github.com/lastforge/lastforge/pkg/spec"
)

// ErrNotFound is returned when a generation or snapshot does not exist.
var ErrNotFound = errors.New("store: not found")

// SpecSnapshot is one append-only history entry for a generation. The
// most recently created snapshot is authoritative for geometry
// derivation. Snapshots are never mutated or deleted.
type SpecSnapshot struct {
	ID              string
	GenerationID    lineage.GenerationID
	Instrumental    spec.Tree
	NonInstrumental spec.Tree
	CreatedAt       time.Time
}

// GeometryAsset is the single geometry record of a generation: artifact
// URIs, bounds, and the content digest the record was built from.
type GeometryAsset struct {
	ID           string
	GenerationID lineage.GenerationID
	MeshURI      string
	AnchorsURI   string
	Bounds       kernel.Bounds
	Digest       identity.Digest
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
