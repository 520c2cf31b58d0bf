package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lastforge/lastforge/pkg/identity"
	"github.com/lastforge/lastforge/pkg/kernel"
	"github.com/lastforge/lastforge/pkg/lineage"
)

// Schema for the lineage and geometry tables. Applied by Open.
// geometry_assets is locked to one row per generation via
// UNIQUE(generation_id); invalidation updates in place.
const Schema = `
CREATE TABLE IF NOT EXISTS generations (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	origin TEXT NOT NULL,
	parent_ids TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS spec_snapshots (
	id TEXT PRIMARY KEY,
	generation_id TEXT NOT NULL REFERENCES generations(id),
	instrumental TEXT NOT NULL,
	non_instrumental TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_gen ON spec_snapshots(generation_id, created_at);
CREATE TABLE IF NOT EXISTS geometry_assets (
	id TEXT PRIMARY KEY,
	generation_id TEXT NOT NULL UNIQUE REFERENCES generations(id),
	mesh_uri TEXT NOT NULL,
	anchors_uri TEXT NOT NULL,
	bounds TEXT NOT NULL,
	geometry_hash TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// DB is a SQLite-backed store.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite store at path and applies the
// schema. A single connection serializes writers, which is what keeps the
// asset compare-and-swap race-safe under concurrent callers.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close releases the underlying connection.
func (s *DB) Close() error { return s.db.Close() }

// AddGeneration inserts a generation node. The parent set is fixed here
// and never updated afterward.
func (s *DB) AddGeneration(ctx context.Context, g *lineage.Generation) error {
	if g.ID.IsZero() {
		g.ID = lineage.NewGenerationID()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	if !g.Origin.Valid() {
		return fmt.Errorf("store: unknown origin %q", g.Origin)
	}
	parents, err := json.Marshal(g.ParentIDs)
	if err != nil {
		return fmt.Errorf("store: encode parent ids: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO generations (id, project_id, origin, parent_ids, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(g.ID), g.ProjectID, string(g.Origin), string(parents), boolInt(g.IsActive), g.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("store: insert generation: %w", err)
	}
	return nil
}

// Generation loads a generation node by ID.
func (s *DB) Generation(ctx context.Context, id lineage.GenerationID) (*lineage.Generation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, origin, parent_ids, is_active, created_at
		 FROM generations WHERE id = ?`, string(id))

	var g lineage.Generation
	var gid, origin, parents string
	var active int
	var createdAt int64
	if err := row.Scan(&gid, &g.ProjectID, &origin, &parents, &active, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("generation %s: %w", id.Short(), ErrNotFound)
		}
		return nil, fmt.Errorf("store: load generation: %w", err)
	}
	g.ID = lineage.GenerationID(gid)
	g.Origin = lineage.Origin(origin)
	g.IsActive = active != 0
	g.CreatedAt = time.Unix(0, createdAt).UTC()
	if err := json.Unmarshal([]byte(parents), &g.ParentIDs); err != nil {
		return nil, fmt.Errorf("store: decode parent ids: %w", err)
	}
	return &g, nil
}

// SetActive flips the activity flag. Activity never participates in
// geometry identity, so no asset is touched.
func (s *DB) SetActive(ctx context.Context, id lineage.GenerationID, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE generations SET is_active = ? WHERE id = ?`, boolInt(active), string(id))
	if err != nil {
		return fmt.Errorf("store: set active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("generation %s: %w", id.Short(), ErrNotFound)
	}
	return nil
}

// AddSnapshot appends a spec snapshot for a generation.
func (s *DB) AddSnapshot(ctx context.Context, snap *SpecSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	instrumental, err := json.Marshal(snap.Instrumental)
	if err != nil {
		return fmt.Errorf("store: encode instrumental tree: %w", err)
	}
	var nonInstrumental any
	if snap.NonInstrumental != nil {
		raw, err := json.Marshal(snap.NonInstrumental)
		if err != nil {
			return fmt.Errorf("store: encode non-instrumental tree: %w", err)
		}
		nonInstrumental = string(raw)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO spec_snapshots (id, generation_id, instrumental, non_instrumental, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		snap.ID, string(snap.GenerationID), string(instrumental), nonInstrumental, snap.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("store: insert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently created snapshot for a
// generation, or ErrNotFound if none exists.
func (s *DB) LatestSnapshot(ctx context.Context, id lineage.GenerationID) (*SpecSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, generation_id, instrumental, non_instrumental, created_at
		 FROM spec_snapshots WHERE generation_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`, string(id))

	var snap SpecSnapshot
	var gid, instrumental string
	var nonInstrumental sql.NullString
	var createdAt int64
	if err := row.Scan(&snap.ID, &gid, &instrumental, &nonInstrumental, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("spec snapshot for generation %s: %w", id.Short(), ErrNotFound)
		}
		return nil, fmt.Errorf("store: load snapshot: %w", err)
	}
	snap.GenerationID = lineage.GenerationID(gid)
	snap.CreatedAt = time.Unix(0, createdAt).UTC()
	if err := json.Unmarshal([]byte(instrumental), &snap.Instrumental); err != nil {
		return nil, fmt.Errorf("store: decode instrumental tree: %w", err)
	}
	if nonInstrumental.Valid {
		if err := json.Unmarshal([]byte(nonInstrumental.String), &snap.NonInstrumental); err != nil {
			return nil, fmt.Errorf("store: decode non-instrumental tree: %w", err)
		}
	}
	return &snap, nil
}

// LoadAsset returns the geometry asset for a generation, or (nil, nil)
// when none has been derived yet.
func (s *DB) LoadAsset(ctx context.Context, id lineage.GenerationID) (*GeometryAsset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, generation_id, mesh_uri, anchors_uri, bounds, geometry_hash, created_at, updated_at
		 FROM geometry_assets WHERE generation_id = ?`, string(id))
	asset, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: load asset: %w", err)
	}
	return asset, nil
}

// SaveAsset upserts the single asset row for a generation. The update arm
// is guarded by a digest comparison, so two concurrent callers that
// computed the same digest cannot double-write: the second write is a
// no-op and the stored row is re-read and returned either way.
func (s *DB) SaveAsset(ctx context.Context, a *GeometryAsset) (*GeometryAsset, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	bounds, err := json.Marshal(a.Bounds)
	if err != nil {
		return nil, fmt.Errorf("store: encode bounds: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO geometry_assets (id, generation_id, mesh_uri, anchors_uri, bounds, geometry_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(generation_id) DO UPDATE SET
			mesh_uri = excluded.mesh_uri,
			anchors_uri = excluded.anchors_uri,
			bounds = excluded.bounds,
			geometry_hash = excluded.geometry_hash,
			updated_at = excluded.updated_at
		 WHERE geometry_assets.geometry_hash <> excluded.geometry_hash`,
		a.ID, string(a.GenerationID), a.MeshURI, a.AnchorsURI, string(bounds),
		string(a.Digest), now.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("store: upsert asset: %w", err)
	}
	stored, err := s.LoadAsset(ctx, a.GenerationID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("store: asset for generation %s vanished after upsert", a.GenerationID.Short())
	}
	return stored, nil
}

// AssetCount reports how many asset rows exist for a generation. Used to
// assert the one-row invariant in tests and consistency checks.
func (s *DB) AssetCount(ctx context.Context, id lineage.GenerationID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM geometry_assets WHERE generation_id = ?`, string(id)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count assets: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*GeometryAsset, error) {
	var a GeometryAsset
	var gid, bounds, digest string
	var createdAt, updatedAt int64
	err := row.Scan(&a.ID, &gid, &a.MeshURI, &a.AnchorsURI, &bounds, &digest, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	a.GenerationID = lineage.GenerationID(gid)
	a.Digest = identity.Digest(digest)
	a.CreatedAt = time.Unix(0, createdAt).UTC()
	a.UpdatedAt = time.Unix(0, updatedAt).UTC()
	var b kernel.Bounds
	if err := json.Unmarshal([]byte(bounds), &b); err != nil {
		return nil, err
	}
	a.Bounds = b
	return &a, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
