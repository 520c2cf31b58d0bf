// Package derive coordinates geometry derivation for generations: it
// resolves lineage, validates the authoritative spec snapshot, computes
// the content digest, and decides cache-hit versus rebuild against the
// single stored asset per generation.
package derive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lastforge/lastforge/pkg/identity"
	"github.com/lastforge/lastforge/pkg/kernel"
	"github.com/lastforge/lastforge/pkg/lineage"
	"github.com/lastforge/lastforge/pkg/shoe"
	"github.com/lastforge/lastforge/pkg/spec"
	"github.com/lastforge/lastforge/pkg/store"
)

// Storage is the persistence collaborator the pipeline consumes.
// LoadAsset returns (nil, nil) when no asset exists; SaveAsset is an
// upsert unique on generation ID with a digest compare-and-swap.
type Storage interface {
	Generation(ctx context.Context, id lineage.GenerationID) (*lineage.Generation, error)
	LatestSnapshot(ctx context.Context, id lineage.GenerationID) (*store.SpecSnapshot, error)
	LoadAsset(ctx context.Context, id lineage.GenerationID) (*store.GeometryAsset, error)
	SaveAsset(ctx context.Context, a *store.GeometryAsset) (*store.GeometryAsset, error)
}

// Exporter serializes built geometry and assigns the byte-stream URIs
// recorded on the asset.
type Exporter interface {
	ExportMesh(ctx context.Context, digest identity.Digest, mesh *kernel.Mesh) (string, error)
	ExportAnchors(ctx context.Context, digest identity.Digest, anchors shoe.AnchorPoints) (string, error)
}

// Service is the derivation pipeline. Safe for concurrent use: the
// read-compare-write sequence is serialized per generation, and ancestor
// materialization fans out per distinct parent.
type Service struct {
	storage  Storage
	exporter Exporter
	builder  *shoe.Builder
	schema   spec.Schema
	cosmetic spec.NonInstrumentalSchema
	log      *slog.Logger

	mu    sync.Mutex
	locks map[lineage.GenerationID]*genLock
}

// genLock is a per-generation mutex with a waiter count, so map entries
// can be dropped once the last holder releases.
type genLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Service.
type Option func(*Service)

// WithSchemas overrides the built-in constraint schemas.
func WithSchemas(s spec.Schema, ns spec.NonInstrumentalSchema) Option {
	return func(svc *Service) {
		svc.schema = s
		svc.cosmetic = ns
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) { svc.log = l }
}

// NewService wires the pipeline over a storage collaborator and an
// exporter.
func NewService(storage Storage, exporter Exporter, opts ...Option) *Service {
	svc := &Service{
		storage:  storage,
		exporter: exporter,
		schema:   spec.DefaultSchema(),
		cosmetic: spec.DefaultNonInstrumentalSchema(),
		log:      slog.Default(),
		locks:    make(map[lineage.GenerationID]*genLock),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.builder = shoe.NewBuilder(svc.schema)
	return svc
}

// Validate checks spec trees against the service's schemas. The report is
// deterministic: issue order follows schema declaration order.
func (s *Service) Validate(instrumental, nonInstrumental spec.Tree) spec.Report {
	return spec.Validate(instrumental, nonInstrumental, s.schema, s.cosmetic)
}

// buildConfig carries the algorithm version and free-form build
// parameters folded into the digest.
type buildConfig struct {
	version string
	params  map[string]any
}

// BuildOption adjusts one EnsureGeometry call.
type BuildOption func(*buildConfig)

// WithBuildVersion overrides the algorithm version tag (default
// identity.BuildVersion). Changing it forces cache invalidation.
func WithBuildVersion(v string) BuildOption {
	return func(c *buildConfig) { c.version = v }
}

// WithBuildParams sets extra parameters that participate in the digest.
func WithBuildParams(p map[string]any) BuildOption {
	return func(c *buildConfig) { c.params = p }
}

// EnsureGeometry materializes the geometry asset for a generation,
// recursively materializing ancestors first. Calling it again with no
// intervening spec change returns the identical stored asset and performs
// no rebuild. The stored ancestry is checked acyclic up front, so the
// recursion below never needs its own cycle guard.
func (s *Service) EnsureGeometry(ctx context.Context, id lineage.GenerationID, opts ...BuildOption) (*store.GeometryAsset, error) {
	cfg := buildConfig{version: identity.BuildVersion}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := lineage.CheckAcyclic(id, func(pid lineage.GenerationID) ([]lineage.GenerationID, error) {
		gen, err := s.storage.Generation(ctx, pid)
		if err != nil {
			return nil, err
		}
		return gen.ParentIDs, nil
	}); err != nil {
		return nil, err
	}
	return s.ensure(ctx, id, cfg)
}

// ensure is one step of the depth-first materialization.
func (s *Service) ensure(ctx context.Context, id lineage.GenerationID, cfg buildConfig) (*store.GeometryAsset, error) {
	gen, err := s.storage.Generation(ctx, id)
	if err != nil {
		return nil, err
	}

	parents, err := s.materializeParents(ctx, gen, cfg)
	if err != nil {
		return nil, err
	}

	// Serialize the read-compare-write for this generation. Parents were
	// materialized before taking the lock, so recursion never holds two
	// locks at once.
	unlock := s.lockGeneration(id)
	defer unlock()

	snap, err := s.storage.LatestSnapshot(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &MissingSpecError{GenerationID: id}
		}
		return nil, err
	}

	report := spec.Validate(snap.Instrumental, snap.NonInstrumental, s.schema, s.cosmetic)
	if report.IsBlocking {
		return nil, &ValidationBlockedError{GenerationID: id, Report: report}
	}

	digest, err := identity.Compute(identity.Input{
		GenerationID: string(id),
		Instrumental: snap.Instrumental,
		Parents:      parents,
		BuildVersion: cfg.version,
		BuildParams:  cfg.params,
	})
	if err != nil {
		return nil, err
	}

	existing, err := s.storage.LoadAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Digest == digest {
		s.log.Debug("geometry cache hit", "generation", id.Short(), "digest", digest.Short())
		return existing, nil
	}

	instrumental, err := spec.FromTree(snap.Instrumental)
	if err != nil {
		// Unreachable past a non-blocking validation report.
		return nil, fmt.Errorf("derive: generation %s: %w", id.Short(), err)
	}
	result, err := s.builder.Build(instrumental)
	if err != nil {
		return nil, err
	}

	meshURI, err := s.exporter.ExportMesh(ctx, digest, result.Mesh)
	if err != nil {
		return nil, err
	}
	anchorsURI, err := s.exporter.ExportAnchors(ctx, digest, result.Anchors)
	if err != nil {
		return nil, err
	}

	stored, err := s.storage.SaveAsset(ctx, &store.GeometryAsset{
		GenerationID: id,
		MeshURI:      meshURI,
		AnchorsURI:   anchorsURI,
		Bounds:       result.Bounds,
		Digest:       digest,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("geometry rebuilt",
		"generation", id.Short(),
		"digest", digest.Short(),
		"vertices", result.Mesh.VertexCount(),
		"triangles", result.Mesh.TriangleCount())
	return stored, nil
}

// materializeParents ensures every parent has an asset and returns their
// digests. Distinct parents run in parallel; each parent's own
// read-compare-write remains serialized by its generation lock.
func (s *Service) materializeParents(ctx context.Context, gen *lineage.Generation, cfg buildConfig) ([]identity.Digest, error) {
	if gen.IsRoot() {
		return nil, nil
	}
	digests := make([]identity.Digest, len(gen.ParentIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, pid := range gen.ParentIDs {
		g.Go(func() error {
			asset, err := s.ensure(gctx, pid, cfg)
			if err != nil {
				return err
			}
			digests[i] = asset.Digest
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return digests, nil
}

// lockGeneration acquires the per-generation mutex and returns the
// release func. The map entry is removed when the last waiter releases,
// keeping the lock table proportional to in-flight derivations rather
// than to every generation ever seen.
func (s *Service) lockGeneration(id lineage.GenerationID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &genLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}
