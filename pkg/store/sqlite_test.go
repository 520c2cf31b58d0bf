package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lastforge/lastforge/pkg/identity"
	"github.com/lastforge/lastforge/pkg/kernel"
	"github.com/lastforge/lastforge/pkg/lineage"
	"github.com/lastforge/lastforge/pkg/spec"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func instrumentalTree() spec.Tree {
	return spec.InstrumentalSpec{
		ShoeLengthMM:    280,
		ShoeWidthMM:     105,
		SoleThicknessMM: 30,
		ArchHeightMM:    15,
		ToeSpringMM:     12,
		CollarHeightMM:  55,
	}.ToTree()
}

func TestGenerationRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	parent := &lineage.Generation{ProjectID: "p1", Origin: lineage.OriginImport}
	if err := db.AddGeneration(ctx, parent); err != nil {
		t.Fatalf("AddGeneration(parent): %v", err)
	}
	child := &lineage.Generation{
		ProjectID: "p1",
		Origin:    lineage.OriginRegenerate,
		ParentIDs: []lineage.GenerationID{parent.ID},
		IsActive:  true,
	}
	if err := db.AddGeneration(ctx, child); err != nil {
		t.Fatalf("AddGeneration(child): %v", err)
	}

	got, err := db.Generation(ctx, child.ID)
	if err != nil {
		t.Fatalf("Generation: %v", err)
	}
	if got.Origin != lineage.OriginRegenerate {
		t.Errorf("origin = %s", got.Origin)
	}
	if len(got.ParentIDs) != 1 || got.ParentIDs[0] != parent.ID {
		t.Errorf("parent ids = %v, want [%s]", got.ParentIDs, parent.ID)
	}
	if !got.IsActive {
		t.Error("IsActive lost in round trip")
	}
}

func TestGenerationNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Generation(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestGenerationRejectsUnknownOrigin(t *testing.T) {
	db := openTestDB(t)
	err := db.AddGeneration(context.Background(), &lineage.Generation{
		ProjectID: "p1",
		Origin:    "teleport",
	})
	if err == nil {
		t.Error("expected error for unknown origin")
	}
}

func TestLatestSnapshotOrdering(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	gen := &lineage.Generation{ProjectID: "p1", Origin: lineage.OriginGenerate}
	if err := db.AddGeneration(ctx, gen); err != nil {
		t.Fatalf("AddGeneration: %v", err)
	}

	base := time.Now().UTC()
	for i, length := range []float64{260.0, 270.0, 280.0} {
		tree := instrumentalTree()
		tree["overall_dimensions"].(map[string]any)["shoe_length_mm"] = length
		err := db.AddSnapshot(ctx, &SpecSnapshot{
			GenerationID: gen.ID,
			Instrumental: tree,
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("AddSnapshot: %v", err)
		}
	}

	latest, err := db.LatestSnapshot(ctx, gen.ID)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	got, _ := spec.FromTree(latest.Instrumental)
	if got.ShoeLengthMM != 280 {
		t.Errorf("latest snapshot length = %v, want 280", got.ShoeLengthMM)
	}
}

func TestLatestSnapshotMissing(t *testing.T) {
	db := openTestDB(t)
	_, err := db.LatestSnapshot(context.Background(), "gen-without-specs")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSnapshotNonInstrumentalOptional(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	gen := &lineage.Generation{ProjectID: "p1", Origin: lineage.OriginGenerate}
	if err := db.AddGeneration(ctx, gen); err != nil {
		t.Fatalf("AddGeneration: %v", err)
	}
	if err := db.AddSnapshot(ctx, &SpecSnapshot{
		GenerationID: gen.ID,
		Instrumental: instrumentalTree(),
	}); err != nil {
		t.Fatalf("AddSnapshot: %v", err)
	}
	snap, err := db.LatestSnapshot(ctx, gen.ID)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if snap.NonInstrumental != nil {
		t.Errorf("non-instrumental = %v, want nil", snap.NonInstrumental)
	}
}

func TestSaveAssetUpsertKeepsOneRow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	gen := &lineage.Generation{ProjectID: "p1", Origin: lineage.OriginGenerate}
	if err := db.AddGeneration(ctx, gen); err != nil {
		t.Fatalf("AddGeneration: %v", err)
	}

	if asset, err := db.LoadAsset(ctx, gen.ID); err != nil || asset != nil {
		t.Fatalf("LoadAsset before save = (%v, %v), want (nil, nil)", asset, err)
	}

	bounds := kernel.Bounds{Min: [3]float64{0, -50, 0}, Max: [3]float64{280, 50, 90}}
	for i, digest := range []identity.Digest{"digest-one", "digest-two", "digest-three"} {
		_, err := db.SaveAsset(ctx, &GeometryAsset{
			GenerationID: gen.ID,
			MeshURI:      "file:///tmp/" + string(digest) + ".stl",
			AnchorsURI:   "file:///tmp/" + string(digest) + ".json",
			Bounds:       bounds,
			Digest:       digest,
		})
		if err != nil {
			t.Fatalf("SaveAsset #%d: %v", i, err)
		}
	}

	n, err := db.AssetCount(ctx, gen.ID)
	if err != nil {
		t.Fatalf("AssetCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("asset rows = %d, want 1", n)
	}

	asset, err := db.LoadAsset(ctx, gen.ID)
	if err != nil {
		t.Fatalf("LoadAsset: %v", err)
	}
	if asset.Digest != "digest-three" {
		t.Errorf("digest = %s, want digest-three", asset.Digest)
	}
	if asset.Bounds != bounds {
		t.Errorf("bounds = %+v, want %+v", asset.Bounds, bounds)
	}
}

func TestSaveAssetSameDigestIsNoOp(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	gen := &lineage.Generation{ProjectID: "p1", Origin: lineage.OriginGenerate}
	if err := db.AddGeneration(ctx, gen); err != nil {
		t.Fatalf("AddGeneration: %v", err)
	}

	first, err := db.SaveAsset(ctx, &GeometryAsset{
		GenerationID: gen.ID,
		MeshURI:      "file:///tmp/a.stl",
		AnchorsURI:   "file:///tmp/a.json",
		Digest:       "same-digest",
	})
	if err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}

	// Same digest, different URIs: the guarded update must not fire.
	second, err := db.SaveAsset(ctx, &GeometryAsset{
		GenerationID: gen.ID,
		MeshURI:      "file:///tmp/other.stl",
		AnchorsURI:   "file:///tmp/other.json",
		Digest:       "same-digest",
	})
	if err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}
	if second.MeshURI != first.MeshURI {
		t.Errorf("mesh URI rewritten on matching digest: %s", second.MeshURI)
	}
	if second.UpdatedAt != first.UpdatedAt {
		t.Errorf("updated_at rewritten on matching digest")
	}
}

func TestSetActive(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	gen := &lineage.Generation{ProjectID: "p1", Origin: lineage.OriginGenerate}
	if err := db.AddGeneration(ctx, gen); err != nil {
		t.Fatalf("AddGeneration: %v", err)
	}
	if err := db.SetActive(ctx, gen.ID, true); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	got, err := db.Generation(ctx, gen.ID)
	if err != nil {
		t.Fatalf("Generation: %v", err)
	}
	if !got.IsActive {
		t.Error("IsActive not persisted")
	}
	if err := db.SetActive(ctx, "missing", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetActive(missing) = %v, want ErrNotFound", err)
	}
}
