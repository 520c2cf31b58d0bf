// Package export serializes derived geometry to byte streams on disk and
// assigns the URIs recorded on the geometry asset. Bundle packaging (zip
// assembly, delivery) is the surrounding system's concern, not this
// package's.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lastforge/lastforge/pkg/identity"
	"github.com/lastforge/lastforge/pkg/kernel"
	"github.com/lastforge/lastforge/pkg/shoe"
)

// FileExporter writes digest-named artifacts under a base directory.
// Artifacts are content-addressed, so re-exporting the same digest
// overwrites byte-identical files and is safe to repeat.
type FileExporter struct {
	dir string
}

// NewFileExporter returns an exporter rooted at dir, creating it if
// needed.
func NewFileExporter(dir string) (*FileExporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create %s: %w", dir, err)
	}
	return &FileExporter{dir: dir}, nil
}

// ExportMesh writes the mesh as binary STL and returns its URI.
func (e *FileExporter) ExportMesh(ctx context.Context, digest identity.Digest, mesh *kernel.Mesh) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(e.dir, fmt.Sprintf("%s.stl", digest))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: create mesh file: %w", err)
	}
	defer f.Close()
	if err := WriteSTL(f, mesh); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	return "file://" + path, nil
}

// ExportAnchors writes the anchor point set as JSON and returns its URI.
func (e *FileExporter) ExportAnchors(ctx context.Context, digest identity.Digest, anchors shoe.AnchorPoints) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(e.dir, fmt.Sprintf("%s_anchors.json", digest))
	raw, err := json.MarshalIndent(anchors, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: encode anchors: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	return "file://" + path, nil
}
