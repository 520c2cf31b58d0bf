// Package identity computes the content-addressed geometry identity of a
// generation. The digest is a pure function of the generation's own
// instrumental spec, its ancestors' digests, and the build algorithm
// version, so equal design states always share an address and any change
// to spec, ancestry, or algorithm forces a new one.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// BuildVersion tags the geometry algorithm revision folded into every
// digest. Bumping it invalidates all cached assets on deploy.
const BuildVersion = "v1"

// Digest is a 64-character lowercase hex sha256 content address.
type Digest string

// Short returns an abbreviated digest for log and error messages.
func (d Digest) Short() string {
	if len(d) <= 12 {
		return string(d)
	}
	return string(d[:12])
}

// IsZero reports whether the digest is unset.
func (d Digest) IsZero() bool { return d == "" }

// Input is everything that participates in a generation's geometry
// identity. Parents holds ancestor digests; enumeration order does not
// matter because Compute sorts them.
type Input struct {
	GenerationID string
	Instrumental map[string]any
	Parents      []Digest
	BuildVersion string
	BuildParams  map[string]any
}

// Compute canonicalizes the input and returns its sha256 digest.
//
// Canonical form: JSON with lexicographically sorted object keys and no
// incidental whitespace (encoding/json already guarantees both for maps),
// shortest-round-trip float formatting, and parent digests sorted so the
// hash is independent of ancestor enumeration order.
func Compute(in Input) (Digest, error) {
	parents := make([]string, 0, len(in.Parents))
	for _, p := range in.Parents {
		if p.IsZero() {
			continue
		}
		parents = append(parents, string(p))
	}
	sort.Strings(parents)

	version := in.BuildVersion
	if version == "" {
		version = BuildVersion
	}
	params := in.BuildParams
	if params == nil {
		params = map[string]any{}
	}
	instrumental := in.Instrumental
	if instrumental == nil {
		instrumental = map[string]any{}
	}

	payload := map[string]any{
		"generation_id":      in.GenerationID,
		"instrumental_specs": instrumental,
		"parents":            parents,
		"geom_version":       version,
		"geom_params":        params,
	}
	canonical, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("identity: canonicalize: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return Digest(hex.EncodeToString(sum[:])), nil
}
