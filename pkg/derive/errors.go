package derive

import (
	"fmt"

	"github.com/lastforge/lastforge/pkg/lineage"
	"github.com/lastforge/lastforge/pkg/spec"
)

// ValidationBlockedError means the generation's instrumental spec failed
// range/type/presence checks. The caller must fix the spec before
// retrying; the pipeline never retries this itself.
type ValidationBlockedError struct {
	GenerationID lineage.GenerationID
	Report       spec.Report
}

func (e *ValidationBlockedError) Error() string {
	return fmt.Sprintf("derive: generation %s blocked by %d instrumental spec issues",
		e.GenerationID.Short(), len(e.Report.InstrumentalIssues))
}

// MissingSpecError means no spec snapshot exists for the generation.
// This is a caller error, not a transient condition.
type MissingSpecError struct {
	GenerationID lineage.GenerationID
}

func (e *MissingSpecError) Error() string {
	return fmt.Sprintf("derive: no spec snapshot for generation %s", e.GenerationID.Short())
}
