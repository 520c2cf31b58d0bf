package spec

import "fmt"

// IssueKind classifies a single validation finding.
type IssueKind string

const (
	IssueMissing     IssueKind = "missing"
	IssueInvalidType IssueKind = "invalid_type"
	IssueOutOfRange  IssueKind = "out_of_range"
)

// Issue describes one instrumental validation finding. For out_of_range
// issues Min and Max carry the violated rule's bounds and Received the
// offending value; for invalid_type Received carries the Go type name.
type Issue struct {
	Path     string    `json:"path"`
	Kind     IssueKind `json:"issue"`
	Detail   string    `json:"detail"`
	Min      float64   `json:"min,omitempty"`
	Max      float64   `json:"max,omitempty"`
	Received any       `json:"received,omitempty"`
}

func (i Issue) String() string {
	switch i.Kind {
	case IssueOutOfRange:
		return fmt.Sprintf("%s: %v outside [%v, %v]", i.Path, i.Received, i.Min, i.Max)
	case IssueInvalidType:
		return fmt.Sprintf("%s: got %v, want number", i.Path, i.Received)
	default:
		return fmt.Sprintf("%s: %s", i.Path, i.Kind)
	}
}

// Report is the outcome of validating one snapshot's spec trees.
// Geometry derivation is blocked iff IsBlocking; the missing cosmetic
// paths are advisory input for the defaulting workflow only.
type Report struct {
	IsBlocking             bool     `json:"is_blocking"`
	InstrumentalIssues     []Issue  `json:"instrumental_issues"`
	MissingNonInstrumental []string `json:"missing_non_instrumental"`
	Summary                string   `json:"summary"`
}

// Validate checks the instrumental tree against the constraint schema and
// the cosmetic tree against the canonical field list. Both traversals
// follow schema declaration order, so the report is deterministic.
func Validate(instrumental, nonInstrumental Tree, s Schema, ns NonInstrumentalSchema) Report {
	var issues []Issue
	for _, rule := range s.Rules {
		v, ok := lookup(instrumental, rule.Path)
		if !ok {
			issues = append(issues, Issue{
				Path:   rule.Path,
				Kind:   IssueMissing,
				Detail: "required instrumental field is missing",
			})
			continue
		}
		n, ok := toFloat(v)
		if !ok {
			issues = append(issues, Issue{
				Path:     rule.Path,
				Kind:     IssueInvalidType,
				Detail:   "expected number",
				Received: fmt.Sprintf("%T", v),
			})
			continue
		}
		if n < rule.Min {
			issues = append(issues, Issue{
				Path:     rule.Path,
				Kind:     IssueOutOfRange,
				Detail:   "value below minimum",
				Min:      rule.Min,
				Max:      rule.Max,
				Received: n,
			})
		}
		if n > rule.Max {
			issues = append(issues, Issue{
				Path:     rule.Path,
				Kind:     IssueOutOfRange,
				Detail:   "value above maximum",
				Min:      rule.Min,
				Max:      rule.Max,
				Received: n,
			})
		}
	}

	var missing []string
	for _, path := range ns.Paths {
		if _, ok := lookup(nonInstrumental, path); !ok {
			missing = append(missing, path)
		}
	}

	r := Report{
		IsBlocking:             len(issues) > 0,
		InstrumentalIssues:     issues,
		MissingNonInstrumental: missing,
	}
	if r.IsBlocking {
		r.Summary = "blocking instrumental spec errors present"
	} else {
		r.Summary = "instrumental specs valid"
	}
	if len(missing) > 0 {
		r.Summary += fmt.Sprintf("; %d non-instrumental fields missing", len(missing))
	}
	return r
}
