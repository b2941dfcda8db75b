// Package prep implements the fitted preprocessing stages: imputation,
// outlier filtering, categorical encoding, scaling, class balancing and
// the inverse transform. Each stage splits into a fit step that runs
// only during training and produces a serializable artifact, and an
// apply step that replays the artifact on new data.
package prep

import "errors"

// Mode selects which stages run and whether they fit or only apply.
type Mode string

const (
	ModeTrain   Mode = "train"
	ModePredict Mode = "predict"
	ModeCluster Mode = "cluster"
)

// Valid reports whether m is a recognized mode.
func (m Mode) Valid() bool {
	return m == ModeTrain || m == ModePredict || m == ModeCluster
}

// ArtifactVersion is stamped into every stage artifact. Loading an
// artifact with a different version fails rather than guessing.
const ArtifactVersion = 1

// Unrecoverable marks a cell the inverse transform could not
// reconstruct, e.g. a nominal value collapsed to the unknown bucket.
const Unrecoverable = "<unrecoverable>"

var (
	// ErrModeViolation reports a train-only stage invoked outside train mode.
	ErrModeViolation = errors.New("train-only stage invoked outside train mode")

	// ErrUnfittedArtifact reports a transform requested before any fit.
	ErrUnfittedArtifact = errors.New("transform requested before fit")

	// ErrColumnAbsent reports a column the artifact expects but the
	// incoming dataset lacks.
	ErrColumnAbsent = errors.New("expected column absent at apply time")

	// ErrInvalidTask reports class balancing requested without a
	// classification target.
	ErrInvalidTask = errors.New("class balancing requires a classification target")
)

// Record is an observational note describing what a stage did. Records
// accumulate into the run report and are never consumed by later stages.
type Record struct {
	Stage  string `json:"stage"`
	Column string `json:"column,omitempty"`
	Action string `json:"action"`
	Detail string `json:"detail,omitempty"`
}
