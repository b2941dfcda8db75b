package pipeline

import (
	"github.com/google/uuid"

	"github.com/ghadfield32/ml-preprocessing-utils/pkg/prep"
)

// Report accumulates the recommendation records emitted by each stage
// of one run. It is purely observational: nothing downstream consumes
// it.
type Report struct {
	RunID   string        `json:"run_id"`
	Mode    string        `json:"mode"`
	Records []prep.Record `json:"records"`
}

func newReport(mode prep.Mode) *Report {
	return &Report{RunID: uuid.NewString(), Mode: string(mode)}
}

func (r *Report) add(recs ...prep.Record) {
	r.Records = append(r.Records, recs...)
}
