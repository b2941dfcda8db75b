package pipeline

import "github.com/ghadfield32/ml-preprocessing-utils/pkg/prep"

// stageStep names one pipeline stage and whether it fits new state or
// only applies persisted state.
type stageStep struct {
	name string
	fit  bool
}

// stagePlan pins down, in one auditable place, which stages run for
// each mode and in what order. Outlier filtering, the train/test split
// and class balancing exist only under train; predict and cluster
// replay the fitted transforms and nothing else.
var stagePlan = map[prep.Mode][]stageStep{
	prep.ModeTrain: {
		{name: "impute", fit: true},
		{name: "outlier", fit: true},
		{name: "encode", fit: true},
		{name: "scale", fit: true},
		{name: "split", fit: true},
		{name: "balance", fit: true},
	},
	prep.ModePredict: {
		{name: "impute", fit: false},
		{name: "encode", fit: false},
		{name: "scale", fit: false},
	},
	prep.ModeCluster: {
		{name: "impute", fit: false},
		{name: "encode", fit: false},
		{name: "scale", fit: false},
	},
}
