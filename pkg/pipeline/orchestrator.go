// Package pipeline sequences the preprocessing stages per mode. A
// train run fits every stage and persists its artifacts; predict and
// cluster runs replay those artifacts on new data without refitting.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/ghadfield32/ml-preprocessing-utils/pkg/artifact"
	"github.com/ghadfield32/ml-preprocessing-utils/pkg/config"
	"github.com/ghadfield32/ml-preprocessing-utils/pkg/dataset"
	"github.com/ghadfield32/ml-preprocessing-utils/pkg/loader"
	"github.com/ghadfield32/ml-preprocessing-utils/pkg/prep"
)

// Store addressing: one record per fitted stage.
const (
	stageImpute = "impute"
	stageEncode = "encode"
	stageScale  = "scale"
	stageTarget = "target"

	groupFeatures = "features"
	groupNumeric  = "numeric"
	groupLabels   = "labels"
)

// State tracks the orchestrator lifecycle.
type State string

const (
	StateConfigured State = "configured"
	StateComplete   State = "complete"
)

// Orchestrator is the public entry point. Column roles and mode are
// fixed at construction; one instance processes one dataset per
// invocation, synchronously.
type Orchestrator struct {
	modelType string
	reg       *dataset.Registry
	opts      config.Options
	mode      prep.Mode
	store     *artifact.Store
	log       *slog.Logger
	state     State
}

// TrainResult is the output of a training run.
type TrainResult struct {
	TrainX *dataset.Frame
	TestX  *dataset.Frame
	TrainY []float64
	TestY  []float64
	Report *Report
	// InverseTest reconstructs the test split's original feature
	// values; nil when inverse_transform is disabled.
	InverseTest *dataset.Table
}

// PredictResult is the output of a predict or cluster run.
type PredictResult struct {
	X      *dataset.Frame
	Report *Report
	// Inverse is populated in predict mode when inverse_transform is
	// enabled; cluster runs never request it.
	Inverse *dataset.Table
}

// New builds an orchestrator for one model type. opts may be nil, in
// which case the documented defaults apply.
func New(modelType string, targets, ordinals, nominals, numerics []string, mode prep.Mode, opts *config.Options, debug bool) (*Orchestrator, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	o := config.Default()
	if opts != nil {
		o = *opts
		o.ApplyDefaults()
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	reg, err := dataset.NewRegistry(ordinals, nominals, numerics, targets, o.IgnoredColumns)
	if err != nil {
		return nil, err
	}
	store, err := artifact.NewStore(o.ArtifactPath, modelType)
	if err != nil {
		return nil, err
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("model", modelType, "mode", string(mode))
	return &Orchestrator{
		modelType: modelType,
		reg:       reg,
		opts:      o,
		mode:      mode,
		store:     store,
		log:       log,
		state:     StateConfigured,
	}, nil
}

// State returns the lifecycle state.
func (o *Orchestrator) State() State { return o.state }

// PreprocessTrain runs the full training sequence: impute, outlier
// filter, encode, scale, split and (for classification) balance, in
// that fixed order. Artifacts persist only after every stage has
// succeeded, so a failed run leaves no partial artifact set.
func (o *Orchestrator) PreprocessTrain(features *dataset.Table, labels []string) (*TrainResult, error) {
	if o.mode != prep.ModeTrain {
		return nil, fmt.Errorf("preprocess_train in %s mode: %w", o.mode, prep.ErrModeViolation)
	}
	if o.state != StateConfigured {
		return nil, fmt.Errorf("orchestrator already %s, construct a new instance to retrain", o.state)
	}
	if err := o.reg.Validate(features); err != nil {
		return nil, err
	}
	if len(o.reg.Targets()) > 0 && len(labels) != features.NumRows() {
		return nil, fmt.Errorf("%d labels for %d rows: %w", len(labels), features.NumRows(), dataset.ErrSchemaMismatch)
	}

	report := newReport(o.mode)
	table := features
	y := append([]string(nil), labels...)

	var (
		impArt *prep.ImputerArtifact
		encArt *prep.EncoderArtifact
		sclArt *prep.ScalerArtifact
		tgtArt *prep.TargetArtifact
		frame  *dataset.Frame
		codes  []float64
		result = &TrainResult{Report: report}
	)

	for _, step := range stagePlan[prep.ModeTrain] {
		var err error
		switch step.name {
		case "impute":
			var recs []prep.Record
			impArt, recs, err = prep.FitImputer(table, o.reg, prep.ImputeStrategy(o.opts.ImputationStrategy), o.opts.MissingDropThreshold)
			if err != nil {
				return nil, err
			}
			report.add(recs...)
			table, recs, err = prep.ApplyImputer(table, impArt)
			if err != nil {
				return nil, err
			}
			report.add(recs...)

		case "outlier":
			if o.opts.OutlierDetector == "none" {
				continue
			}
			numFrame, ferr := numericFrame(table, o.reg.Numerics())
			if ferr != nil {
				return nil, ferr
			}
			_, keep, recs, ferr := prep.FilterOutliers(o.mode, numFrame, numFrame.Columns, prep.Detector(o.opts.OutlierDetector), o.opts.RandomSeed)
			if ferr != nil {
				return nil, ferr
			}
			report.add(recs...)
			table = table.Select(keep)
			if len(y) > 0 {
				kept := make([]string, len(keep))
				for k, i := range keep {
					kept[k] = y[i]
				}
				y = kept
			}

		case "encode":
			var recs []prep.Record
			encArt, recs, err = prep.FitEncoder(table, o.reg, o.opts.OrdinalLevels)
			if err != nil {
				return nil, err
			}
			report.add(recs...)
			frame, recs, err = prep.ApplyEncoder(table, encArt)
			if err != nil {
				return nil, err
			}
			report.add(recs...)
			if len(o.reg.Targets()) > 0 {
				tgtArt = prep.FitTarget(y)
				codes, err = prep.ApplyTarget(y, tgtArt)
				if err != nil {
					return nil, err
				}
			}

		case "scale":
			var recs []prep.Record
			sclArt, recs, err = prep.FitScaler(frame, o.scaledColumns(encArt), prep.ScalerKind(o.opts.ScalerChoice))
			if err != nil {
				return nil, err
			}
			report.add(recs...)
			frame, err = prep.ApplyScaler(frame, sclArt)
			if err != nil {
				return nil, err
			}

		case "split":
			stratify := tgtArt.Classification()
			result.TrainX, result.TestX, result.TrainY, result.TestY =
				loader.TrainTestSplit(frame, codes, o.opts.TestRatio, o.opts.RandomSeed, stratify)

		case "balance":
			if !tgtArt.Classification() || o.opts.SmoteVariant == "none" {
				continue
			}
			var recs []prep.Record
			result.TrainX.Data, result.TrainY, recs, err = prep.Resample(
				o.mode, result.TrainX.Data, result.TrainY,
				prep.BalanceTechnique(o.opts.SmoteVariant), o.opts.RandomSeed)
			if err != nil {
				return nil, err
			}
			report.add(recs...)
		}
		o.log.Debug("stage complete", "stage", step.name, "fit", step.fit)
	}

	if err := o.persist(impArt, encArt, sclArt, tgtArt); err != nil {
		return nil, err
	}

	if o.opts.InverseTransform {
		inv, recs, err := prep.InverseTransform(result.TestX, sclArt, encArt)
		if err != nil {
			return nil, err
		}
		report.add(recs...)
		result.InverseTest = inv
	}

	o.state = StateComplete
	o.log.Info("training preprocessing complete",
		"train_rows", result.TrainX.NumRows(), "test_rows", result.TestX.NumRows(),
		"columns", len(result.TrainX.Columns), "run", report.RunID)
	return result, nil
}

// PreprocessPredict replays the fitted transforms on new data. It
// requires the artifact set a prior training run persisted; outlier
// filtering and balancing never run here. In cluster mode no target is
// expected and no inversion is produced.
func (o *Orchestrator) PreprocessPredict(features *dataset.Table) (*PredictResult, error) {
	if o.mode == prep.ModeTrain {
		return nil, fmt.Errorf("preprocess_predict in train mode: %w", prep.ErrModeViolation)
	}
	impArt, encArt, sclArt, err := o.loadArtifacts()
	if err != nil {
		return nil, err
	}
	if err := o.reg.ValidateKnown(features); err != nil {
		return nil, err
	}

	report := newReport(o.mode)
	table := features
	var frame *dataset.Frame

	for _, step := range stagePlan[o.mode] {
		var recs []prep.Record
		switch step.name {
		case "impute":
			table, recs, err = prep.ApplyImputer(table, impArt)
		case "encode":
			frame, recs, err = prep.ApplyEncoder(table, encArt)
		case "scale":
			frame, err = prep.ApplyScaler(frame, sclArt)
		}
		if err != nil {
			return nil, err
		}
		report.add(recs...)
		o.log.Debug("stage complete", "stage", step.name, "fit", step.fit)
	}

	result := &PredictResult{X: frame, Report: report}
	if o.mode == prep.ModePredict && o.opts.InverseTransform {
		inv, recs, err := prep.InverseTransform(frame, sclArt, encArt)
		if err != nil {
			return nil, err
		}
		report.add(recs...)
		result.Inverse = inv
	}
	o.log.Info("inference preprocessing complete",
		"rows", frame.NumRows(), "columns", len(frame.Columns), "run", report.RunID)
	return result, nil
}

// scaledColumns is the explicit role boundary of the scaling stage:
// declared numeric columns, plus one-hot outputs only when configured.
func (o *Orchestrator) scaledColumns(encArt *prep.EncoderArtifact) []string {
	cols := append([]string(nil), encArt.Numeric...)
	if o.opts.ScaleOneHot {
		for _, name := range encArt.Input {
			for _, cat := range encArt.Nominal[name] {
				cols = append(cols, name+"_"+cat)
			}
		}
	}
	return cols
}

func (o *Orchestrator) persist(imp *prep.ImputerArtifact, enc *prep.EncoderArtifact, scl *prep.ScalerArtifact, tgt *prep.TargetArtifact) error {
	if err := o.store.Save(stageImpute, groupFeatures, imp); err != nil {
		return err
	}
	if err := o.store.Save(stageEncode, groupFeatures, enc); err != nil {
		return err
	}
	if err := o.store.Save(stageScale, groupNumeric, scl); err != nil {
		return err
	}
	if tgt != nil {
		if err := o.store.Save(stageTarget, groupLabels, tgt); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) loadArtifacts() (*prep.ImputerArtifact, *prep.EncoderArtifact, *prep.ScalerArtifact, error) {
	var imp prep.ImputerArtifact
	if err := o.store.Load(stageImpute, groupFeatures, &imp, prep.ArtifactVersion); err != nil {
		return nil, nil, nil, err
	}
	var enc prep.EncoderArtifact
	if err := o.store.Load(stageEncode, groupFeatures, &enc, prep.ArtifactVersion); err != nil {
		return nil, nil, nil, err
	}
	var scl prep.ScalerArtifact
	if err := o.store.Load(stageScale, groupNumeric, &scl, prep.ArtifactVersion); err != nil {
		return nil, nil, nil, err
	}
	return &imp, &enc, &scl, nil
}

// numericFrame extracts the named columns of a table as floats for the
// outlier detectors. Runs after imputation, so every cell parses.
func numericFrame(t *dataset.Table, cols []string) (*dataset.Frame, error) {
	var present []string
	var idx []int
	for _, name := range cols {
		if j := t.ColumnIndex(name); j >= 0 {
			present = append(present, name)
			idx = append(idx, j)
		}
	}
	data := make([][]float64, t.NumRows())
	for i, row := range t.Rows {
		out := make([]float64, len(idx))
		for k, j := range idx {
			f, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, fmt.Errorf("numeric column %q row %d: %v", present[k], i, err)
			}
			out[k] = f
		}
		data[i] = out
	}
	return &dataset.Frame{Columns: present, Data: data}, nil
}
