package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghadfield32/ml-preprocessing-utils/pkg/artifact"
	"github.com/ghadfield32/ml-preprocessing-utils/pkg/config"
	"github.com/ghadfield32/ml-preprocessing-utils/pkg/dataset"
	"github.com/ghadfield32/ml-preprocessing-utils/pkg/prep"
)

func testOptions(dir string) *config.Options {
	return &config.Options{
		OutlierDetector:  "none",
		SmoteVariant:     "none",
		ArtifactPath:     dir,
		RandomSeed:       42,
		TestRatio:        0.25,
		InverseTransform: true,
	}
}

// cityTrainingTable builds 20 rows over {NY, LA} with numeric age and
// income and a balanced yes/no label.
func cityTrainingTable(t *testing.T) (*dataset.Table, []string) {
	t.Helper()
	var rows [][]string
	var labels []string
	cities := []string{"NY", "LA"}
	for i := 0; i < 20; i++ {
		rows = append(rows, []string{
			cities[i%2],
			fmt.Sprintf("%d", 20+i),
			fmt.Sprintf("%d", 40000+1000*i),
		})
		if i < 10 {
			labels = append(labels, "yes")
		} else {
			labels = append(labels, "no")
		}
	}
	tbl, err := dataset.NewTable([]string{"city", "age", "income"}, rows)
	require.NoError(t, err)
	return tbl, labels
}

func trainCityModel(t *testing.T, dir string) *TrainResult {
	t.Helper()
	orch, err := New("lead_scoring", []string{"converted"}, nil, []string{"city"}, []string{"age", "income"},
		prep.ModeTrain, testOptions(dir), false)
	require.NoError(t, err)

	tbl, labels := cityTrainingTable(t)
	result, err := orch.PreprocessTrain(tbl, labels)
	require.NoError(t, err)
	return result
}

func newPredictOrchestrator(t *testing.T, dir string, mode prep.Mode) *Orchestrator {
	t.Helper()
	orch, err := New("lead_scoring", []string{"converted"}, nil, []string{"city"}, []string{"age", "income"},
		mode, testOptions(dir), false)
	require.NoError(t, err)
	return orch
}

func TestTrainProducesSplitsAndArtifacts(t *testing.T) {
	dir := t.TempDir()
	result := trainCityModel(t, dir)

	assert.Equal(t, []string{"city_LA", "city_NY", "age", "income"}, result.TrainX.Columns)
	assert.Equal(t, 16, result.TrainX.NumRows())
	assert.Equal(t, 4, result.TestX.NumRows())
	assert.Len(t, result.TrainY, 16)
	assert.Len(t, result.TestY, 4)
	require.NotNil(t, result.InverseTest)
	assert.Equal(t, []string{"city", "age", "income"}, result.InverseTest.Columns)
	assert.NotEmpty(t, result.Report.RunID)

	store, err := artifact.NewStore(dir, "lead_scoring")
	require.NoError(t, err)
	for _, key := range [][2]string{
		{"impute", "features"}, {"encode", "features"}, {"scale", "numeric"}, {"target", "labels"},
	} {
		assert.True(t, store.Exists(key[0], key[1]), "artifact %s.%s", key[0], key[1])
	}
}

// End-to-end scenario: a city never seen in training routes to the
// all-zero unknown bucket, the report says so, and the inverse marks
// it unrecoverable.
func TestPredictUnseenCategory(t *testing.T) {
	dir := t.TempDir()
	trained := trainCityModel(t, dir)
	orch := newPredictOrchestrator(t, dir, prep.ModePredict)

	tbl, err := dataset.NewTable(
		[]string{"city", "age", "income"},
		[][]string{{"SF", "33", "52000"}})
	require.NoError(t, err)

	result, err := orch.PreprocessPredict(tbl)
	require.NoError(t, err)
	assert.Equal(t, trained.TrainX.Columns, result.X.Columns)
	assert.Equal(t, 0.0, result.X.Data[0][0])
	assert.Equal(t, 0.0, result.X.Data[0][1])

	var sawUnknown bool
	for _, rec := range result.Report.Records {
		if rec.Action == "unknown-bucket" && rec.Column == "city" {
			sawUnknown = true
		}
	}
	assert.True(t, sawUnknown, "report must list the unseen category")

	require.NotNil(t, result.Inverse)
	assert.Equal(t, prep.Unrecoverable, result.Inverse.Rows[0][0])
}

func TestPredictIdempotentAndOrderStable(t *testing.T) {
	dir := t.TempDir()
	trained := trainCityModel(t, dir)
	orch := newPredictOrchestrator(t, dir, prep.ModePredict)

	// Columns arrive in a different order than training declared.
	tbl, err := dataset.NewTable(
		[]string{"income", "city", "age"},
		[][]string{
			{"41000", "LA", "21"},
			{"48000", "NY", "28"},
		})
	require.NoError(t, err)

	first, err := orch.PreprocessPredict(tbl)
	require.NoError(t, err)
	second, err := orch.PreprocessPredict(tbl)
	require.NoError(t, err)

	assert.Equal(t, trained.TrainX.Columns, first.X.Columns)
	assert.Equal(t, first.X.Data, second.X.Data)
}

// End-to-end scenario: training with a 90/10 class split and balancing
// enabled equalizes train label counts and leaves the test split alone.
func TestTrainClassBalancing(t *testing.T) {
	var rows [][]string
	var labels []string
	for i := 0; i < 100; i++ {
		rows = append(rows, []string{fmt.Sprintf("%d", i), fmt.Sprintf("%d", 2*i)})
		if i < 90 {
			labels = append(labels, "no")
		} else {
			labels = append(labels, "yes")
		}
	}
	tbl, err := dataset.NewTable([]string{"x", "y"}, rows)
	require.NoError(t, err)

	opts := testOptions(t.TempDir())
	opts.SmoteVariant = "smote"
	opts.TestRatio = 0.2
	orch, err := New("churn", []string{"label"}, nil, nil, []string{"x", "y"},
		prep.ModeTrain, opts, false)
	require.NoError(t, err)

	result, err := orch.PreprocessTrain(tbl, labels)
	require.NoError(t, err)

	count := func(y []float64, label float64) int {
		n := 0
		for _, v := range y {
			if v == label {
				n++
			}
		}
		return n
	}
	// Classes sort to ["no", "yes"]: no=0, yes=1.
	assert.Equal(t, 72, count(result.TrainY, 0))
	assert.Equal(t, 72, count(result.TrainY, 1))
	assert.Equal(t, 18, count(result.TestY, 0))
	assert.Equal(t, 2, count(result.TestY, 1))
}

// End-to-end scenario: a numeric column the training artifacts expect
// is missing from the predict input.
func TestPredictMissingColumn(t *testing.T) {
	dir := t.TempDir()
	trainCityModel(t, dir)
	orch := newPredictOrchestrator(t, dir, prep.ModePredict)

	tbl, err := dataset.NewTable(
		[]string{"city", "age"},
		[][]string{{"NY", "33"}})
	require.NoError(t, err)

	result, err := orch.PreprocessPredict(tbl)
	assert.ErrorIs(t, err, prep.ErrColumnAbsent)
	assert.Nil(t, result)
}

func TestPredictBeforeTrainMissingArtifacts(t *testing.T) {
	orch := newPredictOrchestrator(t, t.TempDir(), prep.ModePredict)
	tbl, err := dataset.NewTable(
		[]string{"city", "age", "income"},
		[][]string{{"NY", "33", "52000"}})
	require.NoError(t, err)

	_, err = orch.PreprocessPredict(tbl)
	assert.ErrorIs(t, err, artifact.ErrMissingArtifacts)
}

func TestClusterModeNeedsNoTargetAndSkipsInverse(t *testing.T) {
	dir := t.TempDir()
	trainCityModel(t, dir)
	orch, err := New("lead_scoring", nil, nil, []string{"city"}, []string{"age", "income"},
		prep.ModeCluster, testOptions(dir), false)
	require.NoError(t, err)

	tbl, err := dataset.NewTable(
		[]string{"city", "age", "income"},
		[][]string{{"NY", "33", "52000"}})
	require.NoError(t, err)

	result, err := orch.PreprocessPredict(tbl)
	require.NoError(t, err)
	assert.NotNil(t, result.X)
	assert.Nil(t, result.Inverse)
}

func TestModeEntryPointsGuarded(t *testing.T) {
	dir := t.TempDir()
	tbl, labels := cityTrainingTable(t)

	trainOrch, err := New("lead_scoring", []string{"converted"}, nil, []string{"city"}, []string{"age", "income"},
		prep.ModeTrain, testOptions(dir), false)
	require.NoError(t, err)
	_, err = trainOrch.PreprocessPredict(tbl)
	assert.ErrorIs(t, err, prep.ErrModeViolation)

	predictOrch := newPredictOrchestrator(t, dir, prep.ModePredict)
	_, err = predictOrch.PreprocessTrain(tbl, labels)
	assert.ErrorIs(t, err, prep.ErrModeViolation)
}

func TestTrainRejectsUndeclaredColumn(t *testing.T) {
	orch, err := New("lead_scoring", []string{"converted"}, nil, []string{"city"}, []string{"age"},
		prep.ModeTrain, testOptions(t.TempDir()), false)
	require.NoError(t, err)

	tbl, err := dataset.NewTable(
		[]string{"city", "age", "mystery"},
		[][]string{{"NY", "30", "x"}})
	require.NoError(t, err)

	_, err = orch.PreprocessTrain(tbl, []string{"yes"})
	assert.ErrorIs(t, err, dataset.ErrSchemaMismatch)
}

func TestTrainLabelCountMismatch(t *testing.T) {
	orch, err := New("lead_scoring", []string{"converted"}, nil, []string{"city"}, []string{"age"},
		prep.ModeTrain, testOptions(t.TempDir()), false)
	require.NoError(t, err)

	tbl, err := dataset.NewTable(
		[]string{"city", "age"},
		[][]string{{"NY", "30"}, {"LA", "40"}})
	require.NoError(t, err)

	_, err = orch.PreprocessTrain(tbl, []string{"yes"})
	assert.ErrorIs(t, err, dataset.ErrSchemaMismatch)
}

func TestTrainRunsOnce(t *testing.T) {
	dir := t.TempDir()
	orch, err := New("lead_scoring", []string{"converted"}, nil, []string{"city"}, []string{"age", "income"},
		prep.ModeTrain, testOptions(dir), false)
	require.NoError(t, err)

	tbl, labels := cityTrainingTable(t)
	_, err = orch.PreprocessTrain(tbl, labels)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, orch.State())

	_, err = orch.PreprocessTrain(tbl, labels)
	assert.Error(t, err)
}
