package prep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghadfield32/ml-preprocessing-utils/pkg/dataset"
)

func fitSmallEncoder(t *testing.T) (*EncoderArtifact, *dataset.Registry) {
	t.Helper()
	tbl, err := dataset.NewTable(
		[]string{"grade", "city", "age"},
		[][]string{
			{"low", "NY", "30"},
			{"high", "LA", "40"},
			{"mid", "NY", "50"},
		})
	require.NoError(t, err)
	reg := makeRegistry(t, []string{"grade"}, []string{"city"}, []string{"age"})

	art, _, err := FitEncoder(tbl, reg, map[string][]string{"grade": {"low", "mid", "high"}})
	require.NoError(t, err)
	return art, reg
}

func TestFitEncoderFreezesLayout(t *testing.T) {
	art, _ := fitSmallEncoder(t)
	assert.Equal(t, []string{"grade", "city", "age"}, art.Input)
	assert.Equal(t, []string{"low", "mid", "high"}, art.Ordinal["grade"])
	assert.Equal(t, []string{"LA", "NY"}, art.Nominal["city"])
	assert.Equal(t, []string{"grade", "city_LA", "city_NY", "age"}, art.OutputColumns)
}

func TestApplyEncoderRespectsRankOrder(t *testing.T) {
	art, _ := fitSmallEncoder(t)
	tbl, err := dataset.NewTable(
		[]string{"grade", "city", "age"},
		[][]string{
			{"high", "LA", "40"},
			{"low", "NY", "30"},
		})
	require.NoError(t, err)

	f, recs, err := ApplyEncoder(tbl, art)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, []float64{2, 1, 0, 40}, f.Data[0])
	assert.Equal(t, []float64{0, 0, 1, 30}, f.Data[1])
}

func TestApplyEncoderColumnOrderStability(t *testing.T) {
	art, _ := fitSmallEncoder(t)
	// Same rows, but input columns shuffled and categories arriving in
	// a different order than at fit time.
	tbl, err := dataset.NewTable(
		[]string{"age", "grade", "city"},
		[][]string{
			{"50", "mid", "LA"},
			{"30", "low", "LA"},
			{"40", "high", "NY"},
		})
	require.NoError(t, err)

	f, _, err := ApplyEncoder(tbl, art)
	require.NoError(t, err)
	assert.Equal(t, art.OutputColumns, f.Columns)
}

func TestApplyEncoderUnseenNominalGoesToUnknownBucket(t *testing.T) {
	art, _ := fitSmallEncoder(t)
	tbl, err := dataset.NewTable(
		[]string{"grade", "city", "age"},
		[][]string{{"mid", "SF", "25"}})
	require.NoError(t, err)

	f, recs, err := ApplyEncoder(tbl, art)
	require.NoError(t, err)
	// All-zero one-hot block for the unseen city.
	assert.Equal(t, []float64{1, 0, 0, 25}, f.Data[0])
	require.Len(t, recs, 1)
	assert.Equal(t, "unknown-bucket", recs[0].Action)
	assert.Equal(t, "city", recs[0].Column)
}

func TestApplyEncoderUnseenOrdinalGetsReservedCode(t *testing.T) {
	art, _ := fitSmallEncoder(t)
	tbl, err := dataset.NewTable(
		[]string{"grade", "city", "age"},
		[][]string{{"critical", "NY", "25"}})
	require.NoError(t, err)

	f, recs, err := ApplyEncoder(tbl, art)
	require.NoError(t, err)
	assert.Equal(t, float64(UnknownOrdinalCode), f.Data[0][0])
	require.Len(t, recs, 1)
	assert.Equal(t, "unknown-ordinal", recs[0].Action)
}

func TestApplyEncoderMissingColumn(t *testing.T) {
	art, _ := fitSmallEncoder(t)
	tbl, err := dataset.NewTable(
		[]string{"grade", "age"},
		[][]string{{"mid", "25"}})
	require.NoError(t, err)

	_, _, err = ApplyEncoder(tbl, art)
	assert.ErrorIs(t, err, ErrColumnAbsent)
}

func TestFitEncoderRejectsUndeclaredOrdinalValue(t *testing.T) {
	tbl, err := dataset.NewTable(
		[]string{"grade"},
		[][]string{{"low"}, {"unheard-of"}})
	require.NoError(t, err)
	reg := makeRegistry(t, []string{"grade"}, nil, nil)

	_, _, err = FitEncoder(tbl, reg, map[string][]string{"grade": {"low", "mid", "high"}})
	assert.ErrorIs(t, err, dataset.ErrSchemaMismatch)
}

func TestTargetEncoding(t *testing.T) {
	t.Run("classification labels", func(t *testing.T) {
		art := FitTarget([]string{"yes", "no", "yes"})
		assert.True(t, art.Classification())
		assert.Equal(t, []string{"no", "yes"}, art.Classes)

		codes, err := ApplyTarget([]string{"no", "yes"}, art)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1}, codes)

		_, err = ApplyTarget([]string{"maybe"}, art)
		assert.Error(t, err)
	})

	t.Run("numeric target passes through", func(t *testing.T) {
		art := FitTarget([]string{"1.5", "2.5"})
		assert.False(t, art.Classification())

		codes, err := ApplyTarget([]string{"3.5"}, art)
		require.NoError(t, err)
		assert.Equal(t, []float64{3.5}, codes)
	})
}
