package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetflow/excel-etl/internal/models"
	"github.com/sheetflow/excel-etl/internal/table"
)

func TestApplyRenameColumns(t *testing.T) {
	tbl := table.New([]string{"ts", "val"})
	require.NoError(t, tbl.Append([]any{"2024-01-01", 10}))

	tr, err := New(models.TransformationsConfig{
		RenameColumns: map[string]string{
			"ts":      "timestamp",
			"missing": "ignored",
		},
	})
	require.NoError(t, err)

	require.NoError(t, tr.Apply(tbl))
	assert.Equal(t, []string{"timestamp", "val"}, tbl.Columns())
}

func TestApplyDateColumns(t *testing.T) {
	tbl := table.New([]string{"created_at", "val"})
	require.NoError(t, tbl.Append([]any{"2024-03-05", 1}))
	require.NoError(t, tbl.Append([]any{"2024-03-06T10:30:00Z", 2}))
	require.NoError(t, tbl.Append([]any{nil, 3}))

	tr, err := New(models.TransformationsConfig{DateColumns: []string{"created_at"}})
	require.NoError(t, err)

	require.NoError(t, tr.Apply(tbl))

	first, ok := tbl.Row(0)[0].(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2024, first.Year())
	assert.Equal(t, time.March, first.Month())

	second, ok := tbl.Row(1)[0].(time.Time)
	require.True(t, ok)
	assert.Equal(t, 10, second.Hour())

	assert.Nil(t, tbl.Row(2)[0])
}

func TestApplyDateColumnsEpochNumbers(t *testing.T) {
	// JSON payloads decode numbers as float64; epoch-second timestamps must
	// still coerce.
	tbl := table.New([]string{"ts"})
	require.NoError(t, tbl.Append([]any{float64(1700000000)}))
	require.NoError(t, tbl.Append([]any{float32(86400)}))
	require.NoError(t, tbl.Append([]any{int64(1700000001)}))

	tr, err := New(models.TransformationsConfig{DateColumns: []string{"ts"}})
	require.NoError(t, err)

	require.NoError(t, tr.Apply(tbl))

	first, ok := tbl.Row(0)[0].(time.Time)
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), first.Unix())

	second, ok := tbl.Row(1)[0].(time.Time)
	require.True(t, ok)
	assert.Equal(t, int64(86400), second.Unix())

	third, ok := tbl.Row(2)[0].(time.Time)
	require.True(t, ok)
	assert.Equal(t, int64(1700000001), third.Unix())
}

func TestApplyDateColumnsRunAfterRename(t *testing.T) {
	tbl := table.New([]string{"ts"})
	require.NoError(t, tbl.Append([]any{"2024-03-05"}))

	tr, err := New(models.TransformationsConfig{
		RenameColumns: map[string]string{"ts": "timestamp"},
		DateColumns:   []string{"timestamp"},
	})
	require.NoError(t, err)

	require.NoError(t, tr.Apply(tbl))

	_, ok := tbl.Row(0)[0].(time.Time)
	assert.True(t, ok)
}

func TestApplyDateColumnErrors(t *testing.T) {
	t.Run("unparseable cell", func(t *testing.T) {
		tbl := table.New([]string{"created_at"})
		require.NoError(t, tbl.Append([]any{"not-a-date"}))

		tr, err := New(models.TransformationsConfig{DateColumns: []string{"created_at"}})
		require.NoError(t, err)

		err = tr.Apply(tbl)
		require.Error(t, err)
		assert.ErrorContains(t, err, "created_at")
	})

	t.Run("missing column", func(t *testing.T) {
		tbl := table.New([]string{"val"})

		tr, err := New(models.TransformationsConfig{DateColumns: []string{"created_at"}})
		require.NoError(t, err)

		err = tr.Apply(tbl)
		require.Error(t, err)
		assert.ErrorContains(t, err, "not present")
	})
}

func TestApplyFilter(t *testing.T) {
	tbl := table.New([]string{"amount", "region"})
	require.NoError(t, tbl.Append([]any{float64(150), "emea"}))
	require.NoError(t, tbl.Append([]any{float64(50), "emea"}))
	require.NoError(t, tbl.Append([]any{float64(300), "apac"}))

	tr, err := New(models.TransformationsConfig{Filter: `amount > 100 && region == "emea"`})
	require.NoError(t, err)

	require.NoError(t, tr.Apply(tbl))

	require.Equal(t, 1, tbl.NumRows())
	assert.Equal(t, float64(150), tbl.Row(0)[0])
}

func TestApplyFilterNonBoolean(t *testing.T) {
	tbl := table.New([]string{"amount"})
	require.NoError(t, tbl.Append([]any{float64(1)}))

	tr, err := New(models.TransformationsConfig{Filter: `amount + 1`})
	require.NoError(t, err)

	err = tr.Apply(tbl)
	require.Error(t, err)
	assert.ErrorContains(t, err, "boolean")
}

func TestNewInvalidFilter(t *testing.T) {
	_, err := New(models.TransformationsConfig{Filter: `amount >`})
	require.Error(t, err)
}

func TestValidateFilter(t *testing.T) {
	require.NoError(t, ValidateFilter(""))
	require.NoError(t, ValidateFilter(`a == b`))
	require.Error(t, ValidateFilter(`a ==`))
}
