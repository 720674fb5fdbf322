package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energyetl/internal/dataset"
	"energyetl/internal/schema"
)

func TestCleanNGERFragment(t *testing.T) {
	t.Parallel()

	frag := Fragment{
		Source: "nger:2023-24",
		Columns: []string{
			"FacilityName", "State", "PrimaryFuel", "Scope1tCO2e",
			"GridConnected", "Electricity Production (GJ)",
		},
		Rows: [][]any{
			{"Bayswater  Power Station", "New South Wales", "Black coal", "1,234.5", "yes", "100.0"},
			{"Liddell", "VIC", "solar", "-", "no", "200.5"},
		},
	}

	cf, err := Clean(frag, dataset.NGER("2023-24"), schema.DefaultInference())
	require.NoError(t, err)

	assert.Equal(t, "nger_unified", cf.Table)
	assert.Equal(t, []string{
		"facility_name", "state", "primary_fuel", "scope1_emissions_tco2e",
		"grid_connected", "electricity_production_gj",
		"start_year", "stop_year", "year_label",
	}, cf.Columns.Names())

	col, ok := cf.Columns.Get("scope1_emissions_tco2e")
	require.True(t, ok)
	assert.Equal(t, schema.KindFloat, col.Kind)

	col, ok = cf.Columns.Get("grid_connected")
	require.True(t, ok)
	assert.Equal(t, "BOOLEAN", col.Type())

	rows := cf.Rows()
	require.Len(t, rows, 2)

	assert.Equal(t, []any{
		"Bayswater Power Station", "NSW", "Black Coal", 1234.5,
		true, 100.0, 2023, 2024, "2023-24",
	}, rows[0])
	assert.Equal(t, []any{
		"Liddell", "VIC", "Solar", nil,
		false, 200.5, 2023, 2024, "2023-24",
	}, rows[1])
}

func TestCleanRaggedRows(t *testing.T) {
	t.Parallel()

	frag := Fragment{
		Source:  "abs:Test Block:SA2",
		Columns: []string{"Code", "Label", "Year"},
		Rows: [][]any{
			{"101", "Braidwood"},                        // short: year padded
			{"102", "Karabar", "2021", "surplus cell"},  // long: extra dropped
		},
	}

	cf, err := Clean(frag, dataset.ABS("Test Block", "SA2"), schema.DefaultInference())
	require.NoError(t, err)

	assert.Equal(t, "abs_test_block", cf.Table)
	assert.Equal(t, []string{"code", "label", "year", "geographic_level"}, cf.Columns.Names())

	rows := cf.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []any{int64(101), "Braidwood", nil, "SA2"}, rows[0])
	assert.Equal(t, []any{int64(102), "Karabar", int64(2021), "SA2"}, rows[1])
}

func TestCleanTypeOverrideWins(t *testing.T) {
	t.Parallel()

	frag := Fragment{
		Source:  "abs:Block",
		Columns: []string{"Code", "Label"},
		Rows:    [][]any{{"not a number", "x"}},
	}

	cf, err := Clean(frag, dataset.ABS("Block", ""), schema.DefaultInference())
	require.NoError(t, err)

	// The policy pins code to INTEGER even when the sample disagrees; the
	// unparseable cell loads as NULL.
	col, ok := cf.Columns.Get("code")
	require.True(t, ok)
	assert.Equal(t, schema.KindInteger, col.Kind)
	assert.Equal(t, "INTEGER", col.Type())
	assert.Nil(t, cf.Rows()[0][0])
}

func TestCleanTextLimit(t *testing.T) {
	t.Parallel()

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}

	frag := Fragment{
		Source:  "abs:Block",
		Columns: []string{"Code", "Label"},
		Rows:    [][]any{{"1", string(long)}},
	}

	cf, err := Clean(frag, dataset.ABS("Block", ""), schema.DefaultInference())
	require.NoError(t, err)

	label, ok := cf.Rows()[0][1].(string)
	require.True(t, ok)
	assert.Len(t, label, 255)
}

func TestCleanNoColumns(t *testing.T) {
	t.Parallel()

	_, err := Clean(Fragment{Source: "abs:Block"}, dataset.ABS("Block", ""), schema.DefaultInference())
	assert.Error(t, err)
}

func TestCleanEmptyRows(t *testing.T) {
	t.Parallel()

	frag := Fragment{Source: "abs:Block", Columns: []string{"Code"}}
	cf, err := Clean(frag, dataset.ABS("Block", ""), schema.DefaultInference())
	require.NoError(t, err)
	assert.Empty(t, cf.Rows())
	assert.Equal(t, []string{"code"}, cf.Columns.Names())
}

func TestCleanDuplicateHeaders(t *testing.T) {
	t.Parallel()

	frag := Fragment{
		Source:  "abs:Block",
		Columns: []string{"Label", "label", "Label"},
		Rows:    [][]any{{"a", "b", "c"}},
	}

	cf, err := Clean(frag, dataset.ABS("Block", ""), schema.DefaultInference())
	require.NoError(t, err)
	assert.Equal(t, []string{"label", "label_1", "label_2"}, cf.Columns.Names())
	assert.Equal(t, []any{"a", "b", "c"}, cf.Rows()[0])
}
