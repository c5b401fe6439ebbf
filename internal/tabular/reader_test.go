package tabular_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twhitfield/addrcheck/internal/tabular"
)

func TestRead_CSV(t *testing.T) {
	input := "streetAddress,city,state\n123 Main St,Anytown,NC\n1 Elm St,Arlington,VA\n"
	table, err := tabular.Read("input.csv", strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, []string{"streetAddress", "city", "state"}, table.Headers)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "123 Main St", table.RowMap(0)["streetAddress"])
	assert.Equal(t, "VA", table.RowMap(1)["state"])
}

func TestRead_CSVWithBOM(t *testing.T) {
	input := "\xEF\xBB\xBFstreetAddress,state\n1 Elm St,VA\n"
	table, err := tabular.Read("input.csv", strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, []string{"streetAddress", "state"}, table.Headers)
	assert.True(t, table.HasColumn("streetAddress"))
}

func TestRead_SkipsBlankRowsAndPadsShortRows(t *testing.T) {
	input := "streetAddress,city,state\n\n,,\n123 Main St,Anytown\n"
	table, err := tabular.Read("input.csv", strings.NewReader(input))

	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	row := table.RowMap(0)
	assert.Equal(t, "123 Main St", row["streetAddress"])
	assert.Equal(t, "", row["state"])
}

func TestRead_HeaderOnFirstNonEmptyRow(t *testing.T) {
	input := "\n\n streetAddress , state \n1 Elm St,VA\n"
	table, err := tabular.Read("input.csv", strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, []string{"streetAddress", "state"}, table.Headers)
	require.Equal(t, 1, table.Len())
}

func TestRead_UnsupportedExtension(t *testing.T) {
	_, err := tabular.Read("input.txt", strings.NewReader("a,b\n1,2\n"))
	require.ErrorIs(t, err, tabular.ErrUnsupportedFormat)
}

func TestRead_EmptyFile(t *testing.T) {
	_, err := tabular.Read("input.csv", strings.NewReader(""))
	require.Error(t, err)
}

func TestRead_XLSXRoundTrip(t *testing.T) {
	table := tabular.New([]string{"streetAddress", "city", "state", "ZIPCode"})
	table.Append([]string{"123 Main St", "Anytown", "NC", "12345"})
	table.Append([]string{"9876 Maple Ave", "", "VA", "22203"})

	var buf bytes.Buffer
	require.NoError(t, tabular.WriteXLSX(&buf, table))

	got, err := tabular.Read("input.xlsx", &buf)
	require.NoError(t, err)
	assert.Equal(t, table.Headers, got.Headers)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "123 Main St", got.RowMap(0)["streetAddress"])
	assert.Equal(t, "22203", got.RowMap(1)["ZIPCode"])
	assert.Equal(t, "", got.RowMap(1)["city"])
}
