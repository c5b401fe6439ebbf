package tabular_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twhitfield/addrcheck/internal/tabular"
)

func TestWriteCSV(t *testing.T) {
	table := tabular.New([]string{"streetAddress", "state"})
	table.Append([]string{"123 Main St", "NC"})
	table.Append([]string{"1 Elm St"})

	var buf bytes.Buffer
	require.NoError(t, tabular.WriteCSV(&buf, table))

	assert.Equal(t, "streetAddress,state\n123 Main St,NC\n1 Elm St,\n", buf.String())
}

func TestWriteCSV_QuotesCellsWithCommas(t *testing.T) {
	table := tabular.New([]string{"streetAddress", "Warnings"})
	table.Append([]string{"123 Main St", "city corrected, ZIP corrected"})

	var buf bytes.Buffer
	require.NoError(t, tabular.WriteCSV(&buf, table))

	assert.Contains(t, buf.String(), `"city corrected, ZIP corrected"`)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"addresses.csv", "addresses_validated.csv"},
		{"addresses.xlsx", "addresses_validated.xlsx"},
		{"/data/input/batch.csv", "/data/input/batch_validated.csv"},
		{"noext", "noext_validated"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tabular.OutputPath(tt.in))
	}
}
