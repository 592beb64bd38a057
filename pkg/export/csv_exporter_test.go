package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	table := Table{Header: []string{"Section", "Team", "Students"}}
	table.Append("S1", "T1", "Ada, Grace")
	table.Append("S1", "", "Linus")

	out, err := NewCSVExporter().Render(table)
	require.NoError(t, err)
	assert.Equal(t, "Section,Team,Students\nS1,T1,\"Ada, Grace\"\nS1,,Linus\n", string(out))
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	table := Table{Header: []string{"a", "b"}, Rows: [][]string{{"1"}}}
	_, err := NewCSVExporter().Render(table)
	assert.Error(t, err)

	_, err = NewCSVExporter().Render(Table{})
	assert.Error(t, err)
}
