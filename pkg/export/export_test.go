package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sheet() Dataset {
	return Dataset{
		Title: "Class results",
		Columns: []Column{
			{Key: "student", Title: "Student"},
			{Key: "total_score"},
			{Key: "grade_label", Title: "Grade"},
		},
		Rows: []map[string]string{
			{"student": "Li Lei", "total_score": "91.50", "grade_label": "excellent"},
			{"student": "Han Mei", "total_score": "78", "extra": "ignored"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter(false).Render(sheet())
	require.NoError(t, err)
	assert.Equal(t, "Student,total_score,Grade\nLi Lei,91.50,excellent\nHan Mei,78,\n", string(out))
}

func TestCSVExporterBOM(t *testing.T) {
	out, err := NewCSVExporter(true).Render(sheet())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
}

func TestExportersRequireColumns(t *testing.T) {
	_, err := NewCSVExporter(false).Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter("").Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter("").Render(sheet())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	wide := sheet()
	for i := 0; i < 10; i++ {
		wide.Columns = append(wide.Columns, Column{Key: "c", Title: "Item"})
	}
	out, err = NewPDFExporter("").Render(wide)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestPDFExporterMissingFont(t *testing.T) {
	_, err := NewPDFExporter("/nonexistent/font.ttf").Render(sheet())
	assert.Error(t, err)
}
