package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"parking-registry/internal/parking"
)

func readRows(t *testing.T, data []byte) [][]string {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	return rows
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	plates := []parking.Plate{"ABC1D23", "XYZ9K88"}

	require.NoError(t, WriteXLSX(&buf, plates))

	rows := readRows(t, buf.Bytes())
	assert.Equal(t, [][]string{
		{"#", "Plate"},
		{"1", "ABC1D23"},
		{"2", "XYZ9K88"},
	}, rows)
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteXLSX(&buf, nil))

	rows := readRows(t, buf.Bytes())
	assert.Equal(t, [][]string{{"#", "Plate"}}, rows)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteXLSXWriterError(t *testing.T) {
	err := WriteXLSX(failingWriter{}, []parking.Plate{"ABC1D23"})
	assert.ErrorContains(t, err, "disk full")
}
