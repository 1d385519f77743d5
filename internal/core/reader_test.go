package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadRecordsCSV(t *testing.T) {
	data := []byte("ID,Name,Salary\n123,\"Doe, J.\",6200\n456,Josh Allen\n")

	records, err := ReadRecords("DKSalaries.csv", data)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ID", "Name", "Salary"},
		{"123", "Doe, J.", "6200"},
		{"456", "Josh Allen"},
	}, records)
}

func TestReadRecordsTabDelimited(t *testing.T) {
	data := []byte("partner_id\tname\tfpts\n123\tJ. Doe\t16.8\n")

	records, err := ReadRecords("projections.tsv", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"123", "J. Doe", "16.8"}, records[1])
}

func TestReadRecordsStripsBOM(t *testing.T) {
	data := append([]byte("\xEF\xBB\xBF"), []byte("ID,Name\n1,A\n")...)

	records, err := ReadRecords("roster.csv", data)
	require.NoError(t, err)
	assert.Equal(t, "ID", records[0][0])
}

func TestReadRecordsEmpty(t *testing.T) {
	_, err := ReadRecords("roster.csv", []byte("  \n\n"))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestReadRecordsTooLarge(t *testing.T) {
	orig := MaxFileSize
	MaxFileSize = 16
	t.Cleanup(func() { MaxFileSize = orig })

	_, err := ReadRecords("roster.csv", []byte(strings.Repeat("a,b\n", 10)))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestReadRecordsBrokenWorkbook(t *testing.T) {
	_, err := ReadRecords("roster.xlsx", []byte("not a zip at all"))
	assert.ErrorIs(t, err, ErrUnreadableFile)
	assert.Equal(t, "FILE006", MapError(err).Code)
}

func TestReadRecordsWorkbookFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"ID", "Name", "Salary"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"123", "J. Doe", 6200}))
	_, err := f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "A1", "ignored"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	// No extension: detected from the zip signature.
	records, err := ReadRecords("export", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ID", "Name", "Salary"}, {"123", "J. Doe", "6200"}}, records)
}

func TestIsWorkbook(t *testing.T) {
	assert.True(t, IsWorkbook("a.XLSX", nil))
	assert.False(t, IsWorkbook("a.csv", []byte("PK\x03\x04")))
	assert.True(t, IsWorkbook("download", []byte("PK\x03\x04rest")))
	assert.False(t, IsWorkbook("download", []byte("ID,Name")))
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', sniffDelimiter([]byte("a,b,c\nx\ty\tz\tw")))
	assert.Equal(t, '\t', sniffDelimiter([]byte("a\tb\tc,d\n")))
	assert.Equal(t, ',', sniffDelimiter(nil))
}
