package core

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxFileSize is the maximum allowed upload size (25MB).
var MaxFileSize int64 = 25 * 1024 * 1024

// sniffBytes is how much of a delimited file is inspected to pick the delimiter.
const sniffBytes = 4096

// zipMagic prefixes every OOXML workbook.
var zipMagic = []byte("PK\x03\x04")

// IsWorkbook reports whether the upload is a spreadsheet workbook rather than
// delimited text, by extension first and then by content.
func IsWorkbook(filename string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return true
	case ".csv", ".tsv", ".txt":
		return false
	}
	return bytes.HasPrefix(data, zipMagic)
}

// ReadRecords parses an upload into raw rows.
// Workbooks contribute their first sheet only; anything else is read as
// delimited text.
func ReadRecords(filename string, data []byte) ([][]string, error) {
	if int64(len(data)) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(data), MaxFileSize)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	if IsWorkbook(filename, data) {
		return readWorkbook(data)
	}
	return readDelimited(data)
}

func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid workbook: %w", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readDelimited(data []byte) ([][]string, error) {
	// BOMOverride strips a UTF-8 BOM and transcodes UTF-16 exports; the
	// fallback decoder replaces invalid UTF-8 with U+FFFD.
	decoded := transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	br := bufio.NewReaderSize(decoded, sniffBytes)

	first, err := br.Peek(sniffBytes)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("%w: encoding error: %w", ErrUnreadableFile, err)
	}

	r := csv.NewReader(br)
	r.Comma = sniffDelimiter(first)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid csv: %w", ErrUnreadableFile, err)
	}
	return records, nil
}

// sniffDelimiter picks tab when the first line has more tabs than commas.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{'\t'}) > bytes.Count(head, []byte{','}) {
		return '\t'
	}
	return ','
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
