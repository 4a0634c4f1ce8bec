package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding names accepted for CSV input.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// ReadOptions tunes how a sheet is read.
type ReadOptions struct {
	// Encoding applies to CSV only. Empty means UTF-8.
	Encoding string
	// DateColumns lists zero-based columns whose Excel serial numbers become DD/MM/YYYY.
	DateColumns []int
}

// Read returns the non-empty rows of the first sheet.
func Read(r io.Reader, format Format, opts ReadOptions) ([][]string, error) {
	var (
		rows     [][]string
		date1904 bool
		err      error
	)
	switch format {
	case FormatXLSX:
		rows, date1904, err = readXLSX(r)
	case FormatCSV:
		rows, err = readCSV(r, opts.Encoding)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		for _, col := range opts.DateColumns {
			if col < len(row) {
				row[col] = serialToDate(row[col], date1904)
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func readXLSX(r io.Reader) ([][]string, bool, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, false, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, false, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, false, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	return rows, date1904, nil
}

func readCSV(r io.Reader, encoding string) ([][]string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingUTF8, "utf8":
		r = SkipBOM(r)
	case EncodingWindows1252, "cp1252", "latin1":
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	default:
		return nil, fmt.Errorf("unsupported csv encoding %q", encoding)
	}
	br := bufio.NewReader(r)
	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// SkipBOM drops a leading UTF-8 byte order mark.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(3); err == nil && bytes.Equal(head, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	return br
}

// sniffDelimiter prefers ';' when the buffered head of the file has more of them than commas, as
// Spanish Excel exports do. Title lines above the header often carry neither.
func sniffDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(br.Size())
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}
	return ','
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// maxExcelSerial is 31/12/9999, the last day Excel can represent.
const maxExcelSerial = 2958465

// serialToDate converts an Excel serial day number. Text dates pass through untouched.
func serialToDate(value string, date1904 bool) string {
	trimmed := strings.TrimSpace(value)
	serial, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || serial <= 0 || serial > maxExcelSerial {
		return value
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return value
	}
	return t.Format("02/01/2006")
}
