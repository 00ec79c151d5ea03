package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrEmptyFile is returned when a file holds no text beyond whitespace.
var ErrEmptyFile = errors.New("file is empty")

// UnreadableFileError means the bytes could not be read or decoded as text.
type UnreadableFileError struct {
	Name   string
	Reason string
	Err    error
}

func (e *UnreadableFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unreadable file %q: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("unreadable file %q: %s", e.Name, e.Reason)
}

func (e *UnreadableFileError) Unwrap() error { return e.Err }

// UnsupportedMIMEError means the host declared a type this engine does not read.
type UnsupportedMIMEError struct {
	Name     string
	MIMEType string
}

func (e *UnsupportedMIMEError) Error() string {
	return fmt.Sprintf("file %q has unsupported type %q", e.Name, e.MIMEType)
}

// allowedMIME lists declared types accepted for upload. Generic types still have to
// pass the content check in Decode.
var allowedMIME = map[string]bool{
	"":                          true,
	"text/csv":                  true,
	"application/csv":           true,
	"text/plain":                true,
	"text/tab-separated-values": true,
	"application/vnd.ms-excel":  true,
	"application/octet-stream":  true,
	mimeXLSX:                    true,
}

// Text is a decoded file.
type Text struct {
	Name    string
	Content string
}

// Sample returns at most n bytes of leading content, cut on a rune boundary.
func (t Text) Sample(n int) string {
	if n <= 0 || len(t.Content) <= n {
		return t.Content
	}
	s := t.Content[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// Decode reads f and returns its content as UTF-8 text. Spreadsheets are flattened
// to CSV from their first sheet.
func Decode(f File) (Text, error) {
	mimeType := normalizeMIME(f.MIMEType())
	if !allowedMIME[mimeType] {
		return Text{}, &UnsupportedMIMEError{Name: f.Name(), MIMEType: f.MIMEType()}
	}

	data, err := f.ReadAll()
	if err != nil {
		return Text{}, &UnreadableFileError{Name: f.Name(), Reason: "read failed", Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Text{}, ErrEmptyFile
	}

	if mimeType == mimeXLSX || isZip(data) {
		content, err := flattenXLSX(data)
		if err != nil {
			return Text{}, &UnreadableFileError{Name: f.Name(), Reason: "spreadsheet could not be opened", Err: err}
		}
		if strings.TrimSpace(content) == "" {
			return Text{}, ErrEmptyFile
		}
		return Text{Name: f.Name(), Content: content}, nil
	}

	content, err := decodeText(data)
	if err != nil {
		return Text{}, &UnreadableFileError{Name: f.Name(), Reason: "not text", Err: err}
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if strings.TrimSpace(content) == "" {
		return Text{}, ErrEmptyFile
	}
	return Text{Name: f.Name(), Content: content}, nil
}

func normalizeMIME(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	return m
}

func isZip(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

// decodeText handles UTF-8 (with or without BOM), UTF-16 with a BOM, and falls back
// to Windows-1252 for legacy exports. Binary content is rejected.
func decodeText(data []byte) (string, error) {
	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		dec := unicode.BOMOverride(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return "", fmt.Errorf("decoding UTF-16: %w", err)
		}
		return string(out), nil
	}

	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if bytes.IndexByte(data, 0) >= 0 {
		return "", errors.New("contains NUL bytes")
	}
	if detected := http.DetectContentType(data); !strings.HasPrefix(detected, "text/") && detected != "application/octet-stream" {
		return "", fmt.Errorf("content looks like %s", detected)
	}
	if utf8.Valid(data) {
		return string(data), nil
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding Windows-1252: %w", err)
	}
	return string(out), nil
}

// flattenXLSX renders the first sheet of a workbook as CSV.
func flattenXLSX(data []byte) (string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return "", errors.New("workbook has no sheets")
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	for _, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		if err := cw.Write(padded); err != nil {
			return "", fmt.Errorf("flattening sheet: %w", err)
		}
	}
	cw.Flush()
	return buf.String(), cw.Error()
}
