package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		Event:     "parse",
		ImportID:  "5f0c6f6e-3c1e-4d9a-9a43-1b8a0f2d7c11",
		File:      "schwab.csv",
		AdapterID: "schwab",
		Rows:      6,
		Details:   "valid=2 invalid=1 duplicate=0 non_trade=3 warnings=1",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "schwab", entries[0].AdapterID)
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Event = "detect"
	e2.AdapterID = "unknown"
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "parse", entries[0].Event)
	assert.Equal(t, "detect", entries[1].Event)

	data, err := os.ReadFile(filepath.Join(dir, logFile))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header))
}

func TestRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := testEntry()
	require.NoError(t, Append(dir, []Entry{original}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, original, entries[0])
}

func TestRead_Missing(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	_, err := UnmarshalEntry([]string{"a"})
	assert.ErrorContains(t, err, "expected 7 fields")

	row := MarshalEntry(testEntry())
	row[colTimestamp] = "yesterday"
	_, err = UnmarshalEntry(row)
	assert.ErrorContains(t, err, "parsing timestamp")

	row = MarshalEntry(testEntry())
	row[colRows] = "six"
	_, err = UnmarshalEntry(row)
	assert.ErrorContains(t, err, "parsing rows")
}
