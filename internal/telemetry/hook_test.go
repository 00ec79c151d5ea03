package telemetry

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tradeimport/internal/model"
)

type recordingHook struct {
	detections  []Detection
	completions []Completion
}

func (r *recordingHook) DetectionScored(d Detection) { r.detections = append(r.detections, d) }
func (r *recordingHook) ParseCompleted(c Completion) { r.completions = append(r.completions, c) }

func testCompletion() Completion {
	return Completion{
		ImportID:  "id-1",
		File:      "trades.csv",
		AdapterID: "kraken",
		Meta:      model.Meta{RowsSeen: 4, RowsInvalid: 1, RowsDuplicate: 1, SchemaVersion: model.SchemaVersion},
		Warnings:  []string{"line 3: price: price 0 must be greater than zero"},
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("debug", "json", &buf)
	l.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("warn", "text", &buf)
	l.Info("quiet")
	l.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestNewLogger_BadLevelWarns(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("chatty", "text", &buf)
	assert.Contains(t, buf.String(), "invalid log level")
}

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel("ERROR")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelError, lvl)

	_, ok = ParseLevel("nope")
	assert.False(t, ok)
}

func TestSlogHook(t *testing.T) {
	var buf bytes.Buffer
	h := SlogHook{Logger: NewLogger("debug", "text", &buf)}
	h.DetectionScored(Detection{ImportID: "id-1", AdapterID: "unknown", Candidates: []string{"robinhood", "questrade"}})
	h.ParseCompleted(testCompletion())

	out := buf.String()
	assert.Contains(t, out, "candidates=robinhood,questrade")
	assert.Contains(t, out, "rows_valid=2")
	assert.Contains(t, out, "line 3: price")
}

func TestEventLogHook(t *testing.T) {
	dir := t.TempDir()
	h := &EventLogHook{Root: dir, Now: func() time.Time { return testTime }}
	h.DetectionScored(Detection{ImportID: "id-1", File: "trades.csv", AdapterID: "kraken", Candidates: []string{"kraken"}, Confidence: 1})
	h.ParseCompleted(testCompletion())

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "detect", entries[0].Event)
	assert.Equal(t, "candidates: kraken", entries[0].Details)
	assert.Equal(t, "parse", entries[1].Event)
	assert.Equal(t, 4, entries[1].Rows)
	assert.Equal(t, "valid=2 invalid=1 duplicate=1 non_trade=0 warnings=1", entries[1].Details)
	assert.Equal(t, testTime, entries[1].Timestamp)
}

func TestEventLogHook_Concurrent(t *testing.T) {
	dir := t.TempDir()
	h := &EventLogHook{Root: dir}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.ParseCompleted(testCompletion())
		}()
	}
	wg.Wait()

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestMulti(t *testing.T) {
	a, b := &recordingHook{}, &recordingHook{}
	h := Multi(a, nil, NopHook{}, b)
	h.DetectionScored(Detection{AdapterID: "kraken"})
	h.ParseCompleted(testCompletion())

	for _, r := range []*recordingHook{a, b} {
		assert.Len(t, r.detections, 1)
		assert.Len(t, r.completions, 1)
	}
}

func resetNotice() {
	noticeOnce = sync.Once{}
	noticeDisabled.Store(false)
}

func TestNotice_FiresOnce(t *testing.T) {
	resetNotice()
	t.Cleanup(resetNotice)

	var buf bytes.Buffer
	l := NewLogger("info", "text", &buf)
	assert.True(t, Notice(l))
	assert.False(t, Notice(l))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(NoticeText)))
}

func TestNotice_Disabled(t *testing.T) {
	resetNotice()
	t.Cleanup(resetNotice)

	var buf bytes.Buffer
	DisableNotice()
	assert.False(t, Notice(NewLogger("info", "text", &buf)))
	assert.Empty(t, buf.String())
}
