package telemetry

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// The notice fires at most once per process and never influences a parse.
var (
	noticeOnce     sync.Once
	noticeDisabled atomic.Bool
)

// NoticeText is logged the first time a file is parsed.
const NoticeText = "trade files are parsed locally; import diagnostics go to the configured log only"

// DisableNotice turns the one-time notice off for the rest of the process.
func DisableNotice() {
	noticeDisabled.Store(true)
}

// Notice logs NoticeText to l the first time it is called, unless DisableNotice
// ran first. It reports whether this call emitted it.
func Notice(l *slog.Logger) bool {
	if noticeDisabled.Load() {
		return false
	}
	fired := false
	noticeOnce.Do(func() {
		if noticeDisabled.Load() {
			return
		}
		l.Info(NoticeText)
		fired = true
	})
	return fired
}
