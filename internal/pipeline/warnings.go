package pipeline

import "fmt"

// warnings keeps the first max messages and counts the rest.
type warnings struct {
	max     int
	list    []string
	dropped int
}

func (w *warnings) addf(format string, args ...any) {
	if len(w.list) >= w.max {
		w.dropped++
		return
	}
	w.list = append(w.list, fmt.Sprintf(format, args...))
}

func (w *warnings) result() []string {
	if w.dropped > 0 {
		return append(w.list, fmt.Sprintf("… %d more", w.dropped))
	}
	return w.list
}
