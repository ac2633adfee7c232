package diag

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabake/internal/ctxlog"
)

// Warning numbers, fixed because they are user-visible via suppression flags.
const (
	WarnUnusedVariable = 102
)

// Warning is a non-fatal diagnostic. Warnings accumulate during a run and
// are reported but never abort processing.
type Warning struct {
	Num int
	Msg string
	Pos *hcl.Range
}

func (w Warning) String() string {
	if w.Pos != nil {
		return fmt.Sprintf("%s:%d:%d: warning: %s", w.Pos.Filename, w.Pos.Start.Line, w.Pos.Start.Column, w.Msg)
	}
	return "warning: " + w.Msg
}

// Warnings collects warnings for one compilation run. It is scoped to a
// single run and must not be shared across independent compilations.
type Warnings struct {
	mu   sync.Mutex
	list []Warning
}

// Add records a warning and logs it through the context logger.
func (ws *Warnings) Add(ctx context.Context, num int, pos *hcl.Range, format string, args ...any) {
	w := Warning{Num: num, Msg: fmt.Sprintf(format, args...), Pos: pos}
	ws.mu.Lock()
	ws.list = append(ws.list, w)
	ws.mu.Unlock()
	ctxlog.FromContext(ctx).Warn(w.Msg, "warning", num)
}

// All returns the warnings recorded so far, in order.
func (ws *Warnings) All() []Warning {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	out := make([]Warning, len(ws.list))
	copy(out, ws.list)
	return out
}
