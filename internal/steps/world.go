package steps

import (
	"context"

	"github.com/xkilldash9x/formprobe/internal/form"
)

type worldKey struct{}

// World is the per-scenario state. Pages are suite-scoped and live on the
// Suite; the world only remembers what the scenario last typed, so a failed
// validity check can be logged with the value that caused it.
type World struct {
	Scenario string
	// Last is the record most recently filled into every page.
	Last   form.Data
	Filled bool
}

func withWorld(ctx context.Context, w *World) context.Context {
	return context.WithValue(ctx, worldKey{}, w)
}

// WorldFrom returns the scenario world, or a fresh one when the context was
// not prepared by the scenario hooks.
func WorldFrom(ctx context.Context) *World {
	if w, ok := ctx.Value(worldKey{}).(*World); ok {
		return w
	}
	return &World{}
}
