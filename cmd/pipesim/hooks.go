package main

import (
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pipesim/timing/pipeline"
)

// retireLogger logs every instruction leaving the WB slot.
type retireLogger struct {
	logger *slog.Logger
}

func (h *retireLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != pipeline.HookPosRetire {
		return
	}

	slot, ok := ctx.Item.(pipeline.Slot)
	if !ok {
		return
	}

	h.logger.Debug("retire",
		slog.Int("index", slot.Index),
		slog.String("inst", slot.Text()))
}
