package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"time"

	"github.com/OCAP2/aoi/internal/config"
	"github.com/OCAP2/aoi/internal/dispatcher"
	"github.com/OCAP2/aoi/internal/handlers"
	"github.com/OCAP2/aoi/internal/monitor"
	"github.com/OCAP2/aoi/internal/worker"
	"github.com/OCAP2/aoi/pkg/core"
)

// radiusChangeOdds is 1 in N ticks that resize an entity instead of moving it.
const radiusChangeOdds = 10

// walker spawns entities on a square grid and random-walks them, one move per
// tick, through the dispatcher.
type walker struct {
	d      *dispatcher.Dispatcher
	cfg    config.SimConfig
	rng    *rand.Rand
	logger *slog.Logger

	ids       []string
	positions map[string]core.Position2D
}

func newWalker(d *dispatcher.Dispatcher, cfg config.SimConfig, seed int64, logger *slog.Logger) *walker {
	if cfg.MaxAOI < cfg.MinAOI {
		cfg.MaxAOI = cfg.MinAOI
	}
	return &walker{
		d:         d,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)),
		logger:    logger,
		positions: make(map[string]core.Position2D),
	}
}

func (w *walker) dispatch(command string, args ...string) (any, error) {
	return w.d.Dispatch(dispatcher.Event{Command: command, Args: args, Timestamp: time.Now()})
}

// run plays one whole session: init, spawn, walk, query, leave, end. Once
// the session is open it is always ended, so a failed run still closes its
// journal.
func (w *walker) run(ctx context.Context, name string) (err error) {
	uuid, err := w.dispatch(handlers.CommandInitSession, name)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	w.logger.Info("Session started", "name", name, "uuid", uuid)

	ended := false
	defer func() {
		if ended {
			return
		}
		path, endErr := w.dispatch(handlers.CommandEndSession)
		if endErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to end session: %w", endErr))
			return
		}
		w.logger.Warn("Session ended early", "name", name, "export", path, "error", err)
	}()

	if err := w.spawn(); err != nil {
		return err
	}

	ticker := newTicker(w.cfg.Interval)
	defer ticker.stop()

walk:
	for i := 0; i < w.cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			w.logger.Info("Interrupted, ending session", "tick", i)
			break walk
		case <-ticker.c():
		}
		if err := w.step(); err != nil {
			return err
		}
	}

	for _, id := range w.ids {
		res, err := w.dispatch(worker.CommandQuery, id)
		if err != nil {
			return fmt.Errorf("failed to query %s: %w", id, err)
		}
		w.logDelta(res)
	}
	if st, err := w.dispatch(monitor.CommandStatus); err == nil {
		w.logger.Info("Status", "status", st)
	}
	for _, id := range w.ids {
		res, err := w.dispatch(worker.CommandLeave, id)
		if err != nil {
			return fmt.Errorf("failed to remove %s: %w", id, err)
		}
		w.logDelta(res)
	}

	ended = true
	path, err := w.dispatch(handlers.CommandEndSession)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	w.logger.Info("Session ended", "name", name, "export", path)
	return nil
}

func (w *walker) spawn() error {
	extent := max(w.cfg.SpawnExtent, 1)
	for i := 1; i <= w.cfg.Entities; i++ {
		id := "e" + strconv.Itoa(i)
		pos := core.Position2D{
			X: float64(w.rng.Intn(extent)),
			Y: float64(w.rng.Intn(extent)),
		}
		aoi := w.cfg.MinAOI + w.rng.Intn(w.cfg.MaxAOI-w.cfg.MinAOI+1)

		res, err := w.dispatch(worker.CommandEnter, id, formatPosition(pos), strconv.Itoa(aoi))
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", id, err)
		}
		w.ids = append(w.ids, id)
		w.positions[id] = pos
		w.logDelta(res)
	}
	return nil
}

func (w *walker) step() error {
	if len(w.ids) == 0 {
		return nil
	}
	id := w.ids[w.rng.Intn(len(w.ids))]

	if w.rng.Intn(radiusChangeOdds) == 0 {
		aoi := w.cfg.MinAOI + w.rng.Intn(w.cfg.MaxAOI-w.cfg.MinAOI+1)
		res, err := w.dispatch(worker.CommandRadius, id, strconv.Itoa(aoi))
		if err != nil {
			return fmt.Errorf("failed to resize %s: %w", id, err)
		}
		w.logDelta(res)
		return nil
	}

	step := max(w.cfg.MaxStep, 0)
	pos := w.positions[id]
	pos.X += float64(w.rng.Intn(2*step+1) - step)
	pos.Y += float64(w.rng.Intn(2*step+1) - step)

	res, err := w.dispatch(worker.CommandMove, id, formatPosition(pos))
	if err != nil {
		return fmt.Errorf("failed to move %s: %w", id, err)
	}
	w.positions[id] = pos
	w.logDelta(res)
	return nil
}

func (w *walker) logDelta(res any) {
	if d, ok := res.(worker.Delta); ok {
		w.logger.Info("Scene delta", "kind", d.Kind, "entity", d.EntityID, "delta", d.String())
	}
}

func formatPosition(p core.Position2D) string {
	return "[" + strconv.FormatFloat(p.X, 'f', -1, 64) + "," + strconv.FormatFloat(p.Y, 'f', -1, 64) + "]"
}

// ticker wraps time.Ticker so a zero interval runs ticks back to back.
type ticker struct {
	t *time.Ticker
}

var closedTick = func() chan time.Time {
	c := make(chan time.Time)
	close(c)
	return c
}()

func newTicker(d time.Duration) *ticker {
	if d <= 0 {
		return &ticker{}
	}
	return &ticker{t: time.NewTicker(d)}
}

func (t *ticker) c() <-chan time.Time {
	if t.t == nil {
		return closedTick
	}
	return t.t.C
}

func (t *ticker) stop() {
	if t.t != nil {
		t.t.Stop()
	}
}
