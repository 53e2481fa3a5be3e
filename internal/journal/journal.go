// Package journal reads recorded sessions back out of a journal database and
// replays visibility transitions.
package journal

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/OCAP2/aoi/internal/model"
	"github.com/OCAP2/aoi/internal/model/convert"
	"github.com/OCAP2/aoi/pkg/core"

	"gorm.io/gorm"
)

// ErrSessionNotFound is returned when no session matches a lookup.
var ErrSessionNotFound = errors.New("session not found")

// Reader queries a journal written by the GORM-based backends.
type Reader struct {
	db *gorm.DB
}

// NewReader creates a reader over db.
func NewReader(db *gorm.DB) *Reader {
	return &Reader{db: db}
}

// Sessions lists every recorded session, oldest first.
func (r *Reader) Sessions(ctx context.Context) ([]core.Session, error) {
	var rows []model.Session
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error getting sessions: %w", err)
	}
	out := make([]core.Session, len(rows))
	for i, row := range rows {
		out[i] = convert.SessionToCore(row)
	}
	return out, nil
}

// SessionByUUID finds one session by its UUID.
func (r *Reader) SessionByUUID(ctx context.Context, uuid string) (core.Session, error) {
	var row model.Session
	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, uuid)
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("error getting session %s: %w", uuid, err)
	}
	return convert.SessionToCore(row), nil
}

// Events returns every operation of a session in sequence order, each in
// its movement view.
func (r *Reader) Events(ctx context.Context, sessionID uint) ([]core.MoveEvent, error) {
	var rows []model.EntityEvent
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error getting events: %w", err)
	}
	out := make([]core.MoveEvent, len(rows))
	for i, row := range rows {
		out[i] = convert.EntityEventToMove(row)
	}
	return out, nil
}

// Transitions returns the directed visibility changes up to and including
// seq. A zero seq means all of them.
func (r *Reader) Transitions(ctx context.Context, sessionID uint, seq uint64) ([]core.Transition, error) {
	q := r.db.WithContext(ctx).Where("session_id = ?", sessionID)
	if seq > 0 {
		q = q.Where("seq <= ?", seq)
	}

	var rows []model.VisibilityTransition
	if err := q.Order("seq").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error getting transitions: %w", err)
	}
	out := make([]core.Transition, len(rows))
	for i, row := range rows {
		out[i] = convert.TransitionToCore(row)
	}
	return out, nil
}

// VisibleAt replays a session's transitions up to seq.
func (r *Reader) VisibleAt(ctx context.Context, sessionID uint, seq uint64) ([]Pair, error) {
	ts, err := r.Transitions(ctx, sessionID, seq)
	if err != nil {
		return nil, err
	}
	return Replay(ts), nil
}

// Pair is one directed visibility: Watcher sees Target.
type Pair struct {
	Watcher string
	Target  string
}

// Replay folds transitions in order and returns the pairs still visible,
// sorted by watcher then target.
func Replay(ts []core.Transition) []Pair {
	visible := make(map[Pair]struct{})
	for _, t := range ts {
		p := Pair{Watcher: t.Watcher, Target: t.Target}
		if t.Visible {
			visible[p] = struct{}{}
		} else {
			delete(visible, p)
		}
	}

	out := make([]Pair, 0, len(visible))
	for p := range visible {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Watcher != out[j].Watcher {
			return out[i].Watcher < out[j].Watcher
		}
		return out[i].Target < out[j].Target
	})
	return out
}
