package storage

import "github.com/OCAP2/aoi/pkg/core"

// Nop discards everything. Used when storage.type is "none".
type Nop struct {
	nextID uint
}

func (*Nop) Init() error  { return nil }
func (*Nop) Close() error { return nil }

// StartSession still assigns increasing IDs so callers can tell sessions apart.
func (n *Nop) StartSession(s *core.Session) error {
	n.nextID++
	s.ID = n.nextID
	return nil
}

func (*Nop) EndSession(*core.Session) error     { return nil }
func (*Nop) RecordEnter(*core.EnterEvent) error { return nil }
func (*Nop) RecordMove(*core.MoveEvent) error   { return nil }
func (*Nop) RecordLeave(*core.LeaveEvent) error { return nil }
