package aoi

import (
	"fmt"
	"math"
)

// handle indexes a marker inside an axisList arena.
type handle int32

const (
	headHandle handle = 0
	tailHandle handle = 1
	noHandle   handle = -1
)

// marker is one entity's position record on a single axis. The radius is
// duplicated from the entity so the scan never has to leave the list.
type marker[K comparable] struct {
	owner  K
	pos    float64
	radius float64
	prev   handle
	next   handle
	linked bool
}

// axisList is a sorted doubly-linked list of markers kept in an arena.
// Links are arena handles; handles 0 and 1 are the -Inf/+Inf sentinels.
type axisList[K comparable] struct {
	nodes []marker[K]
	free  []handle
	size  int
}

func newAxisList[K comparable]() *axisList[K] {
	l := &axisList[K]{nodes: make([]marker[K], 2, 16)}
	l.nodes[headHandle] = marker[K]{pos: math.Inf(-1), prev: noHandle, next: tailHandle, linked: true}
	l.nodes[tailHandle] = marker[K]{pos: math.Inf(1), prev: headHandle, next: noHandle, linked: true}
	return l
}

// alloc stores a new unlinked marker and returns its handle.
func (l *axisList[K]) alloc(owner K, pos, radius float64) handle {
	m := marker[K]{owner: owner, pos: pos, radius: radius, prev: noHandle, next: noHandle}
	if n := len(l.free); n > 0 {
		h := l.free[n-1]
		l.free = l.free[:n-1]
		l.nodes[h] = m
		return h
	}
	l.nodes = append(l.nodes, m)
	return handle(len(l.nodes) - 1)
}

// release returns an unlinked marker's slot to the free list.
func (l *axisList[K]) release(h handle) {
	if l.nodes[h].linked {
		panic(ErrMarkerLinked)
	}
	l.nodes[h] = marker[K]{prev: noHandle, next: noHandle}
	l.free = append(l.free, h)
}

// add links h in front of the first marker with a strictly greater position,
// so markers sharing a position keep their arrival order.
func (l *axisList[K]) add(h handle) {
	m := &l.nodes[h]
	if m.linked {
		panic(ErrMarkerLinked)
	}

	cur := l.nodes[headHandle].next
	for cur != tailHandle && l.nodes[cur].pos <= m.pos {
		cur = l.nodes[cur].next
	}

	prev := l.nodes[cur].prev
	m.prev = prev
	m.next = cur
	m.linked = true
	l.nodes[prev].next = h
	l.nodes[cur].prev = h
	l.size++
}

// remove splices h out of the chain.
func (l *axisList[K]) remove(h handle) {
	m := &l.nodes[h]
	if !m.linked || m.prev == noHandle || m.next == noHandle {
		panic(ErrMarkerUnlinked)
	}

	l.nodes[m.prev].next = m.next
	l.nodes[m.next].prev = m.prev
	m.prev = noHandle
	m.next = noHandle
	m.linked = false
	l.size--
}

// neighborsWithin scans outward from h in both directions and stops a
// direction at the first marker whose distance is not below maxRange.
// watchers are markers within h's radius, observers are markers whose own
// radius covers h. The two lists are independent.
func (l *axisList[K]) neighborsWithin(h handle, maxRange float64) (watchers, observers []K) {
	m := l.nodes[h]
	if !m.linked {
		panic(ErrMarkerUnlinked)
	}

	for cur := m.prev; cur != headHandle; {
		n := &l.nodes[cur]
		d := math.Abs(n.pos - m.pos)
		if d >= maxRange {
			break
		}
		if d <= n.radius {
			observers = append(observers, n.owner)
		}
		if d <= m.radius {
			watchers = append(watchers, n.owner)
		}
		cur = n.prev
	}

	for cur := m.next; cur != tailHandle; {
		n := &l.nodes[cur]
		d := math.Abs(n.pos - m.pos)
		if d >= maxRange {
			break
		}
		if d <= n.radius {
			observers = append(observers, n.owner)
		}
		if d <= m.radius {
			watchers = append(watchers, n.owner)
		}
		cur = n.next
	}

	return watchers, observers
}

// check walks the chain and reports the first broken link or ordering violation.
func (l *axisList[K]) check() error {
	prev := headHandle
	count := 0
	for cur := l.nodes[headHandle].next; cur != tailHandle; cur = l.nodes[cur].next {
		if cur == noHandle {
			return fmt.Errorf("chain ends after handle %d without reaching tail", prev)
		}
		n := l.nodes[cur]
		if !n.linked {
			return fmt.Errorf("handle %d is in the chain but not marked linked", cur)
		}
		if n.prev != prev {
			return fmt.Errorf("handle %d has prev %d, want %d", cur, n.prev, prev)
		}
		if prev != headHandle && l.nodes[prev].pos > n.pos {
			return fmt.Errorf("handle %d at %v follows %v", cur, n.pos, l.nodes[prev].pos)
		}
		count++
		if count > l.size {
			return fmt.Errorf("chain holds more than %d markers", l.size)
		}
		prev = cur
	}
	if l.nodes[tailHandle].prev != prev {
		return fmt.Errorf("tail has prev %d, want %d", l.nodes[tailHandle].prev, prev)
	}
	if count != l.size {
		return fmt.Errorf("chain holds %d markers, want %d", count, l.size)
	}
	return nil
}

// owners lists the linked owners from head to tail.
func (l *axisList[K]) owners() []K {
	out := make([]K, 0, l.size)
	for cur := l.nodes[headHandle].next; cur != tailHandle; cur = l.nodes[cur].next {
		out = append(out, l.nodes[cur].owner)
	}
	return out
}
