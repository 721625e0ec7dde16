package layers

import (
	"github.com/sirupsen/logrus"

	"github.com/andres-fr/secv-guis/internal/history"
)

// ObjectAction sends a point to the open object of the given kind. An open
// object of another kind is closed first and a finished or missing one is
// replaced by a fresh object from factory.
func (s *Scene) ObjectAction(kind string, x, y float64, factory func(*Scene) *PointList, log *history.Log) error {
	s.mu.Lock()
	open := s.open
	if open != nil && (s.openKind != kind || open.Finished()) {
		open.Finish()
		open = nil
	}
	created := open == nil
	if created {
		s.open, s.openKind = nil, ""
	}
	s.mu.Unlock()

	if created {
		open = factory(s)
		s.mu.Lock()
		if _, seen := s.objects[kind]; !seen {
			s.kinds = append(s.kinds, kind)
		}
		s.objects[kind] = append(s.objects[kind], open)
		s.open, s.openKind = open, kind
		s.mu.Unlock()
		s.logger.WithField("kind", kind).Debug("Object created")
	}
	return open.Action(x, y, log)
}

// CloseObjectAction finishes the open object, if any
func (s *Scene) CloseObjectAction() {
	s.mu.Lock()
	open, kind := s.open, s.openKind
	s.open, s.openKind = nil, ""
	s.mu.Unlock()
	if open == nil {
		return
	}
	open.Finish()
	s.logger.WithFields(logrus.Fields{
		"kind":   kind,
		"points": len(open.State()),
	}).Debug("Object closed")
}

// Objects returns every object of a kind in creation order
func (s *Scene) Objects(kind string) []*PointList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*PointList(nil), s.objects[kind]...)
}

// ObjectKinds lists kinds in order of first use
func (s *Scene) ObjectKinds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.kinds...)
}

// ObjectStates maps each kind to the states of its non-empty objects
func (s *Scene) ObjectStates() map[string][][]Point {
	out := make(map[string][][]Point)
	for _, kind := range s.ObjectKinds() {
		states := make([][]Point, 0)
		for _, obj := range s.Objects(kind) {
			if st := obj.State(); len(st) > 0 {
				states = append(states, st)
			}
		}
		out[kind] = states
	}
	return out
}
