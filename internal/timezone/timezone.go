// Package timezone converts instants between UTC and IANA time zones.
package timezone

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var ErrUnknownTimezone = errors.New("unknown timezone")

// Service resolves IANA zone identifiers and caches the loaded locations.
// The zero value is ready to use.
type Service struct {
	mu    sync.RWMutex
	cache map[string]*time.Location
}

func NewService() *Service {
	return &Service{cache: map[string]*time.Location{}}
}

// Resolve returns the location for id. An empty id is rejected rather than
// silently mapped to UTC. "Local" is the host zone and is rejected too.
func (s *Service) Resolve(id string) (*time.Location, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrUnknownTimezone)
	}
	if id == "Local" {
		return nil, fmt.Errorf("%w: host zone %q", ErrUnknownTimezone, id)
	}

	s.mu.RLock()
	loc, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, id)
	}

	s.mu.Lock()
	if s.cache == nil {
		s.cache = map[string]*time.Location{}
	}
	s.cache[id] = loc
	s.mu.Unlock()
	return loc, nil
}

func (s *Service) Valid(id string) bool {
	_, err := s.Resolve(id)
	return err == nil
}

// ToLocal returns t expressed in zone id.
func (s *Service) ToLocal(t time.Time, id string) (time.Time, error) {
	loc, err := s.Resolve(id)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

// ToUTC interprets the wall clock of local as a time in zone id and returns
// the matching UTC instant. Wall clocks inside a DST gap are normalized the
// way time.Date does it.
func (s *Service) ToUTC(local time.Time, id string) (time.Time, error) {
	loc, err := s.Resolve(id)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := local.Date()
	h, mi, sec := local.Clock()
	return time.Date(y, mo, d, h, mi, sec, local.Nanosecond(), loc).UTC(), nil
}
