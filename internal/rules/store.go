package rules

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
)

type seriesKey struct {
	jurisdiction domain.Jurisdiction
	family       domain.Family
}

// Snapshot is an immutable, validated set of rule editions. Every series
// (jurisdiction + family) is sorted by start date and contiguous.
type Snapshot struct {
	series   map[seriesKey][]domain.RuleEdition
	count    int
	loadedAt time.Time
}

// NewSnapshot validates editions and indexes them for resolution. Overlapping
// or gapped windows, duplicate edition ids and payloads that do not match
// their family are rejected with a ConfigIntegrityError.
func NewSnapshot(editions []domain.RuleEdition) (*Snapshot, error) {
	s := &Snapshot{
		series:   make(map[seriesKey][]domain.RuleEdition),
		count:    len(editions),
		loadedAt: time.Now(),
	}

	for _, e := range editions {
		if !e.Family.AppliesTo(e.Jurisdiction) {
			return nil, &ConfigIntegrityError{Jurisdiction: e.Jurisdiction, Family: e.Family,
				Reason: fmt.Sprintf("edition %s: family is not published for this jurisdiction", e.ID)}
		}
		if !e.Start.Before(e.End) {
			return nil, &ConfigIntegrityError{Jurisdiction: e.Jurisdiction, Family: e.Family,
				Reason: fmt.Sprintf("edition %s: empty window [%s, %s)", e.ID, e.Start, e.End)}
		}
		if err := e.Validate(); err != nil {
			return nil, &ConfigIntegrityError{Jurisdiction: e.Jurisdiction, Family: e.Family,
				Reason: fmt.Sprintf("edition %s: %v", e.ID, err)}
		}
		key := seriesKey{e.Jurisdiction, e.Family}
		s.series[key] = append(s.series[key], e)
	}

	for key, list := range s.series {
		sort.Slice(list, func(i, j int) bool { return list[i].Start.Before(list[j].Start) })

		ids := make(map[string]bool, len(list))
		for i, e := range list {
			if ids[e.ID] {
				return nil, &ConfigIntegrityError{Jurisdiction: key.jurisdiction, Family: key.family,
					Reason: fmt.Sprintf("duplicate edition id %q", e.ID)}
			}
			ids[e.ID] = true
			if i == 0 {
				continue
			}
			prev := list[i-1]
			switch {
			case e.Start.Before(prev.End):
				return nil, &ConfigIntegrityError{Jurisdiction: key.jurisdiction, Family: key.family,
					Reason: fmt.Sprintf("edition %s [%s, %s) overlaps %s [%s, %s)", e.ID, e.Start, e.End, prev.ID, prev.Start, prev.End)}
			case e.Start.After(prev.End):
				return nil, &ConfigIntegrityError{Jurisdiction: key.jurisdiction, Family: key.family,
					Reason: fmt.Sprintf("gap between %s (ends %s) and %s (starts %s)", prev.ID, prev.End, e.ID, e.Start)}
			}
		}
	}

	return s, nil
}

// Resolve returns the single edition whose [start, end) window covers date.
// A date on a boundary belongs to the later edition.
func (s *Snapshot) Resolve(j domain.Jurisdiction, f domain.Family, date domain.Date) (domain.RuleEdition, error) {
	if s == nil {
		return domain.RuleEdition{}, &NoApplicableRuleError{Jurisdiction: j, Family: f, Date: date}
	}
	list := s.series[seriesKey{j, f}]

	// first edition ending after date
	i := sort.Search(len(list), func(i int) bool { return date.Before(list[i].End) })
	if i == len(list) || date.Before(list[i].Start) {
		return domain.RuleEdition{}, &NoApplicableRuleError{Jurisdiction: j, Family: f, Date: date}
	}
	return list[i], nil
}

// Editions returns all editions ordered by jurisdiction, family and start date
func (s *Snapshot) Editions() []domain.RuleEdition {
	if s == nil {
		return nil
	}
	out := make([]domain.RuleEdition, 0, s.count)
	for _, list := range s.series {
		out = append(out, list...)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Jurisdiction != b.Jurisdiction {
			return a.Jurisdiction < b.Jurisdiction
		}
		if a.Family != b.Family {
			return a.Family < b.Family
		}
		return a.Start.Before(b.Start)
	})
	return out
}

// Series returns the editions of one jurisdiction and family in date order
func (s *Snapshot) Series(j domain.Jurisdiction, f domain.Family) []domain.RuleEdition {
	if s == nil {
		return nil
	}
	list := s.series[seriesKey{j, f}]
	return append([]domain.RuleEdition(nil), list...)
}

// Len is the number of editions in the snapshot
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return s.count
}

// LoadedAt is when the snapshot was built
func (s *Snapshot) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}

// Store publishes the current Snapshot. Readers call Snapshot once per
// calculation and never lock; Reload replaces the whole snapshot atomically.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore builds the initial snapshot
func NewStore(editions []domain.RuleEdition) (*Store, error) {
	snap, err := NewSnapshot(editions)
	if err != nil {
		return nil, err
	}
	s := &Store{}
	s.current.Store(snap)
	return s, nil
}

// Snapshot returns the snapshot currently in effect
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Resolve resolves against the current snapshot
func (s *Store) Resolve(j domain.Jurisdiction, f domain.Family, date domain.Date) (domain.RuleEdition, error) {
	return s.Snapshot().Resolve(j, f, date)
}

// Reload validates a complete replacement rule set and installs it. On error
// the previous snapshot stays in effect.
func (s *Store) Reload(editions []domain.RuleEdition) error {
	snap, err := NewSnapshot(editions)
	if err != nil {
		return err
	}
	s.current.Store(snap)
	return nil
}
