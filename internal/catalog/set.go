package catalog

import (
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/zeebo/blake3"
)

// Set is an immutable desired-state set keyed by lowercase command name.
type Set struct {
	ordered []*command.Definition
	byName  map[string]*command.Definition
}

// NewSet builds a set from defs. Later duplicates are dropped; Discover
// reports them before they get here.
func NewSet(defs ...*command.Definition) *Set {
	s := &Set{byName: make(map[string]*command.Definition, len(defs))}
	for _, d := range defs {
		key := strings.ToLower(d.Name())
		if _, dup := s.byName[key]; dup {
			continue
		}
		s.byName[key] = d
		s.ordered = append(s.ordered, d)
	}
	return s
}

// Lookup finds a definition by case-insensitive name.
func (s *Set) Lookup(name string) (*command.Definition, bool) {
	if s == nil {
		return nil, false
	}
	d, ok := s.byName[strings.ToLower(name)]
	return d, ok
}

// All returns the definitions in discovery order.
func (s *Set) All() []*command.Definition {
	if s == nil {
		return nil
	}
	return append([]*command.Definition(nil), s.ordered...)
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ordered)
}

type fingerprintEntry struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Options      []map[string]any `json:"options"`
	TestingPhase bool             `json:"testing_phase"`
	DevsOnly     bool             `json:"devs_only"`
	PrefixOnly   bool             `json:"prefix_only"`
	Deleted      bool             `json:"deleted"`
	Category     string           `json:"category"`
	Source       string           `json:"source"`
}

// Fingerprint hashes the metadata of every definition. Two sets with the
// same fingerprint reconcile to the same remote state and route the same
// names. Behaviors are not part of the hash.
func (s *Set) Fingerprint() string {
	entries := make([]fingerprintEntry, 0, s.Len())
	for _, d := range s.All() {
		entries = append(entries, fingerprintEntry{
			Name:         d.Name(),
			Description:  d.Description(),
			Options:      d.OptionPayloads(),
			TestingPhase: d.TestingPhase(),
			DevsOnly:     d.DevsOnly(),
			PrefixOnly:   d.PrefixOnly(),
			Deleted:      d.Deleted(),
			Category:     d.Category(),
			Source:       d.Source(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	// encoding/json sorts map keys, which keeps the encoding canonical.
	data, err := json.Marshal(entries)
	if err != nil {
		data = []byte(err.Error())
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Live holds the current Set. Readers never block; a reload swaps the
// pointer atomically.
type Live struct {
	p atomic.Pointer[Set]
}

// NewLive returns a holder initialized with s.
func NewLive(s *Set) *Live {
	l := &Live{}
	l.Store(s)
	return l
}

// Load returns the current set, never nil.
func (l *Live) Load() *Set {
	if s := l.p.Load(); s != nil {
		return s
	}
	return NewSet()
}

// Store replaces the current set.
func (l *Live) Store(s *Set) {
	l.p.Store(s)
}

// Lookup resolves name against the current set.
func (l *Live) Lookup(name string) (*command.Definition, bool) {
	return l.Load().Lookup(name)
}
