// Package system runs per-frame systems in phase order.
package system

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/zeusync/vrkit/internal/core/observability/log"
)

var (
	ErrDuplicate = errors.New("system already registered")
	ErrNotFound  = errors.New("system not found")
	ErrNoName    = errors.New("system has no name")
)

// Phase orders systems within a frame.
type Phase uint8

const (
	// PhaseInput runs first: hands read controllers and notify interactables.
	PhaseInput Phase = iota
	PhaseUpdate
	// PhaseLate sees everything the frame changed.
	PhaseLate
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseUpdate:
		return "update"
	case PhaseLate:
		return "late"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// System is updated once per frame.
type System interface {
	Name() string
	Update(dt float64)
}

type funcSystem struct {
	name string
	fn   func(dt float64)
}

func (f funcSystem) Name() string { return f.name }
func (f funcSystem) Update(dt float64) { f.fn(dt) }

// Func adapts a function into a System.
func Func(name string, fn func(dt float64)) System {
	return funcSystem{name: name, fn: fn}
}

// Metrics is per-system timing.
type Metrics struct {
	Updates       uint64
	TotalDuration time.Duration
	LastDuration  time.Duration
}

// ManagerMetrics summarises the manager.
type ManagerMetrics struct {
	RegisteredSystems int
	EnabledSystems    int
	Frames            uint64
	TotalUpdateTime   time.Duration
	AverageUpdateTime time.Duration
}

type entry struct {
	system  System
	phase   Phase
	seq     uint64
	enabled bool
	metrics Metrics
}

// Manager holds systems ordered by phase, then by registration. It runs on
// the game loop thread and is not safe for concurrent use.
type Manager struct {
	entries []*entry
	byName  map[string]*entry
	seq     uint64

	frames    uint64
	totalTime time.Duration
	logger    log.Log
}

func NewManager(logger log.Log) *Manager {
	return &Manager{
		byName: make(map[string]*entry),
		logger: log.OrNop(logger).Named("systems"),
	}
}

// Register adds an enabled system to phase.
func (m *Manager) Register(phase Phase, s System) error {
	if s == nil || s.Name() == "" {
		return fmt.Errorf("system: %w", ErrNoName)
	}
	name := s.Name()
	if _, ok := m.byName[name]; ok {
		return fmt.Errorf("system: %s: %w", name, ErrDuplicate)
	}
	m.seq++
	e := &entry{system: s, phase: phase, seq: m.seq, enabled: true}
	m.byName[name] = e
	// a fresh slice leaves one being ranged over by Update untouched
	entries := append(slices.Clone(m.entries), e)
	slices.SortStableFunc(entries, func(a, b *entry) int {
		if a.phase != b.phase {
			return cmp.Compare(a.phase, b.phase)
		}
		return cmp.Compare(a.seq, b.seq)
	})
	m.entries = entries
	m.logger.Debug("system registered", log.String("system", name), log.Stringer("phase", phase))
	return nil
}

// Unregister removes a system. Safe to call from inside an Update.
func (m *Manager) Unregister(name string) error {
	e, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("system: %s: %w", name, ErrNotFound)
	}
	delete(m.byName, name)
	e.enabled = false
	m.entries = slices.DeleteFunc(slices.Clone(m.entries), func(x *entry) bool { return x == e })
	return nil
}

func (m *Manager) Enable(name string) error { return m.setEnabled(name, true) }

func (m *Manager) Disable(name string) error { return m.setEnabled(name, false) }

func (m *Manager) setEnabled(name string, enabled bool) error {
	e, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("system: %s: %w", name, ErrNotFound)
	}
	e.enabled = enabled
	return nil
}

func (m *Manager) Has(name string) bool {
	_, ok := m.byName[name]
	return ok
}

// Update runs every enabled system once.
func (m *Manager) Update(dt float64) {
	start := time.Now()
	for _, e := range m.entries {
		if !e.enabled {
			continue
		}
		t := time.Now()
		e.system.Update(dt)
		d := time.Since(t)
		e.metrics.Updates++
		e.metrics.TotalDuration += d
		e.metrics.LastDuration = d
	}
	m.frames++
	m.totalTime += time.Since(start)
}

// ExecutionOrder lists system names in the order Update runs them.
func (m *Manager) ExecutionOrder() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.system.Name()
	}
	return out
}

func (m *Manager) SystemMetrics(name string) (Metrics, bool) {
	e, ok := m.byName[name]
	if !ok {
		return Metrics{}, false
	}
	return e.metrics, true
}

func (m *Manager) Metrics() ManagerMetrics {
	mm := ManagerMetrics{
		RegisteredSystems: len(m.entries),
		Frames:            m.frames,
		TotalUpdateTime:   m.totalTime,
	}
	for _, e := range m.entries {
		if e.enabled {
			mm.EnabledSystems++
		}
	}
	if m.frames > 0 {
		mm.AverageUpdateTime = m.totalTime / time.Duration(m.frames)
	}
	return mm
}
