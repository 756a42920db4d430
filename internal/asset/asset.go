// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package asset keeps the theme's stylesheet and script manifest and works
// out which assets a page needs, in dependency order.
package asset

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/olegiv/primer-go/internal/pagectx"
)

// Manifest errors.
var (
	ErrDuplicateHandle   = errors.New("duplicate asset handle")
	ErrEmptyHandle       = errors.New("asset handle is empty")
	ErrInvalidCondition  = errors.New("invalid asset condition")
	ErrMissingDependency = errors.New("missing asset dependency")
	ErrCycle             = errors.New("asset dependency cycle")
	ErrFrozen            = errors.New("asset manifest is frozen")
)

// Kind tells styles from scripts.
type Kind string

// Asset kinds.
const (
	KindStyle  Kind = "style"
	KindScript Kind = "script"
)

// Descriptor is one stylesheet or script.
type Descriptor struct {
	Handle    string   `json:"handle" yaml:"handle"`
	Kind      Kind     `json:"kind" yaml:"kind"`
	Src       string   `json:"src" yaml:"src"`
	Deps      []string `json:"deps,omitempty" yaml:"deps,omitempty"`
	Version   string   `json:"version" yaml:"version"`
	InFooter  bool     `json:"in_footer,omitempty" yaml:"in_footer,omitempty"`
	Condition string   `json:"condition,omitempty" yaml:"condition,omitempty"` // client-side conditional, e.g. "lt IE 9"
	When      string   `json:"when,omitempty" yaml:"when,omitempty"`           // CEL expression over the page context
	RTL       string   `json:"rtl,omitempty" yaml:"rtl,omitempty"`             // "replace" swaps in the -rtl stylesheet
}

type entry struct {
	desc    Descriptor
	program cel.Program // nil when the asset is unconditional
}

// Manifest is the registered asset set.
type Manifest struct {
	env     *cel.Env
	entries []entry
	index   map[string]int
	frozen  bool
	logger  *slog.Logger
	mu      sync.RWMutex
}

// NewManifest creates an empty manifest.
func NewManifest(logger *slog.Logger) (*Manifest, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	env, err := newConditionEnv()
	if err != nil {
		return nil, fmt.Errorf("creating condition environment: %w", err)
	}
	return &Manifest{
		env:    env,
		index:  make(map[string]int),
		logger: logger,
	}, nil
}

// Register adds d. Handles are unique and When must compile to a bool.
func (m *Manifest) Register(d Descriptor) error {
	if d.Handle == "" {
		return ErrEmptyHandle
	}
	if d.Kind == "" {
		d.Kind = KindScript
	}

	var prg cel.Program
	if d.When != "" {
		p, err := compileCondition(m.env, d.When)
		if err != nil {
			return fmt.Errorf("asset %s: %w", d.Handle, err)
		}
		prg = p
	}
	d.Deps = append([]string(nil), d.Deps...)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frozen {
		return fmt.Errorf("registering %s: %w", d.Handle, ErrFrozen)
	}
	if _, ok := m.index[d.Handle]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateHandle, d.Handle)
	}

	m.index[d.Handle] = len(m.entries)
	m.entries = append(m.entries, entry{desc: d, program: prg})

	m.logger.Debug("asset registered", "category", "asset", "handle", d.Handle, "kind", d.Kind)
	return nil
}

// Freeze rejects further registration.
func (m *Manifest) Freeze() {
	m.mu.Lock()
	m.frozen = true
	m.mu.Unlock()
}

// Get returns the descriptor registered under handle.
func (m *Manifest) Get(handle string) (Descriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[handle]
	if !ok {
		return Descriptor{}, false
	}
	return m.entries[i].desc, true
}

// Descriptors returns every registered descriptor in registration order.
func (m *Manifest) Descriptors() []Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Descriptor, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.desc
	}
	return out
}

// Len returns the number of registered descriptors.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Validate checks that every dependency is registered and that the
// dependency graph has no cycles.
func (m *Manifest) Validate() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]int, len(m.entries))
	for i := range all {
		all[i] = i
	}
	_, err := m.order(all)
	return err
}

// Activate returns the assets to load for pctx: every asset whose When
// holds, plus whatever they depend on, ordered so that no asset comes
// before its dependencies. Ties keep registration order.
func (m *Manifest) Activate(pctx pagectx.Context) ([]Descriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	vars := conditionVars(pctx)
	active := make([]int, 0, len(m.entries))
	for i, e := range m.entries {
		if e.program == nil {
			active = append(active, i)
			continue
		}
		ok, err := evalCondition(e.program, vars)
		if err != nil {
			m.logger.Warn("asset condition failed, skipping asset",
				"category", "asset", "handle", e.desc.Handle, "error", err)
			continue
		}
		if ok {
			active = append(active, i)
		}
	}

	return m.order(active)
}

// order sorts the given entries and their transitive dependencies
// topologically. Callers hold m.mu.
func (m *Manifest) order(roots []int) ([]Descriptor, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(m.entries))
	out := make([]Descriptor, 0, len(roots))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w involving %s", ErrCycle, m.entries[i].desc.Handle)
		}
		state[i] = visiting

		for _, dep := range m.entries[i].desc.Deps {
			j, ok := m.index[dep]
			if !ok {
				return fmt.Errorf("%w: %s requires %s", ErrMissingDependency, m.entries[i].desc.Handle, dep)
			}
			if err := visit(j); err != nil {
				return err
			}
		}

		state[i] = done
		out = append(out, m.entries[i].desc)
		return nil
	}

	for _, i := range roots {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return out, nil
}
