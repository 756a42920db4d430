// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package theme

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/olegiv/primer-go/internal/hook"
	"github.com/olegiv/primer-go/internal/layout"
	"github.com/olegiv/primer-go/internal/sidebar"
	"github.com/olegiv/primer-go/internal/util"
)

// overridesHook names the filter entries registered by Overrides.
const overridesHook = "overrides"

// SidebarOverrides edits the default sidebar list. Replace, when set,
// stands in for the defaults; Remove then drops ids; Add appends last.
type SidebarOverrides struct {
	Replace []sidebar.Definition `yaml:"replace,omitempty"`
	Remove  []string             `yaml:"remove,omitempty"`
	Add     []sidebar.Definition `yaml:"add,omitempty"`
}

// Overrides is the site's YAML customisation file.
//
//	sidebars:
//	  remove: [footer-3]
//	  add:
//	    - name: Shop    # id defaults to the slug of the name
//	menus:
//	  primary: Main
//	  footer: Footer Links
//	content_width:
//	  one-column-narrow: 760
type Overrides struct {
	Sidebars     SidebarOverrides  `yaml:"sidebars,omitempty"`
	Menus        map[string]string `yaml:"menus,omitempty"`
	ContentWidth map[string]int    `yaml:"content_width,omitempty"`
}

// LoadOverrides reads and validates an overrides file.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading overrides: %w", err)
	}
	o, err := ParseOverrides(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return o, nil
}

// ParseOverrides decodes and validates overrides YAML.
func ParseOverrides(data []byte) (*Overrides, error) {
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parsing overrides: %w", err)
	}
	for slug, px := range o.ContentWidth {
		if _, ok := layout.ParseVariant(slug); !ok {
			return nil, fmt.Errorf("content_width: %w: %q", layout.ErrInvalidVariant, slug)
		}
		if px <= 0 {
			return nil, fmt.Errorf("content_width %s: width must be positive, got %d", slug, px)
		}
	}
	for _, defs := range [][]sidebar.Definition{o.Sidebars.Replace, o.Sidebars.Add} {
		if err := normalizeSidebarIDs(defs); err != nil {
			return nil, err
		}
	}
	for location := range o.Menus {
		if !util.IsValidSlug(location) {
			return nil, fmt.Errorf("menus: invalid location %q", location)
		}
	}
	return &o, nil
}

// normalizeSidebarIDs derives missing ids from names and rejects ids that
// are not slugs.
func normalizeSidebarIDs(defs []sidebar.Definition) error {
	for i := range defs {
		if defs[i].ID == "" {
			defs[i].ID = util.Slugify(defs[i].Name)
		}
		if defs[i].ID == "" {
			return fmt.Errorf("sidebars entry %d: %w", i, sidebar.ErrEmptyID)
		}
		if !util.IsValidSlug(defs[i].ID) {
			return fmt.Errorf("sidebars entry %d: invalid id %q", i, defs[i].ID)
		}
	}
	return nil
}

// register hooks the overrides into t's filters.
func (o *Overrides) register(t *Theme) error {
	if len(o.Sidebars.Replace)+len(o.Sidebars.Remove)+len(o.Sidebars.Add) > 0 {
		t.sidebarFilter.AddFunc(overridesHook, o.applySidebars)
	}
	if len(o.Menus) > 0 {
		t.menuFilter.AddFunc(overridesHook, o.applyMenus)
	}
	if len(o.ContentWidth) > 0 {
		widths := make(map[layout.Variant]int, len(o.ContentWidth))
		for slug, px := range o.ContentWidth {
			v, ok := layout.ParseVariant(slug)
			if !ok {
				return fmt.Errorf("content_width: %w: %q", layout.ErrInvalidVariant, slug)
			}
			widths[v] = px
		}
		t.widthFilter.Add(overridesHook, hook.DefaultPriority, func(w layout.Width) layout.Width {
			if px, ok := widths[w.Variant]; ok {
				w.Pixels = px
			}
			return w
		})
	}
	return nil
}

func (o *Overrides) applySidebars(defs []sidebar.Definition) []sidebar.Definition {
	if len(o.Sidebars.Replace) > 0 {
		defs = withWrappers(o.Sidebars.Replace)
	}
	defs = slices.DeleteFunc(slices.Clone(defs), func(d sidebar.Definition) bool {
		return slices.Contains(o.Sidebars.Remove, d.ID)
	})
	return append(defs, withWrappers(o.Sidebars.Add)...)
}

func withWrappers(defs []sidebar.Definition) []sidebar.Definition {
	out := make([]sidebar.Definition, len(defs))
	for i, d := range defs {
		out[i] = d.WithDefaultWrappers()
	}
	return out
}

// applyMenus relabels existing locations and appends new ones in sorted
// order. An empty label removes the location.
func (o *Overrides) applyMenus(menus []Menu) []Menu {
	out := make([]Menu, 0, len(menus)+len(o.Menus))
	seen := make(map[string]bool, len(menus))
	for _, m := range menus {
		seen[m.Location] = true
		label, ok := o.Menus[m.Location]
		switch {
		case !ok:
			out = append(out, m)
		case label != "":
			out = append(out, Menu{Location: m.Location, Label: label})
		}
	}

	var added []string
	for loc, label := range o.Menus {
		if !seen[loc] && label != "" {
			added = append(added, loc)
		}
	}
	slices.Sort(added)
	for _, loc := range added {
		out = append(out, Menu{Location: loc, Label: o.Menus[loc]})
	}
	return out
}
