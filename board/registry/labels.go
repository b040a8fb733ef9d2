// ABOUTME: Label definitions and display settings stored in the configuration document.
// ABOUTME: Renaming a label here only touches the definition; the store rewrites card references.
package registry

import (
	"sort"
	"strings"

	"github.com/2389-research/kanbanfs/board/core"
)

// Labels returns every label definition.
func (r *Registry) Labels() (map[string]core.LabelDefinition, error) {
	cfg, err := r.Config()
	if err != nil {
		return nil, err
	}
	return cfg.Labels, nil
}

// LabelsInGroup returns the sorted names of the labels in group.
func (r *Registry) LabelsInGroup(group string) ([]string, error) {
	labels, err := r.Labels()
	if err != nil {
		return nil, err
	}
	names := []string{}
	for name, def := range labels {
		if def.Group == group {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// SetLabel creates or replaces a label definition.
func (r *Registry) SetLabel(name string, def core.LabelDefinition) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Invalid(core.ErrInvalidID, "empty label name")
	}
	return r.update(func(cfg *core.Config) error {
		cfg.Labels[name] = def
		return nil
	})
}

// DeleteLabel removes a label definition. Cards keep the label string.
func (r *Registry) DeleteLabel(name string) error {
	return r.update(func(cfg *core.Config) error {
		if _, ok := cfg.Labels[name]; !ok {
			return core.NotFound(core.KindLabel, name)
		}
		delete(cfg.Labels, name)
		return nil
	})
}

// RenameLabel moves a definition to a new name. Renaming onto an existing
// name replaces that definition.
func (r *Registry) RenameLabel(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return core.Invalid(core.ErrInvalidID, "empty label name")
	}
	return r.update(func(cfg *core.Config) error {
		def, ok := cfg.Labels[oldName]
		if !ok {
			return core.NotFound(core.KindLabel, oldName)
		}
		delete(cfg.Labels, oldName)
		cfg.Labels[newName] = def
		return nil
	})
}

// Settings returns the display settings.
func (r *Registry) Settings() (core.DisplaySettings, error) {
	cfg, err := r.Config()
	if err != nil {
		return core.DisplaySettings{}, err
	}
	return cfg.DisplaySettings, nil
}

// UpdateSettings replaces the display settings.
func (r *Registry) UpdateSettings(s core.DisplaySettings) error {
	return r.update(func(cfg *core.Config) error {
		cfg.DisplaySettings = s
		return nil
	})
}
