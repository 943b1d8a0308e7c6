// Package loader provides functions for loading ConcatGroup resources
// from YAML files.
//
// A file holds one or more ConcatGroup documents separated by "---".
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jbweber/splice/api/v1alpha1"
	"github.com/jbweber/splice/internal/registry"
)

// LoadFromFile loads ConcatGroup resources from a YAML file.
// The file must be in the splice.cofront.xyz/v1alpha1 format.
func LoadFromFile(path string) ([]*v1alpha1.ConcatGroup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return LoadFromYAML(data)
}

// LoadFromYAML loads ConcatGroup resources from a YAML stream.
// The YAML must be in the splice.cofront.xyz/v1alpha1 format.
func LoadFromYAML(data []byte) ([]*v1alpha1.ConcatGroup, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var groups []*v1alpha1.ConcatGroup
	for i := 0; ; i++ {
		var g v1alpha1.ConcatGroup
		err := dec.Decode(&g)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML document %d: %w", i, err)
		}
		if isEmpty(&g) {
			continue
		}

		if err := validateTypeMeta(&g); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}

		// Set defaults for fields that may be omitted
		applyDefaults(&g)

		if err := validateSpec(&g); err != nil {
			return nil, fmt.Errorf("validation failed for group %q: %w", g.Name, err)
		}

		groups = append(groups, &g)
	}

	if err := validateGroups(groups); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return groups, nil
}

// SaveToFile saves ConcatGroup resources to a YAML file, one document per group.
func SaveToFile(groups []*v1alpha1.ConcatGroup, path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	for _, g := range groups {
		// Ensure TypeMeta is set
		v1alpha1.SetDefaultAPIVersion(g)
		if err := enc.Encode(g); err != nil {
			return fmt.Errorf("failed to marshal group %q to YAML: %w", g.Name, err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal groups to YAML: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

func isEmpty(g *v1alpha1.ConcatGroup) bool {
	return g.APIVersion == "" && g.Kind == "" && g.Name == "" && len(g.Spec.Devices) == 0
}

func validateTypeMeta(g *v1alpha1.ConcatGroup) error {
	// Validate that apiVersion and kind are present
	if g.APIVersion == "" {
		return fmt.Errorf("missing required field: apiVersion")
	}
	if g.Kind == "" {
		return fmt.Errorf("missing required field: kind")
	}

	if g.APIVersion != v1alpha1.APIVersion() {
		return fmt.Errorf("unsupported apiVersion: %s (expected: %s)", g.APIVersion, v1alpha1.APIVersion())
	}
	if g.Kind != v1alpha1.ConcatGroupKind {
		return fmt.Errorf("unsupported kind: %s (expected: %s)", g.Kind, v1alpha1.ConcatGroupKind)
	}
	return nil
}

// applyDefaults sets default values for optional fields.
func applyDefaults(g *v1alpha1.ConcatGroup) {
	// Normalize name to lowercase
	g.Name = strings.ToLower(strings.TrimSpace(g.Name))

	// Device identifiers are NOT lowercased - they must match pool and volume names exactly
	for i, id := range g.Spec.Devices {
		g.Spec.Devices[i] = strings.TrimSpace(id)
	}

	if g.UID == "" {
		g.UID = uuid.New().String()
	}
	if g.CreationTimestamp.IsZero() {
		g.CreationTimestamp = v1alpha1.Time{Time: time.Now()}
	}
	if g.Generation == 0 {
		g.Generation = 1
	}

	// Status is observed, never declared
	g.Status = v1alpha1.ConcatGroupStatus{Phase: v1alpha1.GroupPhasePending}
}

// validateSpec validates a single group for required fields and consistency.
func validateSpec(g *v1alpha1.ConcatGroup) error {
	if g.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}

	seen := make(map[string]bool)
	for i, id := range g.Spec.Devices {
		if id == "" {
			return fmt.Errorf("spec.devices[%d] is empty", i)
		}
		if seen[id] {
			return fmt.Errorf("spec.devices[%d] %q is duplicated", i, id)
		}
		seen[id] = true
	}

	return nil
}

// validateGroups checks constraints that span groups: names are unique and
// no device identifier belongs to more than one group.
func validateGroups(groups []*v1alpha1.ConcatGroup) error {
	names := make(map[string]bool)
	owner := make(map[string]string)
	for _, g := range groups {
		if names[g.Name] {
			return fmt.Errorf("group name %q is duplicated", g.Name)
		}
		names[g.Name] = true

		for _, id := range g.Spec.Devices {
			if other, ok := owner[id]; ok {
				return fmt.Errorf("device %q is declared by groups %q and %q", id, other, g.Name)
			}
			owner[id] = g.Name
		}
	}
	return nil
}

// Source serves loaded groups as registry declarations.
// Disabled groups are skipped.
//
// Source satisfies concat.DeclarationSource.
type Source struct {
	path   string
	groups []*v1alpha1.ConcatGroup
}

// NewSource creates a source over already loaded groups.
func NewSource(groups ...*v1alpha1.ConcatGroup) *Source {
	return &Source{groups: groups}
}

// FileSource creates a source that loads path when declarations are requested.
func FileSource(path string) *Source {
	return &Source{path: path}
}

// Declarations returns the declarations of every enabled group, in file order.
func (s *Source) Declarations(ctx context.Context) ([]registry.Declaration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groups := s.groups
	if s.path != "" {
		loaded, err := LoadFromFile(s.path)
		if err != nil {
			return nil, err
		}
		groups = loaded
	}

	decls := make([]registry.Declaration, 0, len(groups))
	for _, g := range groups {
		if g.Spec.Disabled {
			continue
		}
		decls = append(decls, registry.Declaration{
			Name:    g.Name,
			Devices: append([]string(nil), g.Spec.Devices...),
		})
	}
	return decls, nil
}
