package output

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/splice/api/v1alpha1"
	"github.com/jbweber/splice/internal/storage"
)

// YAMLFormatter formats resources as YAML.
type YAMLFormatter struct{}

// FormatGroup formats a single ConcatGroup as YAML.
func (f *YAMLFormatter) FormatGroup(g *v1alpha1.ConcatGroup) (string, error) {
	// Ensure TypeMeta is set
	v1alpha1.SetDefaultAPIVersion(g)

	data, err := yaml.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("failed to marshal group to YAML: %w", err)
	}

	return string(data), nil
}

// FormatGroupList formats a list of ConcatGroups as YAML.
// Outputs as a YAML stream (multiple documents separated by ---), which
// the loader reads back.
func (f *YAMLFormatter) FormatGroupList(groups []*v1alpha1.ConcatGroup) (string, error) {
	if len(groups) == 0 {
		return "", nil
	}

	var buf bytes.Buffer

	for i, g := range groups {
		v1alpha1.SetDefaultAPIVersion(g)

		data, err := yaml.Marshal(g)
		if err != nil {
			return "", fmt.Errorf("failed to marshal group %s to YAML: %w", g.Name, err)
		}

		// Add document separator between groups (but not before the first one)
		if i > 0 {
			buf.WriteString("---\n")
		}

		buf.Write(data)
	}

	return buf.String(), nil
}

// FormatVolumeList formats descriptor volumes as a YAML sequence.
func (f *YAMLFormatter) FormatVolumeList(vols []storage.VolumeInfo) (string, error) {
	if len(vols) == 0 {
		return "[]\n", nil
	}

	data, err := yaml.Marshal(vols)
	if err != nil {
		return "", fmt.Errorf("failed to marshal volumes to YAML: %w", err)
	}

	return string(data), nil
}
