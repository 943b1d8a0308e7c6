package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jbweber/splice/api/v1alpha1"
	"github.com/jbweber/splice/internal/storage"
)

// JSONFormatter formats resources as JSON.
type JSONFormatter struct{}

// FormatGroup formats a single ConcatGroup as JSON.
func (f *JSONFormatter) FormatGroup(g *v1alpha1.ConcatGroup) (string, error) {
	// Ensure TypeMeta is set
	v1alpha1.SetDefaultAPIVersion(g)

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal group to JSON: %w", err)
	}

	return string(data) + "\n", nil
}

// FormatGroupList formats a list of ConcatGroups as a JSON array.
func (f *JSONFormatter) FormatGroupList(groups []*v1alpha1.ConcatGroup) (string, error) {
	if len(groups) == 0 {
		return "[]\n", nil
	}

	for _, g := range groups {
		v1alpha1.SetDefaultAPIVersion(g)
	}

	data, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal groups to JSON: %w", err)
	}

	return string(data) + "\n", nil
}

// FormatGroupListAsItems formats a list of ConcatGroups as a JSON object with items array.
// This mimics Kubernetes List format:
//
//	{
//	  "apiVersion": "splice.cofront.xyz/v1alpha1",
//	  "kind": "ConcatGroupList",
//	  "items": [...]
//	}
func (f *JSONFormatter) FormatGroupListAsItems(groups []*v1alpha1.ConcatGroup) (string, error) {
	for _, g := range groups {
		v1alpha1.SetDefaultAPIVersion(g)
	}
	if groups == nil {
		groups = []*v1alpha1.ConcatGroup{}
	}

	wrapper := map[string]interface{}{
		"apiVersion": v1alpha1.APIVersion(),
		"kind":       v1alpha1.ConcatGroupKind + "List",
		"items":      groups,
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(wrapper); err != nil {
		return "", fmt.Errorf("failed to marshal group list to JSON: %w", err)
	}

	return buf.String(), nil
}

// FormatVolumeList formats descriptor volumes as a JSON array.
func (f *JSONFormatter) FormatVolumeList(vols []storage.VolumeInfo) (string, error) {
	if len(vols) == 0 {
		return "[]\n", nil
	}

	data, err := json.MarshalIndent(vols, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal volumes to JSON: %w", err)
	}

	return string(data) + "\n", nil
}
