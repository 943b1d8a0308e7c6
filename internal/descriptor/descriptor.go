// Package descriptor renders the published representation of a composite
// volume: a YAML layout document packed, together with a plain member list,
// into an ISO9660 image.
package descriptor

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/kdomanski/iso9660"
	"gopkg.in/yaml.v3"

	"github.com/jbweber/splice/internal/composite"
	"github.com/jbweber/splice/internal/concat"
)

const (
	// VolumeLabel is the ISO9660 volume identifier of every descriptor.
	VolumeLabel = "CONCAT"

	// LayoutFile holds the YAML layout document.
	LayoutFile = "layout"

	// MembersFile holds the member names, one per line, in order.
	MembersFile = "members"
)

// Layout describes a composite volume.
type Layout struct {
	Name      string           `json:"name" yaml:"name"`
	UID       string           `json:"uid,omitempty" yaml:"uid,omitempty"`
	Parent    string           `json:"parent,omitempty" yaml:"parent,omitempty"`
	Size      uint64           `json:"size" yaml:"size"`
	EraseSize uint32           `json:"eraseSize,omitempty" yaml:"eraseSize,omitempty"`
	Spans     []composite.Span `json:"spans,omitempty" yaml:"spans,omitempty"`
}

// Members returns the member names in span order.
func (l Layout) Members() []string {
	out := make([]string, len(l.Spans))
	for i, s := range l.Spans {
		out[i] = s.Member
	}
	return out
}

// FromVolume builds the layout of a volume. Volumes that are not
// *composite.Volume only carry their name.
func FromVolume(v concat.Volume) Layout {
	cv, ok := v.(*composite.Volume)
	if !ok {
		return Layout{Name: v.Name()}
	}
	return Layout{
		Name:      cv.Name(),
		UID:       cv.UID(),
		Parent:    cv.Parent(),
		Size:      cv.Size(),
		EraseSize: cv.EraseSize(),
		Spans:     cv.Spans(),
	}
}

// Marshal renders the layout as YAML.
func (l Layout) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal layout: %w", err)
	}
	return data, nil
}

// Parse reads a YAML layout document.
func Parse(data []byte) (Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("failed to parse layout: %w", err)
	}
	if l.Name == "" {
		return Layout{}, fmt.Errorf("layout has no name")
	}
	return l, nil
}

// GenerateISO creates the descriptor image of a layout.
//
// The image contains two files in the root directory:
//   - layout: the YAML layout document
//   - members: member names in concatenation order, one per line
//
// The volume label is VolumeLabel.
func GenerateISO(l Layout) ([]byte, error) {
	if l.Name == "" {
		return nil, fmt.Errorf("layout name cannot be empty")
	}

	layout, err := l.Marshal()
	if err != nil {
		return nil, err
	}

	var members strings.Builder
	for _, m := range l.Members() {
		members.WriteString(m)
		members.WriteString("\n")
	}

	writer, err := iso9660.NewWriter()
	if err != nil {
		return nil, fmt.Errorf("failed to create ISO writer: %w", err)
	}
	defer func() {
		// The image is already in memory once WriteTo returns
		_ = writer.Cleanup()
	}()

	if err := writer.AddFile(bytes.NewReader(layout), LayoutFile); err != nil {
		return nil, fmt.Errorf("failed to add %s: %w", LayoutFile, err)
	}
	if err := writer.AddFile(strings.NewReader(members.String()), MembersFile); err != nil {
		return nil, fmt.Errorf("failed to add %s: %w", MembersFile, err)
	}

	var buf bytes.Buffer
	if err := writer.WriteTo(&buf, VolumeLabel); err != nil {
		return nil, fmt.Errorf("failed to write ISO image: %w", err)
	}

	return buf.Bytes(), nil
}

// ReadISO extracts the layout from a descriptor image.
func ReadISO(r io.ReaderAt) (Layout, error) {
	img, err := iso9660.OpenImage(r)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to open ISO image: %w", err)
	}

	label, err := img.Label()
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read volume label: %w", err)
	}
	if label != VolumeLabel {
		return Layout{}, fmt.Errorf("not a descriptor image: label %q", label)
	}

	root, err := img.RootDir()
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read root directory: %w", err)
	}
	children, err := root.GetChildren()
	if err != nil {
		return Layout{}, fmt.Errorf("failed to list root directory: %w", err)
	}

	for _, child := range children {
		if child.Name() != LayoutFile {
			continue
		}
		data, err := io.ReadAll(child.Reader())
		if err != nil {
			return Layout{}, fmt.Errorf("failed to read %s: %w", LayoutFile, err)
		}
		return Parse(data)
	}

	return Layout{}, fmt.Errorf("descriptor image has no %s file", LayoutFile)
}
