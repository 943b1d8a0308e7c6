// Package naming provides the naming conventions for composite volumes and
// the identifiers of discovered member devices.
//
// Composite names are derived from member names so the same group always
// produces the same name, whatever order its devices registered in.
package naming

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// CompositeSuffix ends every composite volume name.
	CompositeSuffix = "-concat"

	// ManyMarker is inserted after the second member name when a composite
	// has more than two members.
	ManyMarker = "-+"

	// DescriptorExt is the file extension of published descriptor volumes.
	DescriptorExt = ".iso"

	// IDSeparator splits the pool and volume parts of a device identifier.
	IDSeparator = "/"
)

// ErrTooFewMembers is returned when a composite name is requested for fewer
// than two members.
var ErrTooFewMembers = errors.New("composite name needs at least two members")

// CompositeName returns the name of the composite built from members, which
// must be given in concatenation order.
//
// Format: {first}-{second}-concat, or {first}-{second}-+-concat when there
// are more than two members.
//
// Example: ["data0", "data1", "data2"] → data0-data1-+-concat
func CompositeName(members []string) (string, error) {
	if len(members) < 2 {
		return "", fmt.Errorf("%w: got %d", ErrTooFewMembers, len(members))
	}

	marker := ""
	if len(members) > 2 {
		marker = ManyMarker
	}
	return fmt.Sprintf("%s-%s%s%s", members[0], members[1], marker, CompositeSuffix), nil
}

// IsCompositeName reports whether name looks like a composite volume name.
func IsCompositeName(name string) bool {
	return strings.HasSuffix(name, CompositeSuffix) && len(name) > len(CompositeSuffix)
}

// DescriptorVolumeName returns the volume name of a composite's descriptor.
// Format: {composite}.iso
func DescriptorVolumeName(composite string) string {
	return composite + DescriptorExt
}

// IsDescriptorVolume reports whether a volume name belongs to a descriptor.
func IsDescriptorVolume(name string) bool {
	return strings.HasSuffix(name, CompositeSuffix+DescriptorExt)
}

// DeviceID returns the identifier of a volume discovered in a storage pool.
// Format: {pool}/{volume}
func DeviceID(pool, volume string) string {
	return pool + IDSeparator + volume
}

// ParseDeviceID splits a device identifier produced by DeviceID.
func ParseDeviceID(id string) (pool, volume string, err error) {
	pool, volume, ok := strings.Cut(id, IDSeparator)
	if !ok || pool == "" || volume == "" {
		return "", "", fmt.Errorf("invalid device identifier %q: expected pool/volume", id)
	}
	return pool, volume, nil
}
