package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

const (
	// GroupName is the API group for splice resources.
	GroupName = "splice.cofront.xyz"

	// Version is the API version.
	Version = "v1alpha1"

	// ConcatGroupKind is the kind string for ConcatGroup resources.
	ConcatGroupKind = "ConcatGroup"

	// MinDevices is the smallest number of devices that forms a group.
	MinDevices = 2
)

// APIVersion returns the full apiVersion string, e.g. "splice.cofront.xyz/v1alpha1".
func APIVersion() string {
	return GroupName + "/" + Version
}

// NewConcatGroup creates a ConcatGroup with TypeMeta and ObjectMeta defaults.
func NewConcatGroup(name string, devices ...string) *ConcatGroup {
	return &ConcatGroup{
		TypeMeta: TypeMeta{
			APIVersion: APIVersion(),
			Kind:       ConcatGroupKind,
		},
		ObjectMeta: ObjectMeta{
			Name:              name,
			UID:               uuid.New().String(),
			CreationTimestamp: Time{Time: time.Now()},
			Generation:        1,
		},
		Spec: ConcatGroupSpec{
			Devices: append([]string(nil), devices...),
		},
		Status: ConcatGroupStatus{
			Phase: GroupPhasePending,
		},
	}
}

// SetDefaultAPIVersion fills in apiVersion and kind when they are missing.
func SetDefaultAPIVersion(g *ConcatGroup) {
	if g.APIVersion == "" {
		g.APIVersion = APIVersion()
	}
	if g.Kind == "" {
		g.Kind = ConcatGroupKind
	}
}

// GetPhase returns the current phase.
func (g *ConcatGroup) GetPhase() GroupPhase {
	return g.Status.Phase
}

// SetPhase sets the phase and bumps the generation.
func (g *ConcatGroup) SetPhase(phase GroupPhase) {
	g.Status.Phase = phase
	g.Generation++
}

// Count returns the number of declared devices.
func (g *ConcatGroup) Count() int {
	return len(g.Spec.Devices)
}

// IsAssemblable reports whether the group takes part in assembly: it is not
// disabled and lists at least MinDevices devices.
func (g *ConcatGroup) IsAssemblable() bool {
	return !g.Spec.Disabled && g.Count() >= MinDevices
}

// DeepCopy creates a deep copy of the ConcatGroup.
func (g *ConcatGroup) DeepCopy() *ConcatGroup {
	if g == nil {
		return nil
	}
	out := new(ConcatGroup)
	*out = *g
	out.ObjectMeta = *g.ObjectMeta.DeepCopy()
	out.Spec.Devices = append([]string(nil), g.Spec.Devices...)
	out.Status.Missing = append([]string(nil), g.Status.Missing...)
	if g.Status.Conditions != nil {
		out.Status.Conditions = make([]Condition, len(g.Status.Conditions))
		copy(out.Status.Conditions, g.Status.Conditions)
	}
	return out
}
