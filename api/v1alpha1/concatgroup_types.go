package v1alpha1

// ConcatGroup declares a set of storage devices that are concatenated, in
// order, into one composite volume once every member has registered.
//
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=cg
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Volume",type=string,JSONPath=`.status.volumeName`
type ConcatGroup struct {
	// TypeMeta contains the API version and kind.
	TypeMeta `json:",inline" yaml:",inline"`

	// ObjectMeta contains metadata like name, labels, annotations.
	// +optional
	ObjectMeta `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Spec is the declared membership of the group.
	Spec ConcatGroupSpec `json:"spec" yaml:"spec"`

	// Status is the observed assembly progress. Populated by splice.
	// +optional
	Status ConcatGroupStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// ConcatGroupSpec defines which devices belong to the group.
type ConcatGroupSpec struct {
	// Devices are device identifiers in concatenation order. The first
	// device is mapped at offset zero of the composite volume.
	// Groups with fewer than two devices are ignored.
	Devices []string `json:"devices" yaml:"devices"`

	// Disabled excludes the group from assembly without removing it.
	// +optional
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// ConcatGroupStatus is the observed state of a ConcatGroup.
type ConcatGroupStatus struct {
	// Phase is the lifecycle phase of the group.
	// +optional
	Phase GroupPhase `json:"phase,omitempty" yaml:"phase,omitempty"`

	// Matched is the number of declared devices that have registered.
	// +optional
	Matched int `json:"matched,omitempty" yaml:"matched,omitempty"`

	// Missing lists the device identifiers that have not registered yet.
	// +optional
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`

	// VolumeName is the name of the published composite volume.
	// +optional
	VolumeName string `json:"volumeName,omitempty" yaml:"volumeName,omitempty"`

	// Conditions describe assembly and publication results.
	// +optional
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// GroupPhase is the lifecycle phase of a ConcatGroup.
//
//	Pending -> Completed -> Assembling -> Published
//	                                   \-> Abandoned
type GroupPhase string

const (
	// GroupPhasePending means some declared devices have not registered.
	GroupPhasePending GroupPhase = "Pending"
	// GroupPhaseCompleted means every declared device has registered.
	GroupPhaseCompleted GroupPhase = "Completed"
	// GroupPhaseAssembling means the composite volume is being built.
	GroupPhaseAssembling GroupPhase = "Assembling"
	// GroupPhasePublished means the composite volume is published.
	GroupPhasePublished GroupPhase = "Published"
	// GroupPhaseAbandoned means assembly or publication failed. Terminal.
	GroupPhaseAbandoned GroupPhase = "Abandoned"
)

// Condition types used on ConcatGroup.
const (
	// ConditionAssembled is True once the composite volume was built.
	ConditionAssembled = "Assembled"
	// ConditionPublished is True while the composite volume is published.
	ConditionPublished = "Published"
)
