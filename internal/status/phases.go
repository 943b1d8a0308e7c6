package status

import (
	"fmt"

	"github.com/jbweber/splice/api/v1alpha1"
)

// TransitionToCompleted transitions the group phase to Completed.
// This should be called when the last declared device registers.
func TransitionToCompleted(g *v1alpha1.ConcatGroup) error {
	if g.GetPhase() != v1alpha1.GroupPhasePending {
		return fmt.Errorf("cannot transition to Completed from phase %s", g.GetPhase())
	}

	g.SetPhase(v1alpha1.GroupPhaseCompleted)
	g.Status.Missing = nil
	g.Status.Matched = g.Count()
	return nil
}

// TransitionToAssembling transitions the group phase to Assembling.
// This should be called when the group leaves the registry for assembly.
func TransitionToAssembling(g *v1alpha1.ConcatGroup) error {
	if g.GetPhase() != v1alpha1.GroupPhaseCompleted {
		return fmt.Errorf("cannot transition to Assembling from phase %s", g.GetPhase())
	}

	g.SetPhase(v1alpha1.GroupPhaseAssembling)
	SetCondition(g, v1alpha1.ConditionAssembled, v1alpha1.ConditionFalse, "Assembling", "Composite volume creation in progress")
	return nil
}

// TransitionToPublished transitions the group phase to Published.
// This should be called once the composite volume is visible to consumers.
func TransitionToPublished(g *v1alpha1.ConcatGroup, volume string) error {
	if g.GetPhase() != v1alpha1.GroupPhaseAssembling {
		return fmt.Errorf("cannot transition to Published from phase %s", g.GetPhase())
	}

	g.SetPhase(v1alpha1.GroupPhasePublished)
	g.Status.VolumeName = volume
	SetCondition(g, v1alpha1.ConditionPublished, v1alpha1.ConditionTrue, "VolumePublished", "Composite volume "+volume+" published")
	return nil
}

// TransitionToAbandoned transitions the group phase to Abandoned.
// Any non-terminal phase may be abandoned.
func TransitionToAbandoned(g *v1alpha1.ConcatGroup, reason, message string) error {
	if IsTerminal(g.GetPhase()) {
		return fmt.Errorf("cannot transition to Abandoned from phase %s", g.GetPhase())
	}

	g.SetPhase(v1alpha1.GroupPhaseAbandoned)
	SetCondition(g, v1alpha1.ConditionPublished, v1alpha1.ConditionFalse, reason, message)
	return nil
}

// IsTerminal returns true if the phase is terminal (Published or Abandoned).
func IsTerminal(phase v1alpha1.GroupPhase) bool {
	return phase == v1alpha1.GroupPhasePublished || phase == v1alpha1.GroupPhaseAbandoned
}

// IsWaiting returns true while the group is still collecting devices.
func IsWaiting(phase v1alpha1.GroupPhase) bool {
	return phase == v1alpha1.GroupPhasePending
}

// IsTransitioning returns true if the group is between completion and a
// terminal phase.
func IsTransitioning(phase v1alpha1.GroupPhase) bool {
	return phase == v1alpha1.GroupPhaseCompleted || phase == v1alpha1.GroupPhaseAssembling
}
