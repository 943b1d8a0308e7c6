// Package status provides utilities for managing ConcatGroup status fields,
// including conditions and phase transitions.
package status

import (
	"time"

	"github.com/jbweber/splice/api/v1alpha1"
)

// SetCondition adds or updates a condition in the group status.
// If a condition with the same type already exists, it updates it.
// The LastTransitionTime is only updated if the status changes.
func SetCondition(g *v1alpha1.ConcatGroup, condType string, status v1alpha1.ConditionStatus, reason, message string) {
	now := v1alpha1.Time{Time: time.Now()}

	for i := range g.Status.Conditions {
		if g.Status.Conditions[i].Type == condType {
			existing := &g.Status.Conditions[i]

			// Only update LastTransitionTime if status changed
			if existing.Status != status {
				existing.LastTransitionTime = now
			}

			existing.Status = status
			existing.Reason = reason
			existing.Message = message
			existing.ObservedGeneration = g.Generation
			return
		}
	}

	g.Status.Conditions = append(g.Status.Conditions, v1alpha1.Condition{
		Type:               condType,
		Status:             status,
		ObservedGeneration: g.Generation,
		LastTransitionTime: now,
		Reason:             reason,
		Message:            message,
	})
}

// GetCondition returns a condition by type, or nil if not found.
func GetCondition(g *v1alpha1.ConcatGroup, condType string) *v1alpha1.Condition {
	for i := range g.Status.Conditions {
		if g.Status.Conditions[i].Type == condType {
			return &g.Status.Conditions[i]
		}
	}
	return nil
}

// IsConditionTrue returns true if the condition exists and has status True.
func IsConditionTrue(g *v1alpha1.ConcatGroup, condType string) bool {
	cond := GetCondition(g, condType)
	return cond != nil && cond.Status == v1alpha1.ConditionTrue
}

// IsConditionFalse returns true if the condition exists and has status False.
func IsConditionFalse(g *v1alpha1.ConcatGroup, condType string) bool {
	cond := GetCondition(g, condType)
	return cond != nil && cond.Status == v1alpha1.ConditionFalse
}

// RemoveCondition removes a condition by type.
func RemoveCondition(g *v1alpha1.ConcatGroup, condType string) {
	filtered := make([]v1alpha1.Condition, 0, len(g.Status.Conditions))
	for i := range g.Status.Conditions {
		if g.Status.Conditions[i].Type != condType {
			filtered = append(filtered, g.Status.Conditions[i])
		}
	}
	g.Status.Conditions = filtered
}

// RecordProgress copies matching progress into the status.
func RecordProgress(g *v1alpha1.ConcatGroup, matched int, missing []string) {
	g.Status.Matched = matched
	g.Status.Missing = append([]string(nil), missing...)
}

// MarkAssembled marks the Assembled condition as True.
func MarkAssembled(g *v1alpha1.ConcatGroup, volume string) {
	SetCondition(g, v1alpha1.ConditionAssembled, v1alpha1.ConditionTrue, "CompositeCreated", "Composite volume "+volume+" created")
}

// MarkAssemblyFailed marks the Assembled condition as False.
func MarkAssemblyFailed(g *v1alpha1.ConcatGroup, err error) {
	SetCondition(g, v1alpha1.ConditionAssembled, v1alpha1.ConditionFalse, "AssemblyFailed", err.Error())
}

// MarkPublishFailed marks the Published condition as False.
func MarkPublishFailed(g *v1alpha1.ConcatGroup, err error) {
	SetCondition(g, v1alpha1.ConditionPublished, v1alpha1.ConditionFalse, "PublishFailed", err.Error())
}
