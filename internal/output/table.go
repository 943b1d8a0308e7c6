package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jbweber/splice/api/v1alpha1"
	"github.com/jbweber/splice/internal/storage"
)

// TableFormatter formats resources as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// FormatGroup formats a single ConcatGroup as a table row.
func (f *TableFormatter) FormatGroup(g *v1alpha1.ConcatGroup) (string, error) {
	return f.FormatGroupList([]*v1alpha1.ConcatGroup{g})
}

// FormatGroupList formats a list of ConcatGroups as a table.
func (f *TableFormatter) FormatGroupList(groups []*v1alpha1.ConcatGroup) (string, error) {
	if len(groups) == 0 {
		return "No groups found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	// Write header unless NoHeaders is set
	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tPHASE\tMATCHED\tVOLUME\tAGE")
	}

	for _, g := range groups {
		phase := string(g.Status.Phase)
		if phase == "" {
			phase = "-"
		}
		if g.Spec.Disabled {
			phase = "Disabled"
		}

		matched := fmt.Sprintf("%d/%d", g.Status.Matched, g.Count())

		volume := g.Status.VolumeName
		if volume == "" {
			volume = "-"
		}

		// Calculate age from creation timestamp
		age := "-"
		if !g.CreationTimestamp.IsZero() {
			age = formatAge(time.Since(g.CreationTimestamp.Time))
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			g.Name, phase, matched, volume, age)
	}

	_ = w.Flush()
	return buf.String(), nil
}

// FormatVolumeList formats descriptor volumes as a table.
func (f *TableFormatter) FormatVolumeList(vols []storage.VolumeInfo) (string, error) {
	if len(vols) == 0 {
		return "No volumes found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tPOOL\tSIZE\tPATH")
	}

	for _, v := range vols {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Name, v.Pool, formatBytes(v.Capacity), v.Path)
	}

	_ = w.Flush()
	return buf.String(), nil
}

// formatBytes formats a byte count with a binary unit.
// Examples: "512B", "4.0KiB", "1.5MiB"
func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatAge formats a duration as a human-readable age string.
// Examples: "5s", "2m", "3h", "4d", "2w", "1y"
func formatAge(d time.Duration) string {
	if d < 0 {
		return "unknown"
	}

	seconds := int(d.Seconds())

	// Less than 1 minute
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	// Less than 1 hour
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}

	hours := minutes / 60
	// Less than 1 day
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}

	days := hours / 24
	// Less than 1 week
	if days < 7 {
		return fmt.Sprintf("%dd", days)
	}

	weeks := days / 7
	// Less than ~2 months (8 weeks)
	if weeks < 8 {
		return fmt.Sprintf("%dw", weeks)
	}

	years := days / 365
	if years > 0 {
		return fmt.Sprintf("%dy", years)
	}

	return fmt.Sprintf("%dd", days)
}
