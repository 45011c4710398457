package diff

import (
	"fmt"
	"sort"
	"strings"
)

// Change tags recorded on a modified entry, one per differing field.
const (
	TagRenamed  = "renamed"
	TagResized  = "resized"
	TagModified = "modified"
)

// NoChangesSummary is the fixed summary for an empty change set.
const NoChangesSummary = "No changes detected"

// FileRef points at one added or deleted file.
type FileRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Modified describes a file present in both scans whose metadata
// differs. ChangeType joins the applicable tags for display.
type Modified struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OldName     string `json:"old_name"`
	OldModified string `json:"old_modified"`
	NewModified string `json:"new_modified"`
	OldSize     int64  `json:"old_size"`
	NewSize     int64  `json:"new_size"`
	ChangeType  string `json:"change_type"`
}

// ChangeSet is the immutable result of comparing two signature maps.
// The JSON field names are part of the persisted changelog contract.
type ChangeSet struct {
	Added        []FileRef  `json:"added_files"`
	Deleted      []FileRef  `json:"deleted_files"`
	Modified     []Modified `json:"modified_files"`
	TotalChanges int        `json:"total_changes"`
	Summary      string     `json:"summary"`
}

// Compare diffs the current signatures against the previous baseline.
// Entries are sorted by ID so identical inputs always produce identical
// change sets.
func Compare(current, previous map[string]Signature) *ChangeSet {
	changes := &ChangeSet{
		Added:    []FileRef{},
		Deleted:  []FileRef{},
		Modified: []Modified{},
	}

	for id, sig := range current {
		if _, ok := previous[id]; !ok {
			changes.Added = append(changes.Added, FileRef{ID: id, Name: sig.Name, Size: sig.Size})
		}
	}

	for id, sig := range previous {
		if _, ok := current[id]; !ok {
			changes.Deleted = append(changes.Deleted, FileRef{ID: id, Name: sig.Name, Size: sig.Size})
		}
	}

	for id, cur := range current {
		prev, ok := previous[id]
		if !ok {
			continue
		}

		var tags []string
		if cur.Name != prev.Name {
			tags = append(tags, TagRenamed)
		}
		if cur.Size != prev.Size {
			tags = append(tags, TagResized)
		}
		if cur.Modified != prev.Modified {
			tags = append(tags, TagModified)
		}
		if len(tags) == 0 {
			continue
		}

		changes.Modified = append(changes.Modified, Modified{
			ID:          id,
			Name:        cur.Name,
			OldName:     prev.Name,
			OldModified: prev.Modified,
			NewModified: cur.Modified,
			OldSize:     prev.Size,
			NewSize:     cur.Size,
			ChangeType:  strings.Join(tags, ", "),
		})
	}

	sort.Slice(changes.Added, func(i, j int) bool { return changes.Added[i].ID < changes.Added[j].ID })
	sort.Slice(changes.Deleted, func(i, j int) bool { return changes.Deleted[i].ID < changes.Deleted[j].ID })
	sort.Slice(changes.Modified, func(i, j int) bool { return changes.Modified[i].ID < changes.Modified[j].ID })

	changes.TotalChanges = len(changes.Added) + len(changes.Deleted) + len(changes.Modified)
	changes.Summary = summarize(changes)
	return changes
}

func summarize(c *ChangeSet) string {
	var parts []string
	if len(c.Added) > 0 {
		parts = append(parts, fmt.Sprintf("%d files added", len(c.Added)))
	}
	if len(c.Deleted) > 0 {
		parts = append(parts, fmt.Sprintf("%d files deleted", len(c.Deleted)))
	}
	if len(c.Modified) > 0 {
		parts = append(parts, fmt.Sprintf("%d files modified", len(c.Modified)))
	}
	if len(parts) == 0 {
		return NoChangesSummary
	}
	return strings.Join(parts, ", ")
}
