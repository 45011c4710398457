// Package remote defines the directory-provider contract the scanner
// consumes: paginated child listings over a hierarchical namespace,
// plus a best-effort folder description lookup.
package remote

import (
	"context"
	"errors"
)

// MimeFolder marks an entry as a folder. Providers for stores without
// native MIME types (e.g. S3 prefixes) report it for their folder
// entries so the scanner recurses uniformly.
const MimeFolder = "application/vnd.google-apps.folder"

// Entry is one child returned by a listing call.
type Entry struct {
	ID           string
	Name         string
	MimeType     string
	Size         int64
	ModifiedTime string
	CreatedTime  string
	Link         string
}

// IsFolder reports whether the entry is a folder.
func (e Entry) IsFolder() bool {
	return e.MimeType == MimeFolder
}

// Listing is one page of children. An empty NextPageToken means the
// listing is exhausted.
type Listing struct {
	Entries       []Entry
	NextPageToken string
}

// Provider enumerates a remote hierarchical namespace.
type Provider interface {
	// List returns one page of the folder's children. Pass the
	// NextPageToken of the previous page to continue; empty starts over.
	List(ctx context.Context, folderID, pageToken string) (*Listing, error)

	// Description fetches the folder's free-text description, if the
	// backend has one.
	Description(ctx context.Context, folderID string) (string, error)
}

// Failure kinds providers must surface so the retry policy can branch
// on them instead of inspecting message text. Providers wrap these with
// call context via fmt.Errorf("...: %w", ErrRateLimited).
var (
	ErrRateLimited      = errors.New("remote: rate limited")
	ErrPermissionDenied = errors.New("remote: permission denied")
)

// IsRateLimited reports whether err is a rate-limit condition.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsPermissionDenied reports whether err is a permission failure.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}
