package model

// CategoryOthers is the catch-all category for unmapped MIME types.
const CategoryOthers = "others"

// CategoryTable maps a category name to the MIME types it covers. The
// table is plain data so deployments can swap it without touching the
// diff or version logic.
type CategoryTable map[string][]string

// DefaultCategories is the built-in MIME classification table.
var DefaultCategories = CategoryTable{
	"documents": {
		"application/pdf",
		"application/vnd.google-apps.document",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain",
	},
	"spreadsheets": {
		"application/vnd.google-apps.spreadsheet",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	},
	"presentations": {
		"application/vnd.google-apps.presentation",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	},
	"images": {
		"image/jpeg", "image/png", "image/gif", "image/bmp", "image/svg+xml",
	},
	"videos": {
		"video/mp4", "video/avi", "video/mkv", "video/mov", "video/wmv",
	},
	"audio": {
		"audio/mp3", "audio/wav", "audio/flac", "audio/aac",
	},
	"archives": {
		"application/zip", "application/x-rar-compressed", "application/x-7z-compressed",
	},
}

// Categorize classifies a MIME type. Unknown or empty types fall into
// CategoryOthers; the function is total and never fails.
func (t CategoryTable) Categorize(mimeType string) string {
	if mimeType == "" {
		return CategoryOthers
	}
	for category, mimeTypes := range t {
		for _, m := range mimeTypes {
			if m == mimeType {
				return category
			}
		}
	}
	return CategoryOthers
}
