package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// layerNameRegex matches layer names such as "objects" or "mesh_places".
var layerNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidateLayerName validates a layer name used in graph files and configs.
func ValidateLayerName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "layer name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidInput, "layer name too long (max 64 characters)")
	}
	if !layerNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid layer name: %q", name)
	}
	return nil
}

// nodeLabelRegex matches node labels ("p12") and raw numeric ids.
var nodeLabelRegex = regexp.MustCompile(`^([A-Za-z][0-9]+|[0-9]+)$`)

// ValidateNodeLabel validates the textual form of a node id.
func ValidateNodeLabel(label string) error {
	if label == "" {
		return New(ErrCodeInvalidID, "node label cannot be empty")
	}
	if !nodeLabelRegex.MatchString(label) {
		return New(ErrCodeInvalidID, "invalid node label: %q", label)
	}
	return nil
}

// snapshotIDRegex matches canonical lowercase UUIDs.
var snapshotIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateSnapshotID validates a snapshot id before it is used as a storage
// key or file name.
func ValidateSnapshotID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "snapshot id cannot be empty")
	}
	if !snapshotIDRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "invalid snapshot id: %q", id)
	}
	return nil
}

// ValidatePath validates a storage-relative path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
