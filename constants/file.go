package constants

import "strings"

// InboxExtensions are the offer text files picked up by batch and watch modes.
var InboxExtensions = map[string]struct{}{
	"txt": {},
	"md":  {},
	"eml": {},
}

// PhotoExtensions are the image formats accepted for the photo column.
var PhotoExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
