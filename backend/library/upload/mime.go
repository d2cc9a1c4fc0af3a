package upload

import (
	"path/filepath"
	"strings"
)

// deniedExtensions is a fixed deny-list of executable and script extensions.
// It is checked regardless of the configured MIME allow-list.
var deniedExtensions = map[string]bool{
	"exe":  true,
	"dll":  true,
	"bat":  true,
	"cmd":  true,
	"sh":   true,
	"php":  true,
	"js":   true,
	"html": true,
	"htm":  true,
	"asp":  true,
	"aspx": true,
	"jsp":  true,
	"cgi":  true,
	"pl":   true,
	"com":  true,
	"scr":  true,
	"vbs":  true,
	"ps1":  true,
}

// mimeExtensions maps a declared MIME type to the extensions it may carry.
var mimeExtensions = map[string][]string{
	"image/jpeg":      {"jpg", "jpeg"},
	"image/png":       {"png"},
	"image/gif":       {"gif"},
	"application/pdf": {"pdf"},
	"application/msword": {"doc"},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {"docx"},
	"application/vnd.ms-excel": {"xls"},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {"xlsx"},
	"application/vnd.ms-powerpoint":                                    {"ppt"},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {"pptx"},
	"application/zip": {"zip"},
	"text/plain":      {"txt", "log", "md"},
	"text/csv":        {"csv"},
}

// extensionMimeTypes is the reverse table used when serving stored files.
var extensionMimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"zip":  "application/zip",
	"txt":  "text/plain",
	"log":  "text/plain",
	"md":   "text/plain",
	"csv":  "text/csv",
}

// magicSignatures maps an extension to the leading bytes its format must carry.
// A file whose extension is listed here but whose header differs is a renamed
// file of another format.
var magicSignatures = map[string][][]byte{
	"jpg":  {{0xFF, 0xD8, 0xFF}},
	"jpeg": {{0xFF, 0xD8, 0xFF}},
	"png":  {{0x89, 0x50, 0x4E, 0x47}},
	"gif":  {{0x47, 0x49, 0x46, 0x38}},
	"pdf":  {{0x25, 0x50, 0x44, 0x46}},
	"zip":  {{0x50, 0x4B, 0x03, 0x04}},
	"docx": {{0x50, 0x4B, 0x03, 0x04}},
	"xlsx": {{0x50, 0x4B, 0x03, 0x04}},
	"pptx": {{0x50, 0x4B, 0x03, 0x04}},
}

// Extension returns the lowercased extension of name without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// MimeTypeByExtension infers a content type for serving; unknown extensions
// fall back to a generic octet stream.
func MimeTypeByExtension(name string) string {
	if mimeType, ok := extensionMimeTypes[Extension(name)]; ok {
		return mimeType
	}
	return "application/octet-stream"
}
