package upload

import "fmt"

// FileInfo is the metadata a validator decision is based on. The validator
// never reads file content; that is the scanner's job.
type FileInfo struct {
	Name     string
	Size     int64
	MimeType string
}

// ValidationError reports why a file's metadata was refused.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Config holds the tunable validation limits.
type Config struct {
	MaxFileSize      int64
	AllowedMimeTypes []string
}

type Validator struct {
	cfg Config
}

func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate checks size, declared MIME type, extension deny-list and the
// extension/MIME consistency, in that order, stopping at the first failure.
func (v *Validator) Validate(file FileInfo) error {
	if file.Size > v.cfg.MaxFileSize {
		return &ValidationError{Reason: fmt.Sprintf(
			"file size %d exceeds the maximum allowed size of %d bytes", file.Size, v.cfg.MaxFileSize)}
	}

	if !v.mimeTypeAllowed(file.MimeType) {
		return &ValidationError{Reason: fmt.Sprintf("file type %s not allowed", file.MimeType)}
	}

	ext := Extension(file.Name)
	if deniedExtensions[ext] {
		return &ValidationError{Reason: fmt.Sprintf(
			"extension .%s is not allowed for security reasons", ext)}
	}

	if !extensionMatchesMime(ext, file.MimeType) {
		return &ValidationError{Reason: fmt.Sprintf(
			"extension .%s doesn't match claimed type %s", ext, file.MimeType)}
	}

	return nil
}

func (v *Validator) mimeTypeAllowed(mimeType string) bool {
	for _, allowed := range v.cfg.AllowedMimeTypes {
		if allowed == mimeType {
			return true
		}
	}
	return false
}

func extensionMatchesMime(ext string, mimeType string) bool {
	extensions, ok := mimeExtensions[mimeType]
	if !ok {
		// Unknown but allow-listed MIME type: nothing to cross-check against.
		return true
	}
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}
