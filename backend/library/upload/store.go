package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"formbox/backend/common"
)

// StoredFile is the retrieval metadata returned for an accepted upload.
// FilePath is relative to the private storage root; the original name is kept
// only as display metadata and never used on disk.
type StoredFile struct {
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// StorageError wraps disk failures so callers can tell them apart from
// validation or scan verdicts.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// LocalStore validates, scans and persists uploads under a private directory.
// Incoming bytes are staged in a temp directory first so the scanner sees the
// exact bytes that will be promoted.
type LocalStore struct {
	storageDir  string
	tempDir     string
	validator   *Validator
	scanner     *Scanner
	scanEnabled bool
}

func NewLocalStore(storageDir, tempDir string, validator *Validator, scanner *Scanner, scanEnabled bool) *LocalStore {
	return &LocalStore{
		storageDir:  storageDir,
		tempDir:     tempDir,
		validator:   validator,
		scanner:     scanner,
		scanEnabled: scanEnabled,
	}
}

// DefaultStore builds a store from the process-wide configuration, with no
// hash blacklist.
func DefaultStore() *LocalStore {
	validator := NewValidator(Config{
		MaxFileSize:      common.MaxFileSize,
		AllowedMimeTypes: common.AllowedMimeTypes,
	})
	return NewLocalStore(common.StorageDir, common.TempDir, validator, NewScanner(nil), common.ScanEnabled)
}

// Save runs the full intake pipeline: metadata validation, temp write, scan,
// promote. The temp file is removed on every exit path except a successful
// promote, so a failed or abandoned upload leaves nothing behind.
func (s *LocalStore) Save(r io.Reader, info FileInfo) (*StoredFile, error) {
	if err := s.validator.Validate(info); err != nil {
		return nil, err
	}

	ext := Extension(info.Name)
	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return nil, &StorageError{Op: "prepare temp directory", Err: err}
	}

	tempPath := filepath.Join(s.tempDir, common.GetUUID()+dotted(ext))
	written, err := writeFile(tempPath, r)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, &StorageError{Op: "write temp file", Err: err}
	}
	promoted := false
	defer func() {
		if !promoted {
			_ = os.Remove(tempPath)
		}
	}()

	if written > s.validator.cfg.MaxFileSize {
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"file size %d exceeds the maximum allowed size of %d bytes", written, s.validator.cfg.MaxFileSize)}
	}

	if s.scanEnabled {
		if err := s.scanner.Scan(tempPath); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(s.storageDir, 0o755); err != nil {
		return nil, &StorageError{Op: "prepare storage directory", Err: err}
	}
	storedName := common.GetUUID() + dotted(ext)
	if err := os.Rename(tempPath, filepath.Join(s.storageDir, storedName)); err != nil {
		return nil, &StorageError{Op: "promote file", Err: err}
	}
	promoted = true

	return &StoredFile{
		FileName: info.Name,
		FilePath: storedName,
		FileSize: written,
		MimeType: info.MimeType,
	}, nil
}

// Remove deletes a stored file. Missing files are not an error; the database
// row is the source of truth and byte deletion is best effort.
func (s *LocalStore) Remove(filePath string) error {
	fullPath, err := s.Resolve(filePath)
	if err != nil {
		return nil
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &StorageError{Op: "remove file", Err: err}
	}
	return nil
}

// Resolve maps a storage-relative path to the real file, rejecting anything
// that escapes the storage root or is not a regular file.
func (s *LocalStore) Resolve(filePath string) (string, error) {
	root, err := filepath.Abs(s.storageDir)
	if err != nil {
		return "", &StorageError{Op: "resolve storage root", Err: err}
	}
	fullPath := filepath.Join(root, filepath.FromSlash(filePath))
	if fullPath != root && !strings.HasPrefix(fullPath, root+string(os.PathSeparator)) {
		return "", os.ErrNotExist
	}
	stat, err := os.Stat(fullPath)
	if err != nil {
		return "", os.ErrNotExist
	}
	if !stat.Mode().IsRegular() {
		return "", os.ErrNotExist
	}
	return fullPath, nil
}

func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return written, err
}

func dotted(ext string) string {
	if ext == "" {
		return ""
	}
	return "." + ext
}
