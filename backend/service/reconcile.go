package service

import (
	"errors"
	"io"
	"sort"
	"strings"

	"gorm.io/gorm"

	"formbox/backend/common"
	fberrors "formbox/backend/common/errors"
	"formbox/backend/common/i18n"
	"formbox/backend/library/db"
	"formbox/backend/library/upload"
	"formbox/backend/model"
)

// FieldUpdateKind tags the variant carried by a FieldUpdate.
type FieldUpdateKind int

const (
	KindScalar FieldUpdateKind = iota
	KindFile
	KindDelete
)

// IncomingFile is an uploaded file as received at the HTTP boundary.
type IncomingFile struct {
	Name     string
	Size     int64
	MimeType string
	Content  io.Reader
}

// FieldUpdate is a tagged variant: a scalar value, a file upload, or an
// explicit delete marker. The variant is decided once when the request is
// parsed; nothing downstream re-inspects the payload.
type FieldUpdate struct {
	Kind  FieldUpdateKind
	Value string
	File  *IncomingFile
}

func ScalarUpdate(value string) FieldUpdate {
	return FieldUpdate{Kind: KindScalar, Value: value}
}

func FileUpdate(file *IncomingFile) FieldUpdate {
	return FieldUpdate{Kind: KindFile, File: file}
}

func DeleteUpdate() FieldUpdate {
	return FieldUpdate{Kind: KindDelete}
}

// JoinValues serializes a multi-value answer (multiselect) into the single
// text column used for storage.
func JoinValues(values []string) string {
	return strings.Join(values, ",")
}

// ReconcileResponseFields merges a partial update into a response's stored
// fields. Fields absent from updates are left untouched. File uploads run the
// full validate/scan/store pipeline before any database write; the first
// rejected file aborts the whole call. All row changes for one call are
// applied in a single transaction.
func ReconcileResponseFields(responseId int64, updates map[int64]FieldUpdate, store *upload.LocalStore, lang string) ([]model.ResponseField, error) {
	var existing []model.ResponseField
	if err := db.DB.Where("response_id = ?", responseId).Find(&existing).Error; err != nil {
		return nil, i18n.Wrap(err, fberrors.ErrInternalServer, lang)
	}
	existingByField := make(map[int64]*model.ResponseField, len(existing))
	for i := range existing {
		existingByField[existing[i].FieldId] = &existing[i]
	}

	// Store all file uploads first so a rejection aborts before any row is
	// written. fieldIds are walked in order to keep failures deterministic.
	fieldIds := make([]int64, 0, len(updates))
	for fieldId := range updates {
		fieldIds = append(fieldIds, fieldId)
	}
	sort.Slice(fieldIds, func(i, j int) bool { return fieldIds[i] < fieldIds[j] })

	stored := make(map[int64]*upload.StoredFile)
	for _, fieldId := range fieldIds {
		update := updates[fieldId]
		if update.Kind != KindFile {
			continue
		}
		file, err := store.Save(update.File.Content, upload.FileInfo{
			Name:     update.File.Name,
			Size:     update.File.Size,
			MimeType: update.File.MimeType,
		})
		if err != nil {
			removeStoredFiles(store, stored)
			return nil, WrapUploadError(err, lang)
		}
		stored[fieldId] = file
	}

	// Old file bytes are only removed after the transaction commits; until
	// then the rows still reference them.
	var orphanedPaths []string

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		for _, fieldId := range fieldIds {
			update := updates[fieldId]
			row := existingByField[fieldId]

			switch update.Kind {
			case KindDelete:
				// Clear in place instead of removing the row: an emptied
				// answer stays distinguishable from a never-given one.
				if row == nil {
					continue
				}
				if row.HasFile() {
					orphanedPaths = append(orphanedPaths, row.FilePath)
				}
				row.Value = ""
				row.ClearFile()
				if err := tx.Save(row).Error; err != nil {
					return err
				}

			case KindFile:
				file := stored[fieldId]
				if row == nil {
					newRow := model.ResponseField{
						ResponseId: responseId,
						FieldId:    fieldId,
						Value:      file.FilePath,
						FileName:   file.FileName,
						FilePath:   file.FilePath,
						FileSize:   file.FileSize,
						MimeType:   file.MimeType,
					}
					if err := tx.Create(&newRow).Error; err != nil {
						return err
					}
					continue
				}
				if row.HasFile() && row.FilePath != file.FilePath {
					orphanedPaths = append(orphanedPaths, row.FilePath)
				}
				row.Value = file.FilePath
				row.FileName = file.FileName
				row.FilePath = file.FilePath
				row.FileSize = file.FileSize
				row.MimeType = file.MimeType
				if err := tx.Save(row).Error; err != nil {
					return err
				}

			case KindScalar:
				if row == nil {
					newRow := model.ResponseField{
						ResponseId: responseId,
						FieldId:    fieldId,
						Value:      update.Value,
					}
					if err := tx.Create(&newRow).Error; err != nil {
						return err
					}
					continue
				}
				// File metadata is left as-is: a scalar edit must not be
				// mistaken for a file removal.
				row.Value = update.Value
				if err := tx.Save(row).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		removeStoredFiles(store, stored)
		return nil, i18n.Wrap(err, fberrors.ErrInternalServer, lang)
	}

	for _, path := range orphanedPaths {
		if err := store.Remove(path); err != nil {
			common.SysError("failed to remove replaced file " + path + ": " + err.Error())
		}
	}

	var result []model.ResponseField
	if err := db.DB.Where("response_id = ?", responseId).Order("field_id ASC").Find(&result).Error; err != nil {
		return nil, i18n.Wrap(err, fberrors.ErrInternalServer, lang)
	}
	return result, nil
}

func removeStoredFiles(store *upload.LocalStore, stored map[int64]*upload.StoredFile) {
	for _, file := range stored {
		if err := store.Remove(file.FilePath); err != nil {
			common.SysError("failed to clean up stored file " + file.FilePath + ": " + err.Error())
		}
	}
}

// WrapUploadError attaches the right error code to a verdict from the upload
// pipeline so callers can map it to an HTTP status.
func WrapUploadError(err error, lang string) error {
	var validationErr *upload.ValidationError
	if errors.As(err, &validationErr) {
		return i18n.Wrap(err, fberrors.ErrValidationFailed, lang, validationErr.Reason)
	}
	var scanErr *upload.ScanError
	if errors.As(err, &scanErr) {
		return i18n.Wrap(err, fberrors.ErrScanRejected, lang, scanErr.Message)
	}
	var storageErr *upload.StorageError
	if errors.As(err, &storageErr) {
		return i18n.Wrap(err, fberrors.ErrStorageFailure, lang)
	}
	return i18n.Wrap(err, fberrors.ErrUnknown, lang)
}
