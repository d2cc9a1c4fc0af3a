package service

import (
	"time"

	"gorm.io/gorm"

	fberrors "formbox/backend/common/errors"
	"formbox/backend/common/i18n"
	"formbox/backend/library/db"
	"formbox/backend/library/upload"
	"formbox/backend/model"
)

// SubmitResponse creates a response to a form. The caller must be
// authenticated; non-owners can only submit to published forms. One
// ResponseField row is created up front for every defined field, payload or
// not, so later partial updates always find their row.
func SubmitResponse(formId int64, callerId int64, updates map[int64]FieldUpdate, store *upload.LocalStore, lang string) (*model.FormResponse, error) {
	if callerId == 0 {
		return nil, i18n.New(fberrors.ErrUnauthenticated, lang)
	}

	form, err := GetFormWithFields(formId, lang)
	if err != nil {
		return nil, err
	}
	if !form.Published && form.OwnerId != callerId {
		return nil, i18n.New(fberrors.ErrFormNotPublished, lang)
	}
	if err := checkFieldsBelongToForm(form, updates, lang); err != nil {
		return nil, err
	}

	// Files first: a rejected upload must leave no response behind.
	stored := make(map[int64]*upload.StoredFile)
	for _, field := range form.Fields {
		update, ok := updates[field.Id]
		if !ok || update.Kind != KindFile {
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
		stored[field.Id] = file
	}

	response := &model.FormResponse{
		FormId:      formId,
		SubmittedBy: callerId,
		CreatedAt:   time.Now().Unix(),
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(response).Error; err != nil {
			return err
		}
		for _, field := range form.Fields {
			row := model.ResponseField{
				ResponseId: response.Id,
				FieldId:    field.Id,
				Value:      "",
			}
			if update, ok := updates[field.Id]; ok {
				switch update.Kind {
				case KindScalar:
					row.Value = update.Value
				case KindFile:
					file := stored[field.Id]
					row.Value = file.FilePath
					row.FileName = file.FileName
					row.FilePath = file.FilePath
					row.FileSize = file.FileSize
					row.MimeType = file.MimeType
				}
				// A delete marker on first submission means answered empty,
				// which is what the default row already is.
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		removeStoredFiles(store, stored)
		return nil, i18n.Wrap(err, fberrors.ErrInternalServer, lang)
	}

	return GetResponse(formId, response.Id, callerId, lang)
}

// UpdateResponse merges a partial update into an existing response. Either
// the original submitter or the form owner may edit.
func UpdateResponse(formId, responseId, callerId int64, updates map[int64]FieldUpdate, store *upload.LocalStore, lang string) ([]model.ResponseField, error) {
	if callerId == 0 {
		return nil, i18n.New(fberrors.ErrUnauthenticated, lang)
	}

	var response model.FormResponse
	if err := db.DB.First(&response, responseId).Error; err != nil {
		return nil, i18n.Wrap(err, fberrors.ErrResponseNotFound, lang)
	}
	if response.FormId != formId {
		return nil, i18n.New(fberrors.ErrResponseNotFound, lang)
	}

	form, err := GetFormWithFields(formId, lang)
	if err != nil {
		return nil, err
	}
	if callerId != response.SubmittedBy && callerId != form.OwnerId {
		return nil, i18n.New(fberrors.ErrUnauthorized, lang)
	}
	if err := checkFieldsBelongToForm(form, updates, lang); err != nil {
		return nil, err
	}

	return ReconcileResponseFields(responseId, updates, store, lang)
}

// GetResponse loads a response with its fields. Readable by the submitter or
// the form owner.
func GetResponse(formId, responseId, callerId int64, lang string) (*model.FormResponse, error) {
	var response model.FormResponse
	err := db.DB.Preload("Fields", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("field_id ASC")
	}).First(&response, responseId).Error
	if err != nil {
		return nil, i18n.Wrap(err, fberrors.ErrResponseNotFound, lang)
	}
	if response.FormId != formId {
		return nil, i18n.New(fberrors.ErrResponseNotFound, lang)
	}

	form, err := GetFormWithFields(formId, lang)
	if err != nil {
		return nil, err
	}
	if callerId != response.SubmittedBy && callerId != form.OwnerId {
		return nil, i18n.New(fberrors.ErrUnauthorized, lang)
	}
	return &response, nil
}

// ListResponses returns all responses to a form for its owner, or only the
// caller's own submissions otherwise.
func ListResponses(formId, callerId int64, lang string) ([]*model.FormResponse, error) {
	form, err := GetFormWithFields(formId, lang)
	if err != nil {
		return nil, err
	}

	query := db.DB.Preload("Fields").Where("form_id = ?", formId)
	if callerId != form.OwnerId {
		query = query.Where("submitted_by = ?", callerId)
	}
	var responses []*model.FormResponse
	if err := query.Order("id DESC").Find(&responses).Error; err != nil {
		return nil, i18n.Wrap(err, fberrors.ErrInternalServer, lang)
	}
	return responses, nil
}

// checkFieldsBelongToForm rejects updates that reference a field id not
// defined on the form. The storage layer does not enforce this, the service
// layer does.
func checkFieldsBelongToForm(form *model.Form, updates map[int64]FieldUpdate, lang string) error {
	for fieldId := range updates {
		if form.FieldById(fieldId) == nil {
			return i18n.New(fberrors.ErrFieldUnknown, lang, fieldId)
		}
	}
	return nil
}
