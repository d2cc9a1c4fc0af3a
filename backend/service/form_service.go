package service

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"formbox/backend/common"
	fberrors "formbox/backend/common/errors"
	"formbox/backend/common/i18n"
	"formbox/backend/library/db"
	"formbox/backend/model"
)

const formCacheTTL = 5 * time.Minute

func formCacheKey(formId int64) string {
	return fmt.Sprintf("form:%d", formId)
}

// FieldInput is one field definition in a form save payload.
type FieldInput struct {
	Label        string   `json:"label" binding:"required"`
	Type         string   `json:"type" binding:"required"`
	Required     bool     `json:"required"`
	Options      []string `json:"options"`
	LinkedFormId int64    `json:"linked_form_id"`
}

// CreateForm persists a new unpublished form and its field definitions.
func CreateForm(ownerId int64, title, description string, fields []FieldInput) (*model.Form, error) {
	now := time.Now().Unix()
	form := &model.Form{
		Title:       title,
		Description: description,
		Published:   false,
		OwnerId:     ownerId,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(form).Error; err != nil {
			return err
		}
		return createFields(tx, form.Id, fields)
	})
	if err != nil {
		return nil, err
	}
	return GetFormWithFields(form.Id, "")
}

// UpdateForm replaces the form's metadata and its whole field set. Fields are
// deleted and recreated rather than patched, so field ids change on every save.
func UpdateForm(formId, callerId int64, title, description string, fields []FieldInput, lang string) (*model.Form, error) {
	form, err := GetFormWithFields(formId, lang)
	if err != nil {
		return nil, err
	}
	if form.OwnerId != callerId {
		return nil, i18n.New(fberrors.ErrUnauthorized, lang)
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("form_id = ?", formId).Delete(&model.FormField{}).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{
			"title":       title,
			"description": description,
			"updated_at":  time.Now().Unix(),
		}
		if err := tx.Model(&model.Form{}).Where("id = ?", formId).Updates(updates).Error; err != nil {
			return err
		}
		return createFields(tx, formId, fields)
	})
	if err != nil {
		return nil, err
	}
	invalidateFormCache(formId)
	return GetFormWithFields(formId, lang)
}

func createFields(tx *gorm.DB, formId int64, fields []FieldInput) error {
	for i, input := range fields {
		field := model.FormField{
			FormId:       formId,
			Label:        input.Label,
			Type:         model.FieldType(input.Type),
			Required:     input.Required,
			LinkedFormId: input.LinkedFormId,
			OrderNum:     i,
		}
		if len(input.Options) > 0 {
			field.SetOptions(input.Options)
		}
		if err := tx.Create(&field).Error; err != nil {
			return err
		}
	}
	return nil
}

// SetFormPublished flips the publish gate. Only the owner may publish.
func SetFormPublished(formId, callerId int64, published bool, lang string) error {
	form, err := GetFormWithFields(formId, lang)
	if err != nil {
		return err
	}
	if form.OwnerId != callerId {
		return i18n.New(fberrors.ErrUnauthorized, lang)
	}
	updates := map[string]interface{}{
		"published":  published,
		"updated_at": time.Now().Unix(),
	}
	if err := db.DB.Model(&model.Form{}).Where("id = ?", formId).Updates(updates).Error; err != nil {
		return err
	}
	invalidateFormCache(formId)
	return nil
}

// GetFormWithFields loads a form and its ordered field definitions, going
// through the Redis cache when it is configured.
func GetFormWithFields(formId int64, lang string) (*model.Form, error) {
	if common.RedisEnabled {
		if cached, err := common.RedisGet(formCacheKey(formId)); err == nil {
			var form model.Form
			if err := json.Unmarshal([]byte(cached), &form); err == nil {
				return &form, nil
			}
		}
	}

	var form model.Form
	err := db.DB.Preload("Fields", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("order_num ASC")
	}).First(&form, formId).Error
	if err != nil {
		return nil, i18n.Wrap(err, fberrors.ErrFormNotFound, lang)
	}

	if common.RedisEnabled {
		if data, err := json.Marshal(&form); err == nil {
			if err := common.RedisSet(formCacheKey(formId), string(data), formCacheTTL); err != nil {
				common.SysError("failed to cache form: " + err.Error())
			}
		}
	}
	return &form, nil
}

func ListFormsByOwner(ownerId int64) ([]*model.Form, error) {
	var forms []*model.Form
	err := db.DB.Where("owner_id = ?", ownerId).Order("id DESC").Find(&forms).Error
	return forms, err
}

// DeleteForm removes the form and, via cascade, its fields.
func DeleteForm(formId, callerId int64, lang string) error {
	form, err := GetFormWithFields(formId, lang)
	if err != nil {
		return err
	}
	if form.OwnerId != callerId {
		return i18n.New(fberrors.ErrUnauthorized, lang)
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("form_id = ?", formId).Delete(&model.FormField{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Form{}, formId).Error
	})
	if err != nil {
		return err
	}
	invalidateFormCache(formId)
	return nil
}

func invalidateFormCache(formId int64) {
	if !common.RedisEnabled {
		return
	}
	if err := common.RedisDel(formCacheKey(formId)); err != nil {
		common.SysError("failed to invalidate form cache: " + err.Error())
	}
}
