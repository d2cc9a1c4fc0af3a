package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"formbox/backend/common"
	fberrors "formbox/backend/common/errors"
	"formbox/backend/common/i18n"
	"formbox/backend/model"
	"formbox/backend/service"
)

type formPayload struct {
	Title       string               `json:"title" validate:"required,max=255"`
	Description string               `json:"description"`
	Fields      []service.FieldInput `json:"fields" validate:"dive"`
}

var formValidate = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("fieldtype", func(fl validator.FieldLevel) bool {
		switch model.FieldType(fl.Field().String()) {
		case model.FieldTypeText, model.FieldTypeTextarea, model.FieldTypeNumber,
			model.FieldTypeEmail, model.FieldTypeDate, model.FieldTypeTime,
			model.FieldTypeSelect, model.FieldTypePicklist, model.FieldTypeMultiselect,
			model.FieldTypeCheckbox, model.FieldTypeRadio, model.FieldTypeFile,
			model.FieldTypeLinkedSubmission:
			return true
		}
		return false
	})
	return v
}

func bindFormPayload(c *gin.Context) (*formPayload, bool) {
	lang := c.GetString("lang")
	var payload formPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, i18n.Translate("invalid_param", lang), err)
		return nil, false
	}
	if err := formValidate.Struct(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, i18n.Translate("invalid_param", lang), err)
		return nil, false
	}
	for _, field := range payload.Fields {
		if err := formValidate.Var(field.Type, "fieldtype"); err != nil {
			common.RespErrorStr(c, http.StatusBadRequest, "unknown field type: "+field.Type)
			return nil, false
		}
	}
	return &payload, true
}

func formIdParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		common.RespErrorStr(c, http.StatusBadRequest, i18n.Translate("invalid_param", c.GetString("lang")))
		return 0, false
	}
	return id, true
}

func GetForms(c *gin.Context) {
	forms, err := service.ListFormsByOwner(c.GetInt64("user_id"))
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to fetch forms", err)
		return
	}
	common.RespSuccess(c, forms)
}

func GetForm(c *gin.Context) {
	lang := c.GetString("lang")
	formId, ok := formIdParam(c)
	if !ok {
		return
	}
	form, err := service.GetFormWithFields(formId, lang)
	if err != nil {
		common.RespError(c, http.StatusNotFound, "form not found", err)
		return
	}
	// Unpublished forms are visible only to their owner.
	if !form.Published && form.OwnerId != c.GetInt64("user_id") {
		common.RespErrorStr(c, http.StatusNotFound, i18n.Translate(fberrors.ErrFormNotFound, lang))
		return
	}
	common.RespSuccess(c, form)
}

func CreateForm(c *gin.Context) {
	payload, ok := bindFormPayload(c)
	if !ok {
		return
	}
	form, err := service.CreateForm(c.GetInt64("user_id"), payload.Title, payload.Description, payload.Fields)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to create form", err)
		return
	}
	common.RespSuccess(c, form)
}

func UpdateForm(c *gin.Context) {
	lang := c.GetString("lang")
	formId, ok := formIdParam(c)
	if !ok {
		return
	}
	payload, ok := bindFormPayload(c)
	if !ok {
		return
	}
	form, err := service.UpdateForm(formId, c.GetInt64("user_id"), payload.Title, payload.Description, payload.Fields, lang)
	if err != nil {
		common.RespError(c, statusForError(err), "failed to update form", err)
		return
	}
	common.RespSuccess(c, form)
}

func PublishForm(c *gin.Context) {
	lang := c.GetString("lang")
	formId, ok := formIdParam(c)
	if !ok {
		return
	}
	var payload struct {
		Published *bool `json:"published"`
	}
	published := true
	if err := c.ShouldBindJSON(&payload); err == nil && payload.Published != nil {
		published = *payload.Published
	}
	if err := service.SetFormPublished(formId, c.GetInt64("user_id"), published, lang); err != nil {
		common.RespError(c, statusForError(err), "failed to publish form", err)
		return
	}
	common.RespSuccessStr(c, "ok")
}

func DeleteForm(c *gin.Context) {
	lang := c.GetString("lang")
	formId, ok := formIdParam(c)
	if !ok {
		return
	}
	if err := service.DeleteForm(formId, c.GetInt64("user_id"), lang); err != nil {
		common.RespError(c, statusForError(err), "failed to delete form", err)
		return
	}
	common.RespSuccessStr(c, "form deleted")
}
