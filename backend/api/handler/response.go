package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"formbox/backend/common"
	"formbox/backend/common/i18n"
	"formbox/backend/service"
)

// parseUpdates turns the request body into the tagged per-field updates the
// reconciler works with. Two payload forms are accepted: a JSON key-value map
// (scalars only; null means delete) and multipart form data (file parts plus
// "<fieldId>_delete" markers). The returned closers must be called after the
// service call has consumed the file readers.
func parseUpdates(c *gin.Context) (map[int64]service.FieldUpdate, []io.Closer, bool) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return parseMultipartUpdates(c)
	}
	updates, ok := parseJSONUpdates(c)
	return updates, nil, ok
}

func parseJSONUpdates(c *gin.Context) (map[int64]service.FieldUpdate, bool) {
	lang := c.GetString("lang")
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		common.RespError(c, http.StatusBadRequest, i18n.Translate("invalid_param", lang), err)
		return nil, false
	}

	updates := make(map[int64]service.FieldUpdate, len(raw))
	for key, value := range raw {
		fieldId, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			common.RespErrorStr(c, http.StatusBadRequest, "invalid field id: "+key)
			return nil, false
		}
		if value == nil {
			updates[fieldId] = service.DeleteUpdate()
			continue
		}
		updates[fieldId] = service.ScalarUpdate(coerceScalar(value))
	}
	return updates, true
}

// coerceScalar renders any JSON value into the single text column format;
// arrays become comma-joined strings.
func coerceScalar(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, coerceScalar(item))
		}
		return service.JoinValues(parts)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func parseMultipartUpdates(c *gin.Context) (map[int64]service.FieldUpdate, []io.Closer, bool) {
	lang := c.GetString("lang")
	form, err := c.MultipartForm()
	if err != nil {
		common.RespError(c, http.StatusBadRequest, i18n.Translate("invalid_param", lang), err)
		return nil, nil, false
	}

	updates := make(map[int64]service.FieldUpdate)
	deletes := make(map[int64]bool)
	var closers []io.Closer

	for key, values := range form.Value {
		if fieldIdStr, ok := strings.CutSuffix(key, "_delete"); ok {
			fieldId, err := strconv.ParseInt(fieldIdStr, 10, 64)
			if err != nil {
				common.RespErrorStr(c, http.StatusBadRequest, "invalid field id: "+key)
				return nil, closers, false
			}
			if len(values) > 0 && isTruthy(values[0]) {
				deletes[fieldId] = true
			}
			continue
		}
		fieldId, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			common.RespErrorStr(c, http.StatusBadRequest, "invalid field id: "+key)
			return nil, closers, false
		}
		if len(values) == 1 {
			updates[fieldId] = service.ScalarUpdate(values[0])
		} else {
			updates[fieldId] = service.ScalarUpdate(service.JoinValues(values))
		}
	}

	for key, files := range form.File {
		fieldId, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			common.RespErrorStr(c, http.StatusBadRequest, "invalid field id: "+key)
			return nil, closers, false
		}
		if len(files) == 0 {
			continue
		}
		fh := files[0]
		f, err := fh.Open()
		if err != nil {
			common.RespError(c, http.StatusBadRequest, "failed to read uploaded file", err)
			return nil, closers, false
		}
		closers = append(closers, f)
		updates[fieldId] = service.FileUpdate(&service.IncomingFile{
			Name:     fh.Filename,
			Size:     fh.Size,
			MimeType: fh.Header.Get("Content-Type"),
			Content:  f,
		})
	}

	// A fresh value or upload for a field supersedes a stale delete marker
	// arriving in the same submission.
	for fieldId := range deletes {
		if _, ok := updates[fieldId]; !ok {
			updates[fieldId] = service.DeleteUpdate()
		}
	}

	return updates, closers, true
}

func isTruthy(value string) bool {
	b, err := strconv.ParseBool(value)
	return err == nil && b
}

func closeAll(closers []io.Closer) {
	for _, closer := range closers {
		_ = closer.Close()
	}
}

func SubmitResponse(c *gin.Context) {
	lang := c.GetString("lang")
	formId, ok := formIdParam(c)
	if !ok {
		return
	}
	updates, closers, ok := parseUpdates(c)
	defer closeAll(closers)
	if !ok {
		return
	}

	response, err := service.SubmitResponse(formId, c.GetInt64("user_id"), updates, getStore(), lang)
	if err != nil {
		common.RespError(c, statusForError(err), "submission failed", err)
		return
	}
	common.RespSuccess(c, response)
}

func UpdateResponse(c *gin.Context) {
	lang := c.GetString("lang")
	formId, ok := formIdParam(c)
	if !ok {
		return
	}
	responseId, err := strconv.ParseInt(c.Param("responseId"), 10, 64)
	if err != nil || responseId == 0 {
		common.RespErrorStr(c, http.StatusBadRequest, i18n.Translate("invalid_param", lang))
		return
	}
	updates, closers, ok := parseUpdates(c)
	defer closeAll(closers)
	if !ok {
		return
	}

	fields, err := service.UpdateResponse(formId, responseId, c.GetInt64("user_id"), updates, getStore(), lang)
	if err != nil {
		common.RespError(c, statusForError(err), "update failed", err)
		return
	}
	common.RespSuccess(c, fields)
}

func GetResponses(c *gin.Context) {
	lang := c.GetString("lang")
	formId, ok := formIdParam(c)
	if !ok {
		return
	}
	responses, err := service.ListResponses(formId, c.GetInt64("user_id"), lang)
	if err != nil {
		common.RespError(c, statusForError(err), "failed to fetch responses", err)
		return
	}
	common.RespSuccess(c, responses)
}

func GetResponse(c *gin.Context) {
	lang := c.GetString("lang")
	formId, ok := formIdParam(c)
	if !ok {
		return
	}
	responseId, err := strconv.ParseInt(c.Param("responseId"), 10, 64)
	if err != nil || responseId == 0 {
		common.RespErrorStr(c, http.StatusBadRequest, i18n.Translate("invalid_param", lang))
		return
	}
	response, err := service.GetResponse(formId, responseId, c.GetInt64("user_id"), lang)
	if err != nil {
		common.RespError(c, statusForError(err), "failed to fetch response", err)
		return
	}
	common.RespSuccess(c, response)
}
