package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbox/backend/common"
	"formbox/backend/library/db"
	"formbox/backend/library/upload"
	"formbox/backend/model"
)

var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}, []byte("pixels")...)

func newTestStore(t *testing.T) (*upload.LocalStore, string) {
	t.Helper()
	storageDir := filepath.Join(t.TempDir(), "storage")
	tempDir := filepath.Join(t.TempDir(), "tmp")
	validator := upload.NewValidator(upload.Config{
		MaxFileSize:      10 * 1024 * 1024,
		AllowedMimeTypes: []string{"image/jpeg", "image/png", "text/plain"},
	})
	return upload.NewLocalStore(storageDir, tempDir, validator, upload.NewScanner(nil), true), storageDir
}

func createTestUser(t *testing.T) *model.User {
	t.Helper()
	user := &model.User{
		Username:  fmt.Sprintf("user-%d", time.Now().UnixNano()),
		Password:  "irrelevant",
		Role:      common.RoleCommonUser,
		Status:    common.UserStatusEnabled,
		CreatedAt: time.Now().Unix(),
	}
	require.NoError(t, db.DB.Create(user).Error)
	return user
}

func createTestForm(t *testing.T, ownerId int64, published bool, fields ...FieldInput) *model.Form {
	t.Helper()
	form, err := CreateForm(ownerId, "Test Form", "", fields)
	require.NoError(t, err)
	if published {
		require.NoError(t, SetFormPublished(form.Id, ownerId, true, "en"))
	}
	form, err = GetFormWithFields(form.Id, "en")
	require.NoError(t, err)
	return form
}

func fieldByLabel(t *testing.T, form *model.Form, label string) *model.FormField {
	t.Helper()
	for i := range form.Fields {
		if form.Fields[i].Label == label {
			return &form.Fields[i]
		}
	}
	t.Fatalf("no field labelled %q", label)
	return nil
}

func fieldsByFieldId(fields []model.ResponseField) map[int64]model.ResponseField {
	out := make(map[int64]model.ResponseField, len(fields))
	for _, f := range fields {
		out[f.FieldId] = f
	}
	return out
}

func setupResponse(t *testing.T) (*model.Form, *model.FormResponse, *upload.LocalStore, string) {
	t.Helper()
	store, storageDir := newTestStore(t)
	owner := createTestUser(t)
	form := createTestForm(t, owner.Id, true,
		FieldInput{Label: "A", Type: "text"},
		FieldInput{Label: "B", Type: "text"},
		FieldInput{Label: "Attachment", Type: "file"},
		FieldInput{Label: "Choice", Type: "picklist", Options: []string{"Option 1", "Option 2", "Option 3"}},
	)
	submitter := createTestUser(t)
	response, err := SubmitResponse(form.Id, submitter.Id, map[int64]FieldUpdate{
		fieldByLabel(t, form, "A").Id:      ScalarUpdate("x"),
		fieldByLabel(t, form, "B").Id:      ScalarUpdate("y"),
		fieldByLabel(t, form, "Choice").Id: ScalarUpdate("Option 1"),
	}, store, "en")
	require.NoError(t, err)
	return form, response, store, storageDir
}

func TestReconcile_MergeNotReplace(t *testing.T) {
	form, response, store, _ := setupResponse(t)
	fieldA := fieldByLabel(t, form, "A")
	fieldB := fieldByLabel(t, form, "B")

	fields, err := ReconcileResponseFields(response.Id, map[int64]FieldUpdate{
		fieldA.Id: ScalarUpdate("z"),
	}, store, "en")
	require.NoError(t, err)

	byField := fieldsByFieldId(fields)
	assert.Equal(t, "z", byField[fieldA.Id].Value)
	assert.Equal(t, "y", byField[fieldB.Id].Value, "untouched fields must be preserved")
}

func TestReconcile_IdempotentClear(t *testing.T) {
	form, response, store, _ := setupResponse(t)
	fieldA := fieldByLabel(t, form, "A")

	for i := 0; i < 2; i++ {
		fields, err := ReconcileResponseFields(response.Id, map[int64]FieldUpdate{
			fieldA.Id: DeleteUpdate(),
		}, store, "en")
		require.NoError(t, err)

		row := fieldsByFieldId(fields)[fieldA.Id]
		assert.Equal(t, "", row.Value, "pass %d", i)
		assert.False(t, row.HasFile(), "pass %d", i)
		assert.NotZero(t, row.Id, "cleared field keeps its row")
	}
}

func TestReconcile_ClearOnUnansweredFieldIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	owner := createTestUser(t)
	form := createTestForm(t, owner.Id, true, FieldInput{Label: "A", Type: "text"})
	fieldA := fieldByLabel(t, form, "A")

	// A response with no rows at all (created directly, not via Submit).
	response := &model.FormResponse{FormId: form.Id, SubmittedBy: owner.Id, CreatedAt: time.Now().Unix()}
	require.NoError(t, db.DB.Create(response).Error)

	fields, err := ReconcileResponseFields(response.Id, map[int64]FieldUpdate{
		fieldA.Id: DeleteUpdate(),
	}, store, "en")
	require.NoError(t, err)
	assert.Empty(t, fields, "deleting a never-answered field must not create a row")
}

func TestReconcile_ExactlyOneRowPerField(t *testing.T) {
	form, response, store, _ := setupResponse(t)
	fieldA := fieldByLabel(t, form, "A")

	for _, value := range []string{"1", "2", "3"} {
		_, err := ReconcileResponseFields(response.Id, map[int64]FieldUpdate{
			fieldA.Id: ScalarUpdate(value),
		}, store, "en")
		require.NoError(t, err)
	}

	var count int64
	db.DB.Model(&model.ResponseField{}).
		Where("response_id = ? AND field_id = ?", response.Id, fieldA.Id).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestReconcile_PicklistValueSwap(t *testing.T) {
	form, response, store, _ := setupResponse(t)
	choice := fieldByLabel(t, form, "Choice")
	fieldB := fieldByLabel(t, form, "B")

	fields, err := ReconcileResponseFields(response.Id, map[int64]FieldUpdate{
		choice.Id: ScalarUpdate("Option 3"),
	}, store, "en")
	require.NoError(t, err)

	byField := fieldsByFieldId(fields)
	assert.Equal(t, "Option 3", byField[choice.Id].Value)
	assert.Equal(t, "y", byField[fieldB.Id].Value)

	var count int64
	db.DB.Model(&model.ResponseField{}).
		Where("response_id = ? AND field_id = ?", response.Id, choice.Id).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestReconcile_FileUploadAndReplace(t *testing.T) {
	form, response, store, storageDir := setupResponse(t)
	attachment := fieldByLabel(t, form, "Attachment")

	fields, err := ReconcileResponseFields(response.Id, map[int64]FieldUpdate{
		attachment.Id: FileUpdate(&IncomingFile{
			Name:     "scan.jpg",
			Size:     int64(len(jpegBytes)),
			MimeType: "image/jpeg",
			Content:  bytes.NewReader(jpegBytes),
		}),
	}, store, "en")
	require.NoError(t, err)

	row := fieldsByFieldId(fields)[attachment.Id]
	require.True(t, row.HasFile())
	assert.Equal(t, "scan.jpg", row.FileName)
	assert.Equal(t, row.FilePath, row.Value)
	firstPath := row.FilePath

	// Replacing the file removes the old bytes after commit.
	fields, err = ReconcileResponseFields(response.Id, map[int64]FieldUpdate{
		attachment.Id: FileUpdate(&IncomingFile{
			Name:     "scan-v2.jpg",
			Size:     int64(len(jpegBytes)),
			MimeType: "image/jpeg",
			Content:  bytes.NewReader(jpegBytes),
		}),
	}, store, "en")
	require.NoError(t, err)

	row = fieldsByFieldId(fields)[attachment.Id]
	assert.Equal(t, "scan-v2.jpg", row.FileName)
	assert.NotEqual(t, firstPath, row.FilePath)

	_, err = os.Stat(filepath.Join(storageDir, firstPath))
	assert.True(t, os.IsNotExist(err), "replaced file bytes should be gone")
}

func TestReconcile_ClearFileField(t *testing.T) {
	form, response, store, storageDir := setupResponse(t)
	attachment := fieldByLabel(t, form, "Attachment")

	fields, err := ReconcileResponseFields(response.Id, map[int64]FieldUpdate{
		attachment.Id: FileUpdate(&IncomingFile{
			Name:     "scan.jpg",
			Size:     int64(len(jpegBytes)),
			MimeType: "image/jpeg",
			Content:  bytes.NewReader(jpegBytes),
		}),
	}, store, "en")
	require.NoError(t, err)
	storedPath := fieldsByFieldId(fields)[attachment.Id].FilePath

	fields, err = ReconcileResponseFields(response.Id, map[int64]FieldUpdate{
		attachment.Id: DeleteUpdate(),
	}, store, "en")
	require.NoError(t, err)

	row := fieldsByFieldId(fields)[attachment.Id]
	assert.Equal(t, "", row.Value)
	assert.False(t, row.HasFile())

	_, err = os.Stat(filepath.Join(storageDir, storedPath))
	assert.True(t, os.IsNotExist(err))
}

func TestReconcile_RejectedFileAbortsWholeCall(t *testing.T) {
	form, response, store, storageDir := setupResponse(t)
	fieldA := fieldByLabel(t, form, "A")
	attachment := fieldByLabel(t, form, "Attachment")

	script := []byte("#!/bin/sh\necho pwned\n")
	_, err := ReconcileResponseFields(response.Id, map[int64]FieldUpdate{
		fieldA.Id: ScalarUpdate("should not land"),
		attachment.Id: FileUpdate(&IncomingFile{
			Name:     "photo.jpg",
			Size:     int64(len(script)),
			MimeType: "image/jpeg",
			Content:  bytes.NewReader(script),
		}),
	}, store, "en")
	require.Error(t, err)

	// Nothing changed: the bad file aborted before any row was written.
	var fields []model.ResponseField
	require.NoError(t, db.DB.Where("response_id = ?", response.Id).Find(&fields).Error)
	byField := fieldsByFieldId(fields)
	assert.Equal(t, "x", byField[fieldA.Id].Value)
	attachmentRow := byField[attachment.Id]
	assert.False(t, attachmentRow.HasFile())

	entries, readErr := os.ReadDir(storageDir)
	if readErr == nil {
		assert.Empty(t, entries, "rejected upload must not leave stored bytes")
	}
}

func TestJoinValues(t *testing.T) {
	assert.Equal(t, "a,b,c", JoinValues([]string{"a", "b", "c"}))
	assert.Equal(t, "", JoinValues(nil))
}
