package handler

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"formbox/backend/common"
	fberrors "formbox/backend/common/errors"
	"formbox/backend/common/i18n"
	"formbox/backend/library/upload"
	"formbox/backend/service"
)

var (
	storeOnce sync.Once
	fileStore *upload.LocalStore
)

// getStore builds the store on first use, after configuration has been loaded.
func getStore() *upload.LocalStore {
	storeOnce.Do(func() {
		fileStore = upload.DefaultStore()
	})
	return fileStore
}

// UploadFile accepts one file, runs the validate/scan/store pipeline and
// returns the stored metadata.
func UploadFile(c *gin.Context) {
	lang := c.GetString("lang")
	fh, err := c.FormFile("file")
	if err != nil {
		common.RespError(c, http.StatusBadRequest, i18n.Translate("invalid_param", lang), err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		common.RespError(c, http.StatusBadRequest, "failed to read uploaded file", err)
		return
	}
	defer f.Close()

	stored, err := getStore().Save(f, upload.FileInfo{
		Name:     fh.Filename,
		Size:     fh.Size,
		MimeType: fh.Header.Get("Content-Type"),
	})
	if err != nil {
		wrapped := service.WrapUploadError(err, lang)
		common.RespError(c, statusForError(wrapped), "upload rejected", wrapped)
		return
	}
	common.RespSuccess(c, stored)
}

// ServeFile streams a stored file back. The logical path is resolved under
// the private storage root; anything else is a 404.
func ServeFile(c *gin.Context) {
	lang := c.GetString("lang")
	logicalPath := strings.TrimPrefix(c.Param("filepath"), "/")

	fullPath, err := getStore().Resolve(logicalPath)
	if err != nil {
		common.RespErrorStr(c, http.StatusNotFound, i18n.Translate(fberrors.ErrFileNotFound, lang))
		return
	}

	c.Header("Content-Type", upload.MimeTypeByExtension(logicalPath))
	c.Header("Content-Disposition", "inline")
	c.Header("Cache-Control", "private, max-age=3600")
	c.File(fullPath)
}
