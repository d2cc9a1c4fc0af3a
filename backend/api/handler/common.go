package handler

import (
	"errors"
	"net/http"

	fberrors "formbox/backend/common/errors"
	"formbox/backend/common/i18n"
)

// statusForError maps a service error to the HTTP status of its error code.
func statusForError(err error) int {
	var i18nErr *i18n.I18nError
	if !errors.As(err, &i18nErr) {
		return http.StatusInternalServerError
	}
	switch i18nErr.Code {
	case fberrors.ErrUnauthenticated:
		return http.StatusUnauthorized
	case fberrors.ErrUnauthorized, fberrors.ErrFormNotPublished, fberrors.ErrUserDisabled:
		return http.StatusForbidden
	case fberrors.ErrFormNotFound, fberrors.ErrResponseNotFound, fberrors.ErrUserNotFound, fberrors.ErrFileNotFound:
		return http.StatusNotFound
	case fberrors.ErrValidationFailed, fberrors.ErrScanRejected, fberrors.ErrInvalidParam, fberrors.ErrFieldUnknown:
		return http.StatusBadRequest
	case fberrors.ErrStorageFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
