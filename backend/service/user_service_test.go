package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbox/backend/common"
	fberrors "formbox/backend/common/errors"
	"formbox/backend/common/i18n"
)

func uniqueUsername() string {
	return fmt.Sprintf("reg-%d", time.Now().UnixNano())
}

func TestRegisterAndAuthenticateUser(t *testing.T) {
	username := uniqueUsername()
	user, err := RegisterUser(username, "s3cret-pass", "", "", "en")
	require.NoError(t, err)
	assert.Equal(t, username, user.DisplayName, "display name defaults to username")
	assert.Equal(t, common.RoleCommonUser, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.Password, "password must be stored hashed")

	authed, err := AuthenticateUser(username, "s3cret-pass", "en")
	require.NoError(t, err)
	assert.Equal(t, user.Id, authed.Id)
}

func TestRegisterUser_DuplicateUsername(t *testing.T) {
	username := uniqueUsername()
	_, err := RegisterUser(username, "pass", "", "", "en")
	require.NoError(t, err)

	_, err = RegisterUser(username, "other", "", "", "en")
	require.Error(t, err)
	assert.True(t, i18n.IsErrorCode(err, fberrors.ErrUsernameTaken))
}

func TestRegisterUser_EmptyCredentials(t *testing.T) {
	_, err := RegisterUser("  ", "pass", "", "", "en")
	require.Error(t, err)
	assert.True(t, i18n.IsErrorCode(err, fberrors.ErrEmptyCredentials))

	_, err = RegisterUser(uniqueUsername(), "", "", "", "en")
	require.Error(t, err)
	assert.True(t, i18n.IsErrorCode(err, fberrors.ErrEmptyCredentials))
}

func TestAuthenticateUser_WrongPassword(t *testing.T) {
	username := uniqueUsername()
	_, err := RegisterUser(username, "right", "", "", "en")
	require.NoError(t, err)

	_, err = AuthenticateUser(username, "wrong", "en")
	require.Error(t, err)
	assert.True(t, i18n.IsErrorCode(err, fberrors.ErrInvalidCredentials))

	// A missing user yields the same error as a wrong password.
	_, err = AuthenticateUser("no-such-user", "whatever", "en")
	require.Error(t, err)
	assert.True(t, i18n.IsErrorCode(err, fberrors.ErrInvalidCredentials))
}

func TestGetUserById(t *testing.T) {
	user := createTestUser(t)

	found, err := GetUserById(user.Id, "en")
	require.NoError(t, err)
	assert.Equal(t, user.Username, found.Username)

	_, err = GetUserById(0, "en")
	require.Error(t, err)
	assert.True(t, i18n.IsErrorCode(err, fberrors.ErrEmptyID))

	_, err = GetUserById(987654321, "en")
	require.Error(t, err)
	assert.True(t, i18n.IsErrorCode(err, fberrors.ErrUserNotFound))
}
