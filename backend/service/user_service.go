package service

import (
	"strings"
	"time"

	"formbox/backend/common"
	fberrors "formbox/backend/common/errors"
	"formbox/backend/common/i18n"
	"formbox/backend/library/db"
	"formbox/backend/model"
)

// RegisterUser creates an enabled common user with a hashed password.
func RegisterUser(username, password, displayName, email string, lang string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, i18n.New(fberrors.ErrEmptyCredentials, lang)
	}

	var count int64
	db.DB.Model(&model.User{}).Where("username = ?", username).Count(&count)
	if count > 0 {
		return nil, i18n.New(fberrors.ErrUsernameTaken, lang)
	}

	hashedPassword, err := common.Password2Hash(password)
	if err != nil {
		return nil, i18n.Wrap(err, fberrors.ErrInternalServer, lang)
	}
	if displayName == "" {
		displayName = username
	}
	user := &model.User{
		Username:    username,
		Password:    hashedPassword,
		DisplayName: displayName,
		Email:       email,
		Role:        common.RoleCommonUser,
		Status:      common.UserStatusEnabled,
		CreatedAt:   time.Now().Unix(),
	}
	if err := db.DB.Create(user).Error; err != nil {
		return nil, i18n.Wrap(err, fberrors.ErrInternalServer, lang)
	}
	return user, nil
}

// AuthenticateUser checks credentials and account status. The same error is
// returned for a missing user and a wrong password.
func AuthenticateUser(username, password string, lang string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, i18n.New(fberrors.ErrEmptyCredentials, lang)
	}
	var user model.User
	if err := db.DB.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, i18n.New(fberrors.ErrInvalidCredentials, lang)
	}
	if !common.ValidatePasswordAndHash(password, user.Password) {
		return nil, i18n.New(fberrors.ErrInvalidCredentials, lang)
	}
	if user.Status != common.UserStatusEnabled {
		return nil, i18n.New(fberrors.ErrUserDisabled, lang)
	}
	return &user, nil
}

func GetUserById(id int64, lang string) (*model.User, error) {
	if id == 0 {
		return nil, i18n.New(fberrors.ErrEmptyID, lang)
	}
	var user model.User
	if err := db.DB.First(&user, id).Error; err != nil {
		return nil, i18n.Wrap(err, fberrors.ErrUserNotFound, lang)
	}
	return &user, nil
}
