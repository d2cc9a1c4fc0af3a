package model

// User represents an account that can own forms or submit responses.
// Sensitive fields like Password are never included in API responses.
type User struct {
	Id          int64  `json:"id" gorm:"primaryKey"`
	Username    string `json:"username" gorm:"uniqueIndex;size:64"`
	Password    string `json:"-" gorm:"size:100;not null"`
	DisplayName string `json:"display_name" gorm:"size:64"`
	Role        int    `json:"role" gorm:"type:int;default:1"`
	Status      int    `json:"status" gorm:"type:int;default:1"`
	Email       string `json:"email" gorm:"index;size:50"`
	CreatedAt   int64  `json:"created_at" gorm:"bigint"`
}

func (u *User) TableName() string {
	return "users"
}
