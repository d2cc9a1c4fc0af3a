package model

import "encoding/json"

// FieldType enumerates the input widgets a form can declare.
type FieldType string

const (
	FieldTypeText             FieldType = "text"
	FieldTypeTextarea         FieldType = "textarea"
	FieldTypeNumber           FieldType = "number"
	FieldTypeEmail            FieldType = "email"
	FieldTypeDate             FieldType = "date"
	FieldTypeTime             FieldType = "time"
	FieldTypeSelect           FieldType = "select"
	FieldTypePicklist         FieldType = "picklist"
	FieldTypeMultiselect      FieldType = "multiselect"
	FieldTypeCheckbox         FieldType = "checkbox"
	FieldTypeRadio            FieldType = "radio"
	FieldTypeFile             FieldType = "file"
	FieldTypeLinkedSubmission FieldType = "linkedSubmission"
)

// Form is the top-level definition designed by an owner. Fields are replaced
// wholesale on save; the form must be published before non-owners can submit.
type Form struct {
	Id          int64       `json:"id" gorm:"primaryKey"`
	Title       string      `json:"title" gorm:"size:255;not null"`
	Description string      `json:"description" gorm:"type:text"`
	Published   bool        `json:"published" gorm:"default:false"`
	OwnerId     int64       `json:"owner_id" gorm:"index"`
	CreatedAt   int64       `json:"created_at" gorm:"bigint"`
	UpdatedAt   int64       `json:"updated_at" gorm:"bigint"`
	Fields      []FormField `json:"fields" gorm:"foreignKey:FormId;constraint:OnDelete:CASCADE"`
}

func (f *Form) TableName() string {
	return "forms"
}

// FieldById returns the field definition with the given id, or nil.
func (f *Form) FieldById(fieldId int64) *FormField {
	for i := range f.Fields {
		if f.Fields[i].Id == fieldId {
			return &f.Fields[i]
		}
	}
	return nil
}

// FormField is one declared input slot of a form.
type FormField struct {
	Id           int64     `json:"id" gorm:"primaryKey"`
	FormId       int64     `json:"form_id" gorm:"index:idx_field_form"`
	Label        string    `json:"label" gorm:"size:255"`
	Type         FieldType `json:"type" gorm:"size:32"`
	Required     bool      `json:"required" gorm:"default:false"`
	OptionsJSON  string    `json:"options_json" gorm:"column:options_json;type:text"`
	LinkedFormId int64     `json:"linked_form_id" gorm:"default:0"`
	OrderNum     int       `json:"order_num" gorm:"index:idx_field_form"`
}

func (f *FormField) TableName() string {
	return "form_fields"
}

func (f *FormField) GetOptions() []string {
	var options []string
	if f.OptionsJSON == "" {
		return options
	}
	_ = json.Unmarshal([]byte(f.OptionsJSON), &options)
	return options
}

func (f *FormField) SetOptions(options []string) {
	bytes, _ := json.Marshal(options)
	f.OptionsJSON = string(bytes)
}
