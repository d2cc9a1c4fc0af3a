package model

// FormResponse is one submission of a form.
type FormResponse struct {
	Id          int64           `json:"id" gorm:"primaryKey"`
	FormId      int64           `json:"form_id" gorm:"index"`
	SubmittedBy int64           `json:"submitted_by" gorm:"index"`
	CreatedAt   int64           `json:"created_at" gorm:"bigint"`
	Fields      []ResponseField `json:"fields" gorm:"foreignKey:ResponseId;constraint:OnDelete:CASCADE"`
}

func (r *FormResponse) TableName() string {
	return "form_responses"
}

// ResponseField links a response to a field definition with the submitted
// value and, for file fields, the stored file metadata. The unique index on
// (response_id, field_id) guarantees at most one row per answered field.
// An empty Value with no file metadata means "answered empty", which is
// different from the row not existing at all.
type ResponseField struct {
	Id         int64  `json:"id" gorm:"primaryKey"`
	ResponseId int64  `json:"response_id" gorm:"uniqueIndex:idx_response_field"`
	FieldId    int64  `json:"field_id" gorm:"uniqueIndex:idx_response_field"`
	Value      string `json:"value" gorm:"type:text"`
	FileName   string `json:"file_name,omitempty" gorm:"size:255"`
	FilePath   string `json:"file_path,omitempty" gorm:"size:255"`
	FileSize   int64  `json:"file_size,omitempty" gorm:"bigint"`
	MimeType   string `json:"mime_type,omitempty" gorm:"size:100"`
}

func (r *ResponseField) TableName() string {
	return "response_fields"
}

// HasFile reports whether this field currently references a stored file.
func (r *ResponseField) HasFile() bool {
	return r.FilePath != ""
}

// ClearFile drops the file metadata, leaving the row in the answered-empty state.
func (r *ResponseField) ClearFile() {
	r.FileName = ""
	r.FilePath = ""
	r.FileSize = 0
	r.MimeType = ""
}
