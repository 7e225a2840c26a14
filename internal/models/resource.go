package models

import "time"

// Resource represents an uploaded file and its metadata
type Resource struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename"`
	FilePath   string    `json:"file_path"` // Locator in the storage backend
	UserID     int64     `json:"user_id"`
	CategoryID int64     `json:"category_id"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ResourceView is a resource joined with its owner and category names
type ResourceView struct {
	Resource
	Username     *string `json:"username"`
	CategoryName *string `json:"category_name"`
}

// ResourcePatch holds the fields of a partial resource update. Nil fields
// keep their stored value.
type ResourcePatch struct {
	Title      *string
	Filename   *string
	FilePath   *string
	UserID     *int64
	CategoryID *int64
}
