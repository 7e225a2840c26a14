package models

// Category groups resources
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CategoryPatch holds the fields of a partial category update.
type CategoryPatch struct {
	Name *string
}
