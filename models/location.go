package models

// Location is an optional geographic tag on a post.
type Location struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:256;not null" json:"name"`
	Published
}
