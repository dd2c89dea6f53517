package models

// Category groups posts under a published, URL-addressable topic.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:256;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Slug        string `gorm:"size:64;not null;uniqueIndex" json:"slug"`
	Published
}
