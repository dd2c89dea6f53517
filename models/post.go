package models

import "time"

// Post represents a blog publication written by a user.
type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:256;not null" json:"title"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	PubDate    time.Time `gorm:"index;not null" json:"pub_date"`
	Image      string    `gorm:"size:512" json:"image,omitempty"`
	AuthorID   uint      `gorm:"index;not null" json:"author_id"`
	CategoryID *uint     `gorm:"index" json:"category_id"`
	LocationID *uint     `gorm:"index" json:"location_id"`
	Published
	UpdatedAt time.Time `json:"updated_at"`

	Author       User      `gorm:"foreignKey:AuthorID" json:"author"`
	Category     *Category `json:"category,omitempty"`
	Location     *Location `json:"location,omitempty"`
	Comments     []Comment `json:"-"`
	CommentCount int64     `gorm:"->;-:migration" json:"comment_count"`
	ImageURL     string    `gorm:"-" json:"image_url,omitempty"`
}

// IsPublishedAt reports whether the post itself is published and its pub date has been reached.
func (p *Post) IsPublishedAt(now time.Time) bool {
	return p.IsPublished && !p.PubDate.After(now)
}

// IsLiveAt additionally requires the category, when set, to be published.
// The Category association must be loaded for a post with a CategoryID.
func (p *Post) IsLiveAt(now time.Time) bool {
	if !p.IsPublishedAt(now) {
		return false
	}
	if p.CategoryID == nil {
		return true
	}
	return p.Category != nil && p.Category.IsPublished
}
