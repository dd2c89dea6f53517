package forms

import (
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// CategoryForm is the admin form for categories.
type CategoryForm struct {
	Title       string `form:"title" json:"title" binding:"required,max=256"`
	Description string `form:"description" json:"description" binding:"required"`
	Slug        string `form:"slug" json:"slug" binding:"required,max=64,slug"`
	IsPublished *bool  `form:"is_published" json:"is_published"`
}

// Validate rejects a slug used by another category.
func (f *CategoryForm) Validate(db *gorm.DB, currentID uint) Errors {
	errs := Errors{}
	q := db.Model(&models.Category{}).Where("slug = ?", f.Slug)
	if currentID != 0 {
		q = q.Where("id <> ?", currentID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil || n > 0 {
		errs.Add("slug", "Category with this slug already exists.")
	}
	return errs
}

// Apply copies the validated values onto c. New categories are published unless told otherwise.
func (f *CategoryForm) Apply(c *models.Category) {
	c.Title = utils.StripTags(strings.TrimSpace(f.Title))
	c.Description = utils.SanitizeHTML(f.Description)
	c.Slug = f.Slug
	c.IsPublished = publishedOr(f.IsPublished, c.ID == 0 || c.IsPublished)
}

// LocationForm is the admin form for locations.
type LocationForm struct {
	Name        string `form:"name" json:"name" binding:"required,max=256"`
	IsPublished *bool  `form:"is_published" json:"is_published"`
}

// Apply copies the validated values onto l.
func (f *LocationForm) Apply(l *models.Location) {
	l.Name = utils.StripTags(strings.TrimSpace(f.Name))
	l.IsPublished = publishedOr(f.IsPublished, l.ID == 0 || l.IsPublished)
}

func publishedOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
