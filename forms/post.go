package forms

import (
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/policy"
	"github.com/cppla/blogicum/utils"
)

// Accepted pub_date layouts: HTML datetime-local, the SQL style and RFC 3339.
var pubDateLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// ImageChecker validates an uploaded image without storing it.
type ImageChecker interface {
	Check(fh *multipart.FileHeader) (string, error)
}

// PostForm is the create/edit form of a post.
type PostForm struct {
	Title      string                `form:"title" json:"title" binding:"required,max=256"`
	Text       string                `form:"text" json:"text" binding:"required"`
	PubDate    string                `form:"pub_date" json:"pub_date" binding:"required"`
	LocationID *uint                 `form:"location" json:"location"`
	CategoryID *uint                 `form:"category" json:"category"`
	Image      *multipart.FileHeader `form:"image" json:"-"`
	ClearImage bool                  `form:"image-clear" json:"image_clear"`

	pubDate time.Time
}

// PostContext carries what validating a post needs besides its own fields.
type PostContext struct {
	DB        *gorm.DB
	Submitter *policy.Identity
	// Current is the post being edited, nil when creating.
	Current *models.Post
	Now     time.Time
	Images  ImageChecker
}

// ParsePubDate parses a submitted publication date. Values without a zone are UTC.
func ParsePubDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("enter a valid date/time")
}

// NewPostForm pre-fills the form from an existing post, for the edit page.
func NewPostForm(p *models.Post) PostForm {
	return PostForm{
		Title:      p.Title,
		Text:       p.Text,
		PubDate:    p.PubDate.UTC().Format("2006-01-02T15:04"),
		LocationID: p.LocationID,
		CategoryID: p.CategoryID,
	}
}

// Validate applies the rules that need the database or the submitter.
func (f *PostForm) Validate(pc PostContext) Errors {
	errs := Errors{}
	f.normalize()

	if f.cleanTitle() == "" {
		errs.Add("title", "This field is required.")
	}
	if strings.TrimSpace(utils.StripTags(f.cleanText())) == "" {
		errs.Add("text", "This field is required.")
	}

	t, err := ParsePubDate(f.PubDate)
	if err != nil {
		errs.Add("pub_date", "Enter a valid date/time.")
	} else {
		f.pubDate = t
		if t.After(pc.Now) && !pc.Submitter.Authenticated() {
			errs.Add("pub_date", "Only authenticated users can schedule posts")
		}
	}

	current := pc.Current
	if f.CategoryID != nil && !(current != nil && sameID(current.CategoryID, f.CategoryID)) {
		if !publishedExists(pc.DB, &models.Category{}, *f.CategoryID) {
			errs.Add("category", "Select a valid choice. That choice is not one of the available choices.")
		}
	}
	if f.LocationID != nil && !(current != nil && sameID(current.LocationID, f.LocationID)) {
		if !publishedExists(pc.DB, &models.Location{}, *f.LocationID) {
			errs.Add("location", "Select a valid choice. That choice is not one of the available choices.")
		}
	}

	if f.Image != nil && pc.Images != nil {
		if _, err := pc.Images.Check(f.Image); err != nil {
			switch {
			case errors.Is(err, utils.ErrImageTooLarge), errors.Is(err, utils.ErrImageType):
				errs.Add("image", err.Error())
			default:
				errs.Add("image", "Upload a valid image.")
			}
		}
	}
	return errs
}

// PubDateValue returns the parsed publication date after a successful Validate.
func (f *PostForm) PubDateValue() time.Time { return f.pubDate }

// Apply copies the validated values onto p. Image changes are handled by the caller.
func (f *PostForm) Apply(p *models.Post) {
	p.Title = f.cleanTitle()
	p.Text = f.cleanText()
	p.PubDate = f.pubDate
	p.CategoryID = f.CategoryID
	p.LocationID = f.LocationID
}

func (f *PostForm) cleanTitle() string {
	return strings.TrimSpace(utils.StripTags(strings.TrimSpace(f.Title)))
}

func (f *PostForm) cleanText() string {
	return strings.TrimSpace(utils.SanitizeHTML(f.Text))
}

// Form bodies send "" for an empty select, which binds as 0.
func (f *PostForm) normalize() {
	if f.CategoryID != nil && *f.CategoryID == 0 {
		f.CategoryID = nil
	}
	if f.LocationID != nil && *f.LocationID == 0 {
		f.LocationID = nil
	}
}

func sameID(a, b *uint) bool {
	return a != nil && b != nil && *a == *b
}

func publishedExists(db *gorm.DB, model interface{}, id uint) bool {
	var n int64
	if err := db.Model(model).Where("id = ? AND is_published = ?", id, true).Count(&n).Error; err != nil {
		return false
	}
	return n > 0
}
