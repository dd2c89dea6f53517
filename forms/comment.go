package forms

import (
	"strings"
	"unicode/utf8"

	"github.com/cppla/blogicum/utils"
)

const (
	CommentMinLength = 3
	CommentMaxLength = 1000
)

// CommentForm is the body of a new or edited comment.
type CommentForm struct {
	Text string `form:"text" json:"text"`
}

// Validate checks the length of the visible text of what would be stored.
// Markup does not count and an entity is one character.
func (f *CommentForm) Validate() Errors {
	errs := Errors{}
	n := utf8.RuneCountInString(strings.TrimSpace(utils.StripTags(f.Cleaned())))
	switch {
	case n < CommentMinLength:
		errs.Add("text", "Comment must contain at least 3 characters")
	case n > CommentMaxLength:
		errs.Add("text", "Comment must not exceed 1000 characters")
	}
	return errs
}

// Cleaned returns the text that gets stored: trimmed and sanitised.
func (f *CommentForm) Cleaned() string {
	return strings.TrimSpace(utils.SanitizeHTML(strings.TrimSpace(f.Text)))
}
