package forms

import (
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

const (
	msgUsernameTaken = "A user with that username already exists."
	msgEmailTaken    = "A user with that email already exists."
	msgPasswordsDiff = "The two password fields didn't match."
)

// RegistrationForm creates an account.
type RegistrationForm struct {
	Username  string `form:"username" json:"username" binding:"required,max=150,username"`
	FirstName string `form:"first_name" json:"first_name" binding:"required,max=30"`
	LastName  string `form:"last_name" json:"last_name" binding:"required,max=30"`
	Email     string `form:"email" json:"email" binding:"required,email,max=254"`
	Password1 string `form:"password1" json:"password1" binding:"required"`
	Password2 string `form:"password2" json:"password2" binding:"required"`
}

// Validate checks uniqueness against active accounts and the password rules.
func (f *RegistrationForm) Validate(db *gorm.DB) Errors {
	errs := Errors{}
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	if f.Username != "" && taken(db.Scopes(models.ByUsername(f.Username)), 0) {
		errs.Add("username", msgUsernameTaken)
	}
	if f.Email != "" && taken(db.Where("email = ?", f.Email), 0) {
		errs.Add("email", msgEmailTaken)
	}
	checkNewPassword(errs, "password2", f.Password1, f.Password2, f.Username)
	return errs
}

// Redacted drops the passwords so the input can be echoed back.
func (f RegistrationForm) Redacted() RegistrationForm {
	f.Password1, f.Password2 = "", ""
	return f
}

// ProfileForm edits the public account details of the current user.
type ProfileForm struct {
	Username  string `form:"username" json:"username" binding:"required,max=150,username"`
	FirstName string `form:"first_name" json:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" json:"last_name" binding:"max=150"`
	Email     string `form:"email" json:"email" binding:"omitempty,email,max=254"`
}

// NewProfileForm pre-fills the form with u's details.
func NewProfileForm(u *models.User) ProfileForm {
	return ProfileForm{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

// Validate rejects a username or email that belongs to another account.
func (f *ProfileForm) Validate(db *gorm.DB, userID uint) Errors {
	errs := Errors{}
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	if f.Username != "" && taken(db.Scopes(models.ByUsername(f.Username)), userID) {
		errs.Add("username", msgUsernameTaken)
	}
	if f.Email != "" && taken(db.Where("email = ?", f.Email), userID) {
		errs.Add("email", msgEmailTaken)
	}
	return errs
}

// Apply copies the validated values onto u.
func (f *ProfileForm) Apply(u *models.User) {
	u.Username = f.Username
	u.FirstName = utils.StripTags(f.FirstName)
	u.LastName = utils.StripTags(f.LastName)
	u.Email = f.Email
}

// PasswordChangeForm replaces the password of the current user.
type PasswordChangeForm struct {
	OldPassword  string `form:"old_password" json:"old_password" binding:"required"`
	NewPassword1 string `form:"new_password1" json:"new_password1" binding:"required"`
	NewPassword2 string `form:"new_password2" json:"new_password2" binding:"required"`
}

// Validate checks the old password of u and the strength of the new one.
func (f *PasswordChangeForm) Validate(u *models.User) Errors {
	errs := Errors{}
	if !utils.CheckPassword(u.PasswordHash, f.OldPassword) {
		errs.Add("old_password", "Your old password was entered incorrectly. Please enter it again.")
	}
	checkNewPassword(errs, "new_password2", f.NewPassword1, f.NewPassword2, u.Username)
	return errs
}

// LoginForm authenticates with username and password.
type LoginForm struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
	Next     string `form:"next" json:"next"`
}

// Authenticate returns the matching active user.
func (f *LoginForm) Authenticate(db *gorm.DB) (*models.User, Errors) {
	var u models.User
	err := db.Scopes(models.ByUsername(strings.TrimSpace(f.Username))).First(&u).Error
	if err != nil || !utils.CheckPassword(u.PasswordHash, f.Password) {
		return nil, Errors{NonFieldErrors: {"Please enter a correct username and password. Note that both fields may be case-sensitive."}}
	}
	return &u, nil
}

func checkNewPassword(errs Errors, field, p1, p2, username string) {
	if p1 != p2 {
		errs.Add(field, msgPasswordsDiff)
		return
	}
	for _, msg := range utils.ValidatePassword(p1, username) {
		errs.Add(field, msg)
	}
}

// taken reports whether an active account other than exceptID matches q.
func taken(q *gorm.DB, exceptID uint) bool {
	q = q.Model(&models.User{})
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		// Fail closed: a lookup error must not let a duplicate through.
		return true
	}
	return n > 0
}
