package forms

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/models/modeltest"
	"github.com/cppla/blogicum/policy"
	"github.com/cppla/blogicum/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func formContext(values url.Values) *gin.Context {
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ctx.Request = req
	return ctx
}

func TestBindReportsFieldNames(t *testing.T) {
	var f RegistrationForm
	errs := Bind(formContext(url.Values{"username": {"bad name!"}, "email": {"nope"}}), &f)
	require.True(t, errs.Any())
	assert.Contains(t, errs, "username")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "first_name")
	assert.Equal(t, []string{"Enter a valid email address."}, errs["email"])
}

func TestCommentFormLengths(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"too short", "ab", "Comment must contain at least 3 characters"},
		{"whitespace does not count", "  ab \n", "Comment must contain at least 3 characters"},
		{"minimum", "abc", ""},
		{"runes not bytes", "жжж", ""},
		{"maximum", strings.Repeat("a", 1000), ""},
		{"maximum with padding", "  " + strings.Repeat("a", 1000) + "  ", ""},
		{"too long", strings.Repeat("a", 1001), "Comment must not exceed 1000 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := CommentForm{Text: tt.text}
			errs := f.Validate()
			if tt.want == "" {
				assert.False(t, errs.Any(), errs.Error())
				return
			}
			assert.Equal(t, []string{tt.want}, errs["text"])
		})
	}
}

func TestCommentFormCountsSanitisedText(t *testing.T) {
	cases := []struct {
		name string
		text string
		ok   bool
	}{
		{"script only", "<script>alert(1)</script>", false},
		{"empty tags", "<b></b><i> </i>", false},
		{"markup around two letters", "<b>ab</b>", false},
		{"entity counts once", "a&amp;", false},
		{"tags do not inflate short text", "<b>abc</b>", true},
		{"ampersands stay within the limit", strings.Repeat("&", CommentMaxLength), true},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			f := CommentForm{Text: tt.text}
			assert.Equal(t, tt.ok, !f.Validate().Any(), f.Cleaned())
		})
	}
}

func TestCommentFormCleaned(t *testing.T) {
	f := CommentForm{Text: "  nice <script>alert(1)</script><b>post</b>  "}
	assert.Equal(t, "nice <b>post</b>", f.Cleaned())
}

func TestParsePubDate(t *testing.T) {
	want := time.Date(2024, 5, 6, 7, 8, 0, 0, time.UTC)
	for _, raw := range []string{"2024-05-06T07:08", "2024-05-06 07:08:00", "2024-05-06T07:08:00Z", "2024-05-06T09:08:00+02:00"} {
		got, err := ParsePubDate(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), raw)
	}
	_, err := ParsePubDate("yesterday")
	assert.Error(t, err)
}

func TestPostFormValidate(t *testing.T) {
	db := modeltest.NewDB(t)
	now := time.Now().UTC()
	author := modeltest.User(t, db, "author")
	open := modeltest.Category(t, db, "open", true)
	closed := modeltest.Category(t, db, "closed", false)
	hiddenPlace := modeltest.Location(t, db, "Nowhere", false)
	who := &policy.Identity{UserID: author.ID, Username: author.Username}

	t.Run("published category accepted", func(t *testing.T) {
		f := PostForm{Title: "t", Text: "x", PubDate: "2020-01-01T10:00", CategoryID: &open.ID}
		errs := f.Validate(PostContext{DB: db, Submitter: who, Now: now})
		assert.False(t, errs.Any(), errs.Error())
		assert.Equal(t, 2020, f.PubDateValue().Year())
	})

	t.Run("unpublished category rejected", func(t *testing.T) {
		f := PostForm{Title: "t", Text: "x", PubDate: "2020-01-01T10:00", CategoryID: &closed.ID}
		errs := f.Validate(PostContext{DB: db, Submitter: who, Now: now})
		assert.Contains(t, errs, "category")
	})

	t.Run("current value kept even when unpublished", func(t *testing.T) {
		existing := modeltest.Post(t, db, author, modeltest.InCategory(closed), modeltest.AtLocation(hiddenPlace))
		f := NewPostForm(existing)
		errs := f.Validate(PostContext{DB: db, Submitter: who, Current: existing, Now: now})
		assert.False(t, errs.Any(), errs.Error())
	})

	t.Run("unpublished location rejected", func(t *testing.T) {
		f := PostForm{Title: "t", Text: "x", PubDate: "2020-01-01T10:00", LocationID: &hiddenPlace.ID}
		errs := f.Validate(PostContext{DB: db, Submitter: who, Now: now})
		assert.Contains(t, errs, "location")
	})

	t.Run("empty selects mean none", func(t *testing.T) {
		zero := uint(0)
		f := PostForm{Title: "t", Text: "x", PubDate: "2020-01-01T10:00", CategoryID: &zero, LocationID: &zero}
		errs := f.Validate(PostContext{DB: db, Submitter: who, Now: now})
		assert.False(t, errs.Any(), errs.Error())
		assert.Nil(t, f.CategoryID)
		assert.Nil(t, f.LocationID)
	})

	t.Run("future date needs an identity", func(t *testing.T) {
		future := now.Add(48 * time.Hour).Format("2006-01-02T15:04")
		f := PostForm{Title: "t", Text: "x", PubDate: future}
		errs := f.Validate(PostContext{DB: db, Now: now})
		assert.Equal(t, []string{"Only authenticated users can schedule posts"}, errs["pub_date"])

		f = PostForm{Title: "t", Text: "x", PubDate: future}
		assert.False(t, f.Validate(PostContext{DB: db, Submitter: who, Now: now}).Any())
	})

	t.Run("markup-only title and text rejected", func(t *testing.T) {
		f := PostForm{Title: "<b></b>", Text: "<script>x</script><p> </p>", PubDate: "2020-01-01T10:00"}
		errs := f.Validate(PostContext{DB: db, Submitter: who, Now: now})
		assert.Equal(t, []string{"This field is required."}, errs["title"])
		assert.Equal(t, []string{"This field is required."}, errs["text"])
	})

	t.Run("bad date", func(t *testing.T) {
		f := PostForm{Title: "t", Text: "x", PubDate: "soon"}
		errs := f.Validate(PostContext{DB: db, Submitter: who, Now: now})
		assert.Contains(t, errs, "pub_date")
	})
}

func TestPostFormApply(t *testing.T) {
	f := PostForm{Title: "  <i>Hello</i> & bye ", Text: "<p>ok</p><script>x</script>", PubDate: "2021-02-03T04:05"}
	require.False(t, f.Validate(PostContext{Now: time.Now().UTC()}).Any())
	var p models.Post
	f.Apply(&p)
	assert.Equal(t, "Hello & bye", p.Title)
	assert.Equal(t, "<p>ok</p>", p.Text)
	assert.Equal(t, time.Date(2021, 2, 3, 4, 5, 0, 0, time.UTC), p.PubDate)
}

func TestRegistrationFormValidate(t *testing.T) {
	db := modeltest.NewDB(t)
	modeltest.User(t, db, "taken")

	f := RegistrationForm{Username: "taken", Email: "taken@example.com", Password1: "s3cret-pass", Password2: "s3cret-pass"}
	errs := f.Validate(db)
	assert.Equal(t, []string{msgUsernameTaken}, errs["username"])
	assert.Equal(t, []string{msgEmailTaken}, errs["email"])

	f = RegistrationForm{Username: "fresh", Email: "fresh@example.com", Password1: "s3cret-pass", Password2: "other-pass"}
	assert.Equal(t, []string{msgPasswordsDiff}, f.Validate(db)["password2"])

	f = RegistrationForm{Username: "fresh", Email: "fresh@example.com", Password1: "12345678901", Password2: "12345678901"}
	assert.Contains(t, f.Validate(db)["password2"], "This password is entirely numeric.")

	f = RegistrationForm{Username: "fresh", Email: "fresh@example.com", Password1: "s3cret-pass", Password2: "s3cret-pass"}
	assert.False(t, f.Validate(db).Any())
	assert.Empty(t, f.Redacted().Password1)
}

func TestRegistrationIgnoresDeletedAccounts(t *testing.T) {
	db := modeltest.NewDB(t)
	gone := modeltest.User(t, db, "gone")
	require.NoError(t, db.Delete(gone).Error)

	f := RegistrationForm{Username: "gone", Email: "gone@example.com", Password1: "s3cret-pass", Password2: "s3cret-pass"}
	assert.False(t, f.Validate(db).Any())
}

func TestUsernamesAreCaseSensitive(t *testing.T) {
	db := modeltest.NewDB(t)
	u := modeltest.User(t, db, "reader")
	hash, err := utils.HashPassword("correct-horse")
	require.NoError(t, err)
	require.NoError(t, db.Model(u).Update("password_hash", hash).Error)

	f := RegistrationForm{Username: "Reader", Email: "other@example.com", Password1: "s3cret-pass", Password2: "s3cret-pass"}
	assert.NotContains(t, f.Validate(db), "username")

	_, errs := (&LoginForm{Username: "READER", Password: "correct-horse"}).Authenticate(db)
	assert.Contains(t, errs, NonFieldErrors)
}

func TestProfileFormValidate(t *testing.T) {
	db := modeltest.NewDB(t)
	me := modeltest.User(t, db, "me")
	modeltest.User(t, db, "other")

	f := NewProfileForm(me)
	assert.False(t, f.Validate(db, me.ID).Any(), "unchanged values pass")

	f.Username = "other"
	f.Email = "other@example.com"
	errs := f.Validate(db, me.ID)
	assert.Contains(t, errs, "username")
	assert.Contains(t, errs, "email")
}

func TestPasswordChangeForm(t *testing.T) {
	hash, err := utils.HashPassword("old-password")
	require.NoError(t, err)
	u := &models.User{Username: "me", PasswordHash: hash}

	f := PasswordChangeForm{OldPassword: "wrong", NewPassword1: "brand-new-pass", NewPassword2: "brand-new-pass"}
	assert.Contains(t, f.Validate(u), "old_password")

	f = PasswordChangeForm{OldPassword: "old-password", NewPassword1: "brand-new-pass", NewPassword2: "brand-new-pass"}
	assert.False(t, f.Validate(u).Any())
}

func TestLoginFormAuthenticate(t *testing.T) {
	db := modeltest.NewDB(t)
	u := modeltest.User(t, db, "reader")
	hash, err := utils.HashPassword("correct-horse")
	require.NoError(t, err)
	require.NoError(t, db.Model(u).Update("password_hash", hash).Error)

	f := LoginForm{Username: "reader", Password: "correct-horse"}
	got, errs := f.Authenticate(db)
	require.Nil(t, errs)
	assert.Equal(t, u.ID, got.ID)

	f.Password = "nope"
	_, errs = f.Authenticate(db)
	assert.Contains(t, errs, NonFieldErrors)
}

func TestCategoryForm(t *testing.T) {
	db := modeltest.NewDB(t)
	existing := modeltest.Category(t, db, "travel", true)

	f := CategoryForm{Title: "Travel", Description: "d", Slug: "travel"}
	assert.Contains(t, f.Validate(db, 0), "slug")
	assert.False(t, f.Validate(db, existing.ID).Any())

	var c models.Category
	f.Slug = "trips"
	f.Apply(&c)
	assert.True(t, c.IsPublished)

	hide := false
	f.IsPublished = &hide
	f.Apply(&c)
	assert.False(t, c.IsPublished)
}

func TestLocationForm(t *testing.T) {
	var l models.Location
	f := LocationForm{Name: " <b>Moscow</b> "}
	f.Apply(&l)
	assert.Equal(t, "Moscow", l.Name)
	assert.True(t, l.IsPublished)
}
