// Package modeltest provides in-memory databases and fixtures for tests.
package modeltest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/blogicum/models"
)

// NewDB opens a migrated in-memory SQLite database that is closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every pooled connection to :memory: would be a separate database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// User inserts an account with the given username and a derived email.
func User(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: "Test",
		LastName:  "User",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Category inserts a category with the given slug.
func Category(t testing.TB, db *gorm.DB, slug string, published bool) *models.Category {
	t.Helper()
	c := &models.Category{Title: "Category " + slug, Description: "About " + slug, Slug: slug}
	c.IsPublished = published
	require.NoError(t, db.Create(c).Error)
	return c
}

// Location inserts a location.
func Location(t testing.TB, db *gorm.DB, name string, published bool) *models.Location {
	t.Helper()
	l := &models.Location{Name: name}
	l.IsPublished = published
	require.NoError(t, db.Create(l).Error)
	return l
}

// PostOption adjusts a fixture post before it is stored.
type PostOption func(*models.Post)

// InCategory files the post under c.
func InCategory(c *models.Category) PostOption {
	return func(p *models.Post) { p.CategoryID = &c.ID }
}

// AtLocation tags the post with l.
func AtLocation(l *models.Location) PostOption {
	return func(p *models.Post) { p.LocationID = &l.ID }
}

// PublishedAt sets the publication date.
func PublishedAt(at time.Time) PostOption {
	return func(p *models.Post) { p.PubDate = at }
}

// Hidden marks the post unpublished.
func Hidden() PostOption {
	return func(p *models.Post) { p.IsPublished = false }
}

var postSeq int

// Post inserts a published post by author dated a day before the current time unless options say otherwise.
func Post(t testing.TB, db *gorm.DB, author *models.User, opts ...PostOption) *models.Post {
	t.Helper()
	postSeq++
	p := &models.Post{
		Title:    fmt.Sprintf("Post %d", postSeq),
		Text:     "Body text",
		PubDate:  time.Now().UTC().Add(-24 * time.Hour),
		AuthorID: author.ID,
	}
	p.IsPublished = true
	for _, o := range opts {
		o(p)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Comment inserts a comment by author on post.
func Comment(t testing.TB, db *gorm.DB, post *models.Post, author *models.User, text string) *models.Comment {
	t.Helper()
	c := &models.Comment{PostID: post.ID, AuthorID: author.ID, Text: text}
	require.NoError(t, db.Create(c).Error)
	return c
}
