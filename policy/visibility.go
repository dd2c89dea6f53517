package policy

import (
	"time"

	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// LivePosts restricts a posts query to entries the public may see at now:
// published, pub date reached, and either uncategorised or in a published category.
func LivePosts(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		published := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Category{}).
			Select("id").
			Where("is_published = ?", true)
		return db.
			Where("posts.is_published = ? AND posts.pub_date <= ?", true, now).
			Where("(posts.category_id IS NULL OR posts.category_id IN (?))", published)
	}
}

// WithCommentCount selects post columns plus the number of comments on each post.
func WithCommentCount(db *gorm.DB) *gorm.DB {
	return db.Select("posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count")
}

// NewestFirst orders posts by publication date, newest first. The id tiebreak keeps pages stable.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("posts.pub_date DESC").Order("posts.id DESC")
}

// WithRelations preloads what a post listing shows next to each post.
func WithRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Category").Preload("Location")
}

// CanView decides whether viewer may open a single post. Authors always see their own posts;
// everybody else sees live posts only. The post's Category must be loaded when it has one.
func CanView(post *models.Post, viewer *Identity, now time.Time) error {
	if viewer.Is(post.AuthorID) {
		return nil
	}
	if post.IsLiveAt(now) {
		return nil
	}
	return utils.ErrNotFound
}

// ProfilePosts scopes the posts listed on username's profile. The owner sees every own post,
// anyone else only the live ones.
func ProfilePosts(owner *models.User, viewer *Identity, now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("posts.author_id = ?", owner.ID)
		if viewer.Is(owner.ID) {
			return db
		}
		return LivePosts(now)(db)
	}
}
