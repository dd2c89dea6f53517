package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// Prefixes of routes that are not reader-facing pages.
var pageViewSkipPrefixes = []string{"/health", "/metrics", "/stats", "/media/", "/admin/", "/auth/"}

// PageViewRecorder counts successful page reads per day and path.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		path := c.Request.URL.Path
		for _, prefix := range pageViewSkipPrefixes {
			if strings.HasPrefix(path, prefix) {
				return
			}
		}

		// Local midnight lines up with the DATE column.
		now := time.Now()
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		// Upsert keeps concurrent hits on the same row from colliding.
		err := db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": now}),
		}).Create(&models.PageView{Date: day, Path: path, Count: 1}).Error
		if err != nil {
			utils.Sugar.Debugf("page view upsert failed path=%s err=%v", path, err)
		}
	}
}
