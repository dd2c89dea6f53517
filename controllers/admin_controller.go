package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/forms"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/policy"
	"github.com/cppla/blogicum/utils"
)

// AdminController manages categories and locations for administrators.
type AdminController struct {
	Env
}

// NewAdminController creates a new AdminController instance.
func NewAdminController(env Env) *AdminController {
	return &AdminController{Env: env}
}

// filtered applies the ?is_published= filter and the ?q= search on column.
func filtered(ctx *gin.Context, column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if v, err := strconv.ParseBool(ctx.Query("is_published")); err == nil {
			db = db.Where("is_published = ?", v)
		}
		if q := strings.TrimSpace(ctx.Query("q")); q != "" {
			db = db.Where(column+" LIKE ?", "%"+q+"%")
		}
		return db
	}
}

func (a *AdminController) list(ctx *gin.Context, model interface{}, out interface{}, column string) (policy.Page, error) {
	var total int64
	if err := a.db(ctx).Model(model).Scopes(filtered(ctx, column)).Count(&total).Error; err != nil {
		return policy.Page{}, err
	}
	pg := policy.Paginate(total, ctx.Query("page"), config.Get().PostsPerPage)
	err := a.db(ctx).Model(model).Scopes(filtered(ctx, column), pg.Scope).Order("id DESC").Find(out).Error
	return pg, err
}

// ListCategories lists categories, newest first.
func (a *AdminController) ListCategories(ctx *gin.Context) {
	items := make([]models.Category, 0)
	pg, err := a.list(ctx, &models.Category{}, &items, "title")
	if err != nil {
		internalError(ctx, 50050, err)
		return
	}
	utils.Success(ctx, gin.H{"items": items, "page": pg})
}

// GetCategory returns a single category.
func (a *AdminController) GetCategory(ctx *gin.Context) {
	var c models.Category
	if !a.load(ctx, &c) {
		return
	}
	utils.Success(ctx, gin.H{"category": c})
}

// SaveCategory creates a category, or updates the one named in the URL.
func (a *AdminController) SaveCategory(ctx *gin.Context) {
	var c models.Category
	if ctx.Param("id") != "" && !a.load(ctx, &c) {
		return
	}
	var form forms.CategoryForm
	if errs := forms.Bind(ctx, &form); errs.Any() {
		invalid(ctx, errs, form)
		return
	}
	if errs := form.Validate(a.db(ctx), c.ID); errs.Any() {
		invalid(ctx, errs, form)
		return
	}
	form.Apply(&c)
	if err := a.db(ctx).Save(&c).Error; err != nil {
		internalError(ctx, 50051, err)
		return
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheIndexPrefix)
	utils.Success(ctx, gin.H{"category": c})
}

// DeleteCategory removes a category. Its posts stay and lose the category.
func (a *AdminController) DeleteCategory(ctx *gin.Context) {
	a.detachAndDelete(ctx, &models.Category{}, "category_id")
}

// ListLocations lists locations, newest first.
func (a *AdminController) ListLocations(ctx *gin.Context) {
	items := make([]models.Location, 0)
	pg, err := a.list(ctx, &models.Location{}, &items, "name")
	if err != nil {
		internalError(ctx, 50052, err)
		return
	}
	utils.Success(ctx, gin.H{"items": items, "page": pg})
}

// GetLocation returns a single location.
func (a *AdminController) GetLocation(ctx *gin.Context) {
	var l models.Location
	if !a.load(ctx, &l) {
		return
	}
	utils.Success(ctx, gin.H{"location": l})
}

// SaveLocation creates a location, or updates the one named in the URL.
func (a *AdminController) SaveLocation(ctx *gin.Context) {
	var l models.Location
	if ctx.Param("id") != "" && !a.load(ctx, &l) {
		return
	}
	var form forms.LocationForm
	if errs := forms.Bind(ctx, &form); errs.Any() {
		invalid(ctx, errs, form)
		return
	}
	form.Apply(&l)
	if err := a.db(ctx).Save(&l).Error; err != nil {
		internalError(ctx, 50053, err)
		return
	}
	utils.Success(ctx, gin.H{"location": l})
}

// DeleteLocation removes a location. Its posts stay and lose the location.
func (a *AdminController) DeleteLocation(ctx *gin.Context) {
	a.detachAndDelete(ctx, &models.Location{}, "location_id")
}

func (a *AdminController) load(ctx *gin.Context, dst interface{}) bool {
	id, ok := uintParam(ctx, "id")
	if !ok {
		notFound(ctx)
		return false
	}
	if err := a.db(ctx).First(dst, id).Error; err != nil {
		lookupFailed(ctx, 50054, err)
		return false
	}
	return true
}

func (a *AdminController) detachAndDelete(ctx *gin.Context, model interface{}, column string) {
	id, ok := uintParam(ctx, "id")
	if !ok {
		notFound(ctx)
		return
	}
	var detached int64
	err := a.db(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(model, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		upd := tx.Model(&models.Post{}).Where(column+" = ?", id).Update(column, nil)
		if upd.Error != nil {
			return fmt.Errorf("detach posts: %w", upd.Error)
		}
		detached = upd.RowsAffected
		return nil
	})
	if err != nil {
		lookupFailed(ctx, 50055, err)
		return
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheIndexPrefix)
	utils.Respond(ctx, http.StatusOK, 0, "deleted", gin.H{"detached_posts": detached})
}
