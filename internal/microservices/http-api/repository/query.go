package repository

import (
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page selects a 1-based page of a listing.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into valid bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Size
}

// Paginate is a gorm scope applying LIMIT/OFFSET for p.
func Paginate(p Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		p = p.Normalize()
		return db.Limit(p.Size).Offset(p.Offset())
	}
}

// Contains is a gorm scope for a case-insensitive substring match on column.
// An empty needle leaves the query untouched.
func Contains(column, needle string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		needle = strings.TrimSpace(needle)
		if needle == "" {
			return db
		}
		return db.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(needle))+"%")
	}
}

// listQuery describes one filtered, ordered and paginated listing.
type listQuery struct {
	model   any
	filters []func(*gorm.DB) *gorm.DB
	selects string
	preload []string
	order   string
	page    Page
}

// findPage counts the filtered rows and loads one page of them into dest.
// Filters apply to both queries, selects/preloads/order only to the page.
func findPage(db *gorm.DB, q listQuery, dest any) (int64, error) {
	var total int64
	if err := db.Model(q.model).Scopes(q.filters...).Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}

	tx := db.Model(q.model).Scopes(q.filters...)
	if q.selects != "" {
		tx = tx.Select(q.selects)
	}
	for _, assoc := range q.preload {
		tx = tx.Preload(assoc)
	}
	if err := tx.Order(q.order).Scopes(Paginate(q.page)).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
