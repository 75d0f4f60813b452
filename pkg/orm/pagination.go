package orm

import "gorm.io/gorm"

// Pagination describes one page of a listing.
type Pagination struct {
	Page     int   `json:"page"`
	PerPage  int   `json:"perPage"`
	Total    int64 `json:"total"`
	LastPage int   `json:"lastPage"`
}

const maxPerPage = 100

// GetWithPagination counts the rows matched so far, then loads page into
// dest. page is 1-based; out-of-range values are clamped.
func (q *Query) GetWithPagination(dest interface{}, page, perPage int) (Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	var total int64
	if err := q.db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Pagination{}, err
	}

	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}

	err := q.db.Session(&gorm.Session{}).Offset((page - 1) * perPage).Limit(perPage).Find(dest).Error
	return Pagination{Page: page, PerPage: perPage, Total: total, LastPage: last}, err
}
