package docstore

import (
	"fmt"

	"github.com/angelmondragon/paintref-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Paginate serves numbered pages on a store that only offers StartAfter
// cursors. A keys-only scan of every match yields the total and the anchor
// row preceding the page; a second scan reads the page after that anchor.
// Writes landing between the two scans can shift the page boundary.
//
// base must return a fresh statement bound to the model being read.
func Paginate[T any](base func() *gorm.DB, schema Schema, q Query, limit, page int) (pagination.Result[T], error) {
	cols, err := q.Columns(schema)
	if err != nil {
		return pagination.Result[T]{}, err
	}
	if len(cols) == 0 {
		return pagination.Result[T]{}, fmt.Errorf("%w: pagination needs an ordering", ErrCursorMismatch)
	}

	keysQuery, err := q.After(nil).WithLimit(0).Apply(base(), schema)
	if err != nil {
		return pagination.Result[T]{}, err
	}
	var keys []map[string]any
	if err := keysQuery.Select(cols).Find(&keys).Error; err != nil {
		return pagination.Result[T]{}, fmt.Errorf("scan keys: %w", err)
	}

	p := pagination.Resolve(len(keys), limit, page)
	if p.Total == 0 {
		return pagination.NewResult[T](nil, p), nil
	}

	pageQuery := q.WithLimit(p.Limit)
	if p.Offset > 0 {
		anchor, err := q.CursorOf(keys[p.Offset-1], schema)
		if err != nil {
			return pagination.Result[T]{}, err
		}
		pageQuery = pageQuery.After(anchor)
	}
	tx, err := pageQuery.Apply(base(), schema)
	if err != nil {
		return pagination.Result[T]{}, err
	}
	var items []T
	if err := tx.Find(&items).Error; err != nil {
		return pagination.Result[T]{}, fmt.Errorf("scan page: %w", err)
	}
	return pagination.NewResult(items, p), nil
}
