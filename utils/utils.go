package utils

import (
	"github.com/gofiber/fiber/v2"
)

// Page is the normalized page/limit pair of a list request.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// MaxPage bounds the page number so Offset cannot overflow.
const MaxPage = 100000

// NewPage clamps page to 1..MaxPage and limit to 1..maxLimit, falling back to
// defaultLimit when unset.
func NewPage(page, limit, defaultLimit, maxLimit int) Page {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Page{Page: page, Limit: limit}
}

// Paginated is the list envelope used by the catalog and review endpoints.
func Paginated(items interface{}, total int64, p Page) fiber.Map {
	return fiber.Map{
		"items":    items,
		"total":    total,
		"page":     p.Page,
		"pageSize": p.Limit,
	}
}
