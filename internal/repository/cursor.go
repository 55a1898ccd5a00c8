package repository

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"cleat-store/internal/catalog"
	"cleat-store/internal/domain"
)

var (
	ErrInvalidCursor = errors.New("invalid page cursor")
)

// pageCursor marks the last row of a page: its sort value and id
type pageCursor struct {
	Field catalog.OrderField `json:"f"`
	Value string             `json:"v"`
	ID    string             `json:"id"`
}

func encodeCursor(order catalog.Order, p *domain.Product) string {
	c := pageCursor{Field: order.Field, Value: sortValue(order.Field, p), ID: p.ID}
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// decodeCursor parses s and checks it was issued for the same ordering
func decodeCursor(s string, order catalog.Order) (pageCursor, error) {
	var c pageCursor
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return c, ErrInvalidCursor
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, ErrInvalidCursor
	}
	if c.Field != order.Field || c.ID == "" {
		return c, ErrInvalidCursor
	}
	return c, nil
}

func sortValue(field catalog.OrderField, p *domain.Product) string {
	switch field {
	case catalog.OrderByPrice:
		return p.Price.String()
	case catalog.OrderByName:
		return p.Name
	case catalog.OrderByRating:
		return strconv.FormatFloat(p.Rating, 'g', -1, 64)
	case catalog.OrderByDiscount:
		return strconv.Itoa(p.DiscountPercentage)
	default:
		return p.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
}

// orderColumn returns the column and the SQL type its cursor value is cast to
func orderColumn(field catalog.OrderField) (column, sqlType string) {
	switch field {
	case catalog.OrderByPrice:
		return "price", "numeric"
	case catalog.OrderByName:
		return "name", "text"
	case catalog.OrderByRating:
		return "rating", "double precision"
	case catalog.OrderByDiscount:
		return "discount_percentage", "integer"
	default:
		return "created_at", "timestamptz"
	}
}
