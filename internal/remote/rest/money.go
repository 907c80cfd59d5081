package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/cafesync/internal/domain"
)

// money decodes a rupiah amount. PostgREST renders NUMERIC columns as
// numbers with a fractional part ("25000.00") and, when configured to,
// as strings. Fractions are rounded to whole rupiah.
type money int64

func (m *money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		data = []byte(s)
	}
	f, err := strconv.ParseFloat(string(bytes.TrimSpace(data)), 64)
	if err != nil {
		return fmt.Errorf("amount %q: %w", data, err)
	}
	*m = money(math.Round(f))
	return nil
}

type orderRow struct {
	domain.Order
	TotalAmount money `json:"total_amount"`
}

func (r orderRow) order() domain.Order {
	o := r.Order
	o.TotalAmount = int64(r.TotalAmount)
	return o
}

func ordersFrom(rows []orderRow) []domain.Order {
	orders := make([]domain.Order, len(rows))
	for i, r := range rows {
		orders[i] = r.order()
	}
	return orders
}
