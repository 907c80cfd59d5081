package cafe

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/cafesync/internal/domain"
)

const dateLayout = "2006-01-02"

// DailySales is one day of a sales report.
type DailySales struct {
	Date     string  `json:"date"`
	Orders   int     `json:"orders"`
	Revenue  int64   `json:"revenue"`
	OrderIDs []int64 `json:"order_ids"`
}

// SalesReport summarizes orders over an inclusive date range.
type SalesReport struct {
	From         string       `json:"from"`
	To           string       `json:"to"`
	Days         []DailySales `json:"days"`
	TotalOrders  int          `json:"total_orders"`
	TotalRevenue int64        `json:"total_revenue"`
}

// SalesReport groups the orders dated from..to (YYYY-MM-DD, inclusive) by
// day. Days without orders are omitted. An empty from defaults to the
// first of the current month and an empty to defaults to today.
func (s *Service) SalesReport(ctx context.Context, from, to string) (SalesReport, error) {
	now := s.clock.Now()
	if from == "" {
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format(dateLayout)
	}
	if to == "" {
		to = now.Format(dateLayout)
	}
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return SalesReport{}, fmt.Errorf("%w: start date %q", domain.ErrInvalidDate, from)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return SalesReport{}, fmt.Errorf("%w: end date %q", domain.ErrInvalidDate, to)
	}
	if end.Before(start) {
		return SalesReport{}, fmt.Errorf("%w: end date %s is before start date %s", domain.ErrInvalidDate, to, from)
	}

	orders, err := s.backend.OrdersBetween(ctx, from, to)
	if err != nil {
		return SalesReport{}, fmt.Errorf("sales report: %w", err)
	}

	report := SalesReport{From: from, To: to, Days: []DailySales{}}
	index := map[string]int{}
	for _, o := range orders {
		i, ok := index[o.OrderDate]
		if !ok {
			i = len(report.Days)
			index[o.OrderDate] = i
			report.Days = append(report.Days, DailySales{Date: o.OrderDate})
		}
		day := &report.Days[i]
		day.Orders++
		day.Revenue += o.TotalAmount
		day.OrderIDs = append(day.OrderIDs, o.ID)
		report.TotalOrders++
		report.TotalRevenue += o.TotalAmount
	}
	return report, nil
}
