package service

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/session"
)

const (
	hourlyBuckets = 12
	weeklyBuckets = 11
	week          = 7 * 24 * time.Hour
)

type AnalyticsService struct {
	Repo *repo.GormRepo
	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

type Stats struct {
	Customers int64           `json:"customers"`
	Revenue   decimal.Decimal `json:"revenue"`
	Products  int64           `json:"products"`
	Sales     int64           `json:"sales"`
}

type HourBucket struct {
	Hour   string    `json:"hour"`
	Start  time.Time `json:"start"`
	Orders int       `json:"orders"`
}

type WeekBucket struct {
	Week     string    `json:"week"`
	Start    time.Time `json:"start"`
	Products int       `json:"products"`
}

type Analytics struct {
	Hourly           []HourBucket             `json:"hourly"`
	PeakHour         HourBucket               `json:"peak_hour"`
	TotalOrders      int64                    `json:"total_orders"`
	OrdersLast12h    int                      `json:"orders_last_12h"`
	AvgOrdersPerHour float64                  `json:"avg_orders_per_hour"`
	ProductOrders    []repo.ProductOrderCount `json:"product_orders"`
	WeeklyProducts   []WeekBucket             `json:"weekly_products"`
}

func (s *AnalyticsService) Stats(ctx context.Context, sess session.Session) (*Stats, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	var (
		st  Stats
		err error
	)
	if st.Customers, err = s.Repo.CountCustomers(ctx); err != nil {
		return nil, err
	}
	if st.Revenue, err = s.Repo.TotalRevenue(ctx); err != nil {
		return nil, err
	}
	if st.Products, err = s.Repo.CountProducts(ctx); err != nil {
		return nil, err
	}
	if st.Sales, err = s.Repo.CountOrdersByStatus(ctx, models.CompletedStatuses()); err != nil {
		return nil, err
	}
	st.Revenue = st.Revenue.Round(2)
	return &st, nil
}

// Analytics computes every window against a single reading of the clock.
func (s *AnalyticsService) Analytics(ctx context.Context, sess session.Session) (*Analytics, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	now := s.now()
	out := &Analytics{}

	hourStart := now.Truncate(time.Hour).Add(-(hourlyBuckets - 1) * time.Hour)
	orderTimes, err := s.Repo.OrderTimesSince(ctx, hourStart)
	if err != nil {
		return nil, err
	}
	out.Hourly = hourlyCounts(hourStart, orderTimes)
	out.PeakHour = peakHour(out.Hourly)
	for _, b := range out.Hourly {
		out.OrdersLast12h += b.Orders
	}
	out.AvgOrdersPerHour = math.Round(float64(out.OrdersLast12h)/hourlyBuckets*100) / 100

	if out.TotalOrders, err = s.Repo.CountOrders(ctx); err != nil {
		return nil, err
	}
	if out.ProductOrders, err = s.Repo.ProductOrderCounts(ctx); err != nil {
		return nil, err
	}
	if out.ProductOrders == nil {
		out.ProductOrders = []repo.ProductOrderCount{}
	}

	weekStart := startOfWeek(now).AddDate(0, 0, -7*(weeklyBuckets-1))
	created, err := s.Repo.ProductCreationTimesSince(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	out.WeeklyProducts = weeklyCounts(weekStart, created)

	return out, nil
}

func (s *AnalyticsService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func hourlyCounts(start time.Time, times []time.Time) []HourBucket {
	buckets := make([]HourBucket, hourlyBuckets)
	for i := range buckets {
		t := start.Add(time.Duration(i) * time.Hour)
		buckets[i] = HourBucket{Hour: t.Format("15:04"), Start: t}
	}
	for _, t := range times {
		d := t.UTC().Sub(start)
		if d < 0 {
			continue
		}
		if i := int(d / time.Hour); i < hourlyBuckets {
			buckets[i].Orders++
		}
	}
	return buckets
}

// peakHour keeps the earliest bucket on ties.
func peakHour(buckets []HourBucket) HourBucket {
	var peak HourBucket
	for i, b := range buckets {
		if i == 0 || b.Orders > peak.Orders {
			peak = b
		}
	}
	return peak
}

func weeklyCounts(start time.Time, times []time.Time) []WeekBucket {
	buckets := make([]WeekBucket, weeklyBuckets)
	for i := range buckets {
		t := start.AddDate(0, 0, 7*i)
		buckets[i] = WeekBucket{Week: t.Format("Jan 02"), Start: t}
	}
	for _, t := range times {
		d := t.UTC().Sub(start)
		if d < 0 {
			continue
		}
		if i := int(d / week); i < weeklyBuckets {
			buckets[i].Products++
		}
	}
	return buckets
}

// startOfWeek returns Sunday 00:00 UTC of the week holding t.
func startOfWeek(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}
