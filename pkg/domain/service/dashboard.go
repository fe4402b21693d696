package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"novacart/pkg/domain/model"
)

const recentOrdersLimit = 5

type DashboardStats struct {
	ProductCount         int             `json:"productCount"`
	OrderCount           int             `json:"orderCount"`
	TotalRevenue         decimal.Decimal `json:"totalRevenue"`
	RecentOrders         []model.Order   `json:"recentOrders"`
	CurrentMonthRevenue  decimal.Decimal `json:"currentMonthRevenue"`
	PreviousMonthRevenue decimal.Decimal `json:"previousMonthRevenue"`
	GrowthPercent        float64         `json:"growthPercent"`
	Growth               string          `json:"growth"`
}

type DashboardService interface {
	Stats(ctx context.Context, now time.Time) (*DashboardStats, error)
}

func NewDashboardService(orders model.OrderRepository, products model.ProductRepository) DashboardService {
	return &dashboardService{orders: orders, products: products}
}

type dashboardService struct {
	orders   model.OrderRepository
	products model.ProductRepository
}

func (s *dashboardService) Stats(ctx context.Context, now time.Time) (*DashboardStats, error) {
	now = now.UTC()
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	previousMonth := currentMonth.AddDate(0, -1, 0)
	nextMonth := currentMonth.AddDate(0, 1, 0)

	stats := &DashboardStats{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.ProductCount, err = s.products.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.OrderCount, err = s.orders.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalRevenue, err = s.orders.Revenue(ctx, time.Time{}, time.Time{})
		return err
	})
	g.Go(func() (err error) {
		stats.RecentOrders, err = s.orders.ListRecent(ctx, recentOrdersLimit)
		return err
	})
	g.Go(func() (err error) {
		stats.CurrentMonthRevenue, err = s.orders.Revenue(ctx, currentMonth, nextMonth)
		return err
	})
	g.Go(func() (err error) {
		stats.PreviousMonthRevenue, err = s.orders.Revenue(ctx, previousMonth, currentMonth)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if stats.RecentOrders == nil {
		stats.RecentOrders = []model.Order{}
	}
	stats.GrowthPercent = GrowthPercent(stats.PreviousMonthRevenue, stats.CurrentMonthRevenue)
	stats.Growth = fmt.Sprintf("%+.1f%%", stats.GrowthPercent)
	return stats, nil
}

// GrowthPercent is the month-over-month change. Growth from nothing counts as 100%.
func GrowthPercent(previous, current decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsPositive() {
			return 100
		}
		return 0
	}
	growth, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	return growth
}
