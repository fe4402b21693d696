package main

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"novacart/pkg/domain/service"
)

func printDashboard(w io.Writer, stats *service.DashboardStats) error {
	summary := tablewriter.NewWriter(w)
	summary.Header("Metric", "Value")
	rows := [][]string{
		{"Products", strconv.Itoa(stats.ProductCount)},
		{"Orders", strconv.Itoa(stats.OrderCount)},
		{"Total revenue", stats.TotalRevenue.StringFixed(2)},
		{"This month", stats.CurrentMonthRevenue.StringFixed(2)},
		{"Last month", stats.PreviousMonthRevenue.StringFixed(2)},
		{"Growth", stats.Growth},
	}
	for _, row := range rows {
		if err := summary.Append(row); err != nil {
			return errors.Wrap(err, "dashboard summary")
		}
	}
	if err := summary.Render(); err != nil {
		return errors.Wrap(err, "render dashboard summary")
	}

	if len(stats.RecentOrders) == 0 {
		return nil
	}
	recent := tablewriter.NewWriter(w)
	recent.Header("Order", "Status", "Total", "Placed")
	for _, order := range stats.RecentOrders {
		err := recent.Append([]string{
			order.ID.String()[:8],
			string(order.Status),
			order.TotalAmount.StringFixed(2),
			order.CreatedAt.UTC().Format("2006-01-02 15:04"),
		})
		if err != nil {
			return errors.Wrap(err, "recent orders")
		}
	}
	return errors.Wrap(recent.Render(), "render recent orders")
}
