package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
)

func renderDashboard(w io.Writer, d *model.Dashboard) error {
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")

	rows := [][]string{
		{"Orders today", strconv.FormatInt(d.TodayOrders, 10)},
		{"Orders total", strconv.FormatInt(d.TotalOrders, 10)},
		{"Active partners", strconv.FormatInt(d.TotalPartners, 10)},
		{"Revenue", d.TotalRevenue.StringFixed(2)},
		{"Commission", d.TotalCommission.StringFixed(2)},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("append dashboard row: %w", err)
		}
	}
	return table.Render()
}

func renderCommission(w io.Writer, r *model.CommissionReport) error {
	table := tablewriter.NewWriter(w)
	table.Header("Partner ID", "Partner", "Orders", "Revenue", "Commission")

	for _, row := range r.Rows {
		err := table.Append([]string{
			strconv.FormatInt(row.PartnerID, 10),
			row.PartnerName,
			strconv.FormatInt(row.TotalOrders, 10),
			row.TotalRevenue.StringFixed(2),
			row.TotalCommission.StringFixed(2),
		})
		if err != nil {
			return fmt.Errorf("append commission row: %w", err)
		}
	}

	table.Footer("", "Total",
		strconv.FormatInt(r.Summary.TotalOrders, 10),
		r.Summary.TotalRevenue.StringFixed(2),
		r.Summary.TotalCommission.StringFixed(2),
	)
	return table.Render()
}
