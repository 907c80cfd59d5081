package cafe

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/cafesync/internal/format"
)

const salesSheet = "Penjualan"

// ExportFileName is the download name for the xlsx export of report.
func ExportFileName(report SalesReport) string {
	return fmt.Sprintf("laporan-penjualan_%s_%s.xlsx", report.From, report.To)
}

// ExportSalesReport writes report as an xlsx workbook with one row per day
// and a total row.
func ExportSalesReport(w io.Writer, report SalesReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", salesSheet); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#3b82f6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	total, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#e2e8f0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "top", Color: "000000", Style: 2}},
	})
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Laporan Penjualan %s s/d %s", report.From, report.To)
	if err := f.SetCellValue(salesSheet, "A1", title); err != nil {
		return err
	}

	for i, h := range []string{"Tanggal", "Jumlah Pesanan", "Pendapatan", "Pendapatan (Rp)", "ID Pesanan"} {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(salesSheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(salesSheet, cell, cell, header); err != nil {
			return err
		}
	}

	row := 4
	for _, day := range report.Days {
		ids := make([]string, len(day.OrderIDs))
		for i, id := range day.OrderIDs {
			ids[i] = fmt.Sprint(id)
		}
		values := []any{dayLabel(day.Date), day.Orders, day.Revenue, format.Currency(day.Revenue), strings.Join(ids, ", ")}
		if err := f.SetSheetRow(salesSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		row++
	}

	totals := []any{"Total", report.TotalOrders, report.TotalRevenue, format.Currency(report.TotalRevenue)}
	if err := f.SetSheetRow(salesSheet, fmt.Sprintf("A%d", row), &totals); err != nil {
		return err
	}
	if err := f.SetCellStyle(salesSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row), total); err != nil {
		return err
	}

	for col, width := range map[string]float64{"A": 28, "B": 16, "C": 14, "D": 18, "E": 30} {
		if err := f.SetColWidth(salesSheet, col, col, width); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

// dayLabel renders a report date with its Indonesian day name, falling
// back to the raw value when it does not parse.
func dayLabel(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return format.Date(t)
}
