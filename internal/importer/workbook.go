package importer

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"cmxcli/internal/snapshot"
)

// ParseWarehouseFile reads a daily COMEX warehouse stocks workbook and
// extracts one inventory snapshot per metal. The report date comes from the
// filename prefix, e.g. "2026-08-01 COMEX Warehouse Stocks.xlsx".
func ParseWarehouseFile(path string) ([]snapshot.InventorySnapshot, error) {
	date, err := dateFromFilename(path)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open warehouse file: %w", err)
	}
	defer f.Close()

	rows, err := findStocksSheet(f)
	if err != nil {
		return nil, err
	}

	headerRow, columnMap := mapColumns(rows, []string{"metal", "registered", "eligible"})
	if headerRow == -1 {
		return nil, fmt.Errorf("could not find header row in %s", filepath.Base(path))
	}
	for _, col := range []string{"metal", "registered", "eligible"} {
		if _, ok := columnMap[col]; !ok {
			return nil, fmt.Errorf("missing required column %q in %s", col, filepath.Base(path))
		}
	}

	var snaps []snapshot.InventorySnapshot
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		name := strings.ToLower(cellString(row, columnMap, "metal"))
		if name == "" || strings.Contains(name, "total") {
			continue
		}

		metal := snapshot.Metal(name)
		if !metal.IsValid() {
			slog.Warn("skipping unknown metal in warehouse report",
				"metal", name,
				"file", filepath.Base(path))
			continue
		}

		snaps = append(snaps, snapshot.InventorySnapshot{
			Metal:              metal,
			Date:               date,
			Registered:         cellFloat(row, columnMap, "registered"),
			Eligible:           cellFloat(row, columnMap, "eligible"),
			MonthlyDemand:      cellFloat(row, columnMap, "monthly_demand"),
			MTDDeliveryNotices: cellFloat(row, columnMap, "mtd_notices"),
		})
	}

	if len(snaps) == 0 {
		return nil, fmt.Errorf("no metal rows found in %s", filepath.Base(path))
	}
	return snaps, nil
}

// findStocksSheet probes common sheet names first, then falls back to any
// sheet whose first rows look like warehouse stock data.
func findStocksSheet(f *excelize.File) ([][]string, error) {
	for _, name := range []string{"Stocks", "Warehouse Stocks", "Daily Stocks", "Sheet1"} {
		if rows, err := f.GetRows(name); err == nil && len(rows) > 1 {
			return rows, nil
		}
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) < 2 {
			continue
		}
		probe := len(rows)
		if probe > 4 {
			probe = 4
		}
		for _, row := range rows[:probe] {
			text := strings.ToLower(strings.Join(row, " "))
			if strings.Contains(text, "metal") && strings.Contains(text, "registered") {
				return rows, nil
			}
		}
	}

	return nil, fmt.Errorf("could not find warehouse stocks sheet")
}

// mapColumns locates the header row containing all required column names and
// returns the positions of every recognized column.
func mapColumns(rows [][]string, required []string) (int, map[string]int) {
	for i, row := range rows {
		if len(row) < len(required) {
			continue
		}

		text := strings.ToLower(strings.Join(row, " "))
		matched := true
		for _, want := range required {
			if !strings.Contains(text, want) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}

		columnMap := make(map[string]int)
		for j, header := range row {
			h := strings.ToLower(strings.TrimSpace(header))
			switch {
			case h == "metal":
				columnMap["metal"] = j
			case strings.Contains(h, "registered"):
				columnMap["registered"] = j
			case strings.Contains(h, "eligible"):
				columnMap["eligible"] = j
			case strings.Contains(h, "monthly") && strings.Contains(h, "demand"):
				columnMap["monthly_demand"] = j
			case strings.Contains(h, "delivery") && (strings.Contains(h, "notice") || strings.Contains(h, "mtd")):
				columnMap["mtd_notices"] = j
			}
		}
		return i, columnMap
	}
	return -1, nil
}

func cellString(row []string, columnMap map[string]int, col string) string {
	if idx, ok := columnMap[col]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func cellFloat(row []string, columnMap map[string]int, col string) float64 {
	raw := cellString(row, columnMap, col)
	if raw == "" {
		return 0
	}
	v, _ := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	return v
}

func dateFromFilename(path string) (time.Time, error) {
	base := filepath.Base(path)
	if len(base) < 10 {
		return time.Time{}, fmt.Errorf("filename %q does not start with a report date", base)
	}
	date, err := time.Parse("2006-01-02", base[:10])
	if err != nil {
		return time.Time{}, fmt.Errorf("filename %q does not start with a report date: %w", base, err)
	}
	return date, nil
}
