package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// exportColumns is the header row of the admin workbook.
var exportColumns = []string{"User ID", "Completed", "Total", "Avg quality"}

// ExportWeeklyWorkbook builds an xlsx workbook with one row per user covering
// the 7-day span ending today. Used by the admin stats command; the returned
// buffer is sent as a document.
func (r *Reporter) ExportWeeklyWorkbook(ctx context.Context) (*bytes.Buffer, error) {
	now := r.clock.Now().In(r.loc)
	start := weekStart(now)

	rows, err := r.aggs.WeekRows(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("failed to collect export rows: %w", err)
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, h := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		values := []interface{}{row.UserID, row.CompletedTasks, row.TotalTasks, row.AverageQuality}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf, nil
}
