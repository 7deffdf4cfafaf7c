// Package export renders audit trails as spreadsheets for compliance reviews.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fastygo/studio/domain"
)

const auditSheet = "Audit"

// AuditContentType is the MIME type of the workbook AuditWorkbook produces.
const AuditContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var auditHeader = []string{
	"ID", "Created At", "Environment", "Domain", "Action", "Entity Type", "Entity ID",
	"Actor ID", "Actor", "IP", "User Agent",
}

var auditWidths = []float64{8, 24, 14, 16, 12, 16, 38, 20, 20, 16, 40}

// AuditWorkbook writes events to a single-sheet XLSX workbook with a frozen header row.
func AuditWorkbook(events []domain.AuditEvent) ([]byte, error) {
	f := excelize.NewFile()
	fail := func(step string, err error) ([]byte, error) {
		f.Close()
		return nil, fmt.Errorf("audit export: %s: %w", step, err)
	}

	index, err := f.NewSheet(auditSheet)
	if err != nil {
		return fail("create sheet", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fail("drop default sheet", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fail("header style", err)
	}

	for i, title := range auditHeader {
		if err := setCell(f, i+1, 1, title); err != nil {
			return fail("header", err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fail("column name", err)
		}
		if err := f.SetColWidth(auditSheet, col, col, auditWidths[i]); err != nil {
			return fail("column width", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(auditHeader), 1)
	if err := f.SetCellStyle(auditSheet, "A1", last, headerStyle); err != nil {
		return fail("header style", err)
	}

	for i, event := range events {
		row := i + 2
		values := []interface{}{
			event.ID,
			event.CreatedAt.UTC().Format(time.RFC3339),
			event.Environment,
			event.Domain,
			event.Action,
			event.EntityType,
			event.EntityID,
			event.ActorID,
			event.ActorName,
			event.ActorIP,
			event.ActorUserAgent,
		}
		for col, value := range values {
			if value == "" {
				continue
			}
			if err := setCell(f, col+1, row, value); err != nil {
				return fail(fmt.Sprintf("row %d", row), err)
			}
		}
	}

	if err := f.SetPanes(auditSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fail("freeze header", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return fail("write", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("audit export: close: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(auditSheet, cell, value)
}
