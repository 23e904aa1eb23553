// Package export renders payroll results as an XLSX register.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
)

// SheetName is the register worksheet
const SheetName = "Payroll Summary"

// ContentType is the MIME type of the written workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Headers are the register columns in order
var Headers = []string{
	"Employee Code", "Name", "Department", "Working Days", "Present", "Paid Leave", "LOP",
	"Gross", "Earnings", "Deductions", "PF", "ESIC", "PT", "Net Payable",
}

// firstMoneyCol is the 1-based index of "Gross"
const firstMoneyCol = 8

// RegisterMeta describes the register being written
type RegisterMeta struct {
	Month          int
	Year           int
	DepartmentName string
	// Status is "Preview" or the run status
	Status string
	RunID  string
}

// Filename returns the download name, e.g. payroll-register-2024-04.xlsx
func (m RegisterMeta) Filename() string {
	if m.RunID != "" {
		return fmt.Sprintf("payroll-register-%04d-%02d-%s.xlsx", m.Year, m.Month, m.RunID)
	}
	return fmt.Sprintf("payroll-register-%04d-%02d.xlsx", m.Year, m.Month)
}

func (m RegisterMeta) title() string {
	t := fmt.Sprintf("Payroll Register - %s %d", time.Month(m.Month), m.Year)
	if m.DepartmentName != "" {
		t += " - " + m.DepartmentName
	}
	return t
}

// WriteRegister writes one row per result followed by a totals row.
func WriteRegister(w io.Writer, meta RegisterMeta, results []domain.PayrollResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}
	if err := sw.SetColWidth(2, 3, 28); err != nil {
		return err
	}
	if err := sw.SetColWidth(firstMoneyCol, len(Headers), 14); err != nil {
		return err
	}

	status := meta.Status
	if status == "" {
		status = "Preview"
	}
	if err := sw.SetRow("A1", []interface{}{excelize.Cell{StyleID: titleStyle, Value: meta.title()}}); err != nil {
		return err
	}
	if err := sw.SetRow("A2", []interface{}{"Status: " + status}); err != nil {
		return err
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A4", header); err != nil {
		return err
	}

	totals := make([]decimal.Decimal, len(Headers)-firstMoneyCol+1)
	row := 5
	for _, r := range results {
		money := []decimal.Decimal{
			r.MonthlyGross, r.TotalEarnings, r.TotalDeductions,
			r.Statutory.PF, r.Statutory.ESIC, r.Statutory.PT, r.NetPayable,
		}
		values := []interface{}{
			r.EmployeeCode, r.EmployeeName, r.DepartmentName,
			r.Days.WorkingDays, r.Days.PresentDays, r.Days.PaidLeaveDays, r.Days.LOPDays,
		}
		for i, m := range money {
			totals[i] = totals[i].Add(m)
			values = append(values, excelize.Cell{StyleID: moneyStyle, Value: m.InexactFloat64()})
		}

		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
		row++
	}

	totalRow := make([]interface{}, firstMoneyCol-1, len(Headers))
	totalRow[0] = excelize.Cell{StyleID: headerStyle, Value: "Total"}
	for _, t := range totals {
		totalRow = append(totalRow, excelize.Cell{StyleID: totalStyle, Value: t.InexactFloat64()})
	}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := sw.SetRow(cell, totalRow); err != nil {
		return fmt.Errorf("failed to write totals: %w", err)
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush stream: %w", err)
	}

	_, err = f.WriteTo(w)
	return err
}
