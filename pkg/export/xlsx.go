// Package export renders stored candidates as spreadsheets
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the workbook written by Candidates
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Candidates"

var headers = []string{
	"ID", "Platform", "External ID", "First Name", "Last Name", "Email", "Phone",
	"Location", "Position", "Company", "Experience (years)", "Skills",
	"Salary Min", "Salary Max", "Profile URL", "Imported", "Last Synced",
}

// Candidates writes one row per candidate to w as an XLSX workbook
func Candidates(w io.Writer, candidates []*sourcing.ExternalCandidate) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, candidate := range candidates {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			candidate.ID,
			string(candidate.Platform),
			candidate.ExternalID,
			candidate.FirstName,
			candidate.LastName,
			candidate.Email,
			candidate.Phone,
			candidate.Location,
			candidate.CurrentPosition,
			candidate.CurrentCompany,
			optional(candidate.ExperienceYears),
			strings.Join(candidate.Skills, ", "),
			optional(candidate.SalaryMin),
			optional(candidate.SalaryMax),
			candidate.ProfileURL,
			candidate.IsImported,
			"",
		}
		if candidate.LastSyncedAt != nil {
			row[len(row)-1] = candidate.LastSyncedAt.UTC().Format("2006-01-02 15:04:05")
		}

		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// optional leaves unknown numbers as empty cells
func optional(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}
