package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cmuturi/resume-ranker/internal/models"
)

// badgeFillColors maps each score badge to its row fill.
var badgeFillColors = map[models.Category]string{
	models.CategoryExcellent: "C6EFCE",
	models.CategoryGood:      "FFEB9C",
	models.CategoryFair:      "FFC7CE",
	models.CategoryPoor:      "FF9999",
}

// ExportToExcel generates an Excel workbook for a ranked ResultSet.
func ExportToExcel(rs *models.ResultSet, stats models.Stats, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	// Ensure output path has .xlsx extension
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}

	// Clean the path for cross-platform compatibility (Windows paths)
	outputPath = filepath.Clean(outputPath)

	summarySheet := "Summary"
	candidatesSheet := "Ranked Candidates"
	detailsSheet := "Detailed Analysis"

	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(candidatesSheet)
	f.NewSheet(detailsSheet)

	if err := createSummarySheet(f, summarySheet, rs, stats); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	if err := createRankedCandidatesSheet(f, candidatesSheet, rs); err != nil {
		return fmt.Errorf("failed to create ranked candidates sheet: %w", err)
	}

	if err := createDetailedAnalysisSheet(f, detailsSheet, rs); err != nil {
		return fmt.Errorf("failed to create detailed analysis sheet: %w", err)
	}

	// Try to save the file directly
	if err := f.SaveAs(outputPath); err != nil {
		// If direct save fails, try buffer write fallback
		var buf bytes.Buffer
		if writeErr := f.Write(&buf); writeErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), buffer write also failed: %w", err, writeErr)
		}

		if fileErr := os.WriteFile(outputPath, buf.Bytes(), 0644); fileErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), file write failed: %w", err, fileErr)
		}
	}

	return nil
}

// createSummarySheet creates the summary sheet with aggregate statistics
func createSummarySheet(f *excelize.File, sheetName string, rs *models.ResultSet, stats models.Stats) error {
	f.SetColWidth(sheetName, "A", "A", 25)
	f.SetColWidth(sheetName, "B", "B", 50)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}

	row := 1

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Resume Ranking Report")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
	f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	row += 2

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Received:")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), rs.ReceivedAt.Format("2006-01-02 15:04:05"))
	row++

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Exported:")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), time.Now().Format("2006-01-02 15:04:05"))
	row++

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Total Candidates:")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), stats.Total)
	row++

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Average Score:")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), fmt.Sprintf("%.1f", stats.AvgScore))
	row++

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Top Score:")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), stats.TopScore)
	row += 2

	// Badge distribution
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Score Distribution:")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
	f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	row++

	counts := map[models.Category]int{}
	for _, r := range rs.Results {
		counts[models.CategoryForScore(r.Score)]++
	}

	distribution := []struct {
		label    string
		category models.Category
	}{
		{"Excellent (80-100):", models.CategoryExcellent},
		{"Good (60-79):", models.CategoryGood},
		{"Fair (40-59):", models.CategoryFair},
		{"Poor (<40):", models.CategoryPoor},
	}

	for _, d := range distribution {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), d.label)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), counts[d.category])
		row++
	}

	return nil
}

// createRankedCandidatesSheet creates the ranked candidates sheet with color-coding
func createRankedCandidatesSheet(f *excelize.File, sheetName string, rs *models.ResultSet) error {
	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 30)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 14)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borderAll(),
	})
	if err != nil {
		return err
	}

	// One fill style per badge
	badgeStyles := make(map[models.Category]int, len(badgeFillColors))
	for category, color := range badgeFillColors {
		style, err := f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Border: borderAll(),
		})
		if err != nil {
			return err
		}
		badgeStyles[category] = style
	}

	headers := []string{"Rank", "Candidate", "Score", "Badge"}
	for col, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, result := range rs.Results {
		row := i + 2
		rank := result.Rank
		if rank == 0 {
			rank = i + 1
		}
		category := models.CategoryForScore(result.Score)

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), rank)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), result.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), result.Score)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), string(category))
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), badgeStyles[category])
	}

	return nil
}

// createDetailedAnalysisSheet creates the per-candidate assessment sheet
func createDetailedAnalysisSheet(f *excelize.File, sheetName string, rs *models.ResultSet) error {
	f.SetColWidth(sheetName, "A", "A", 30)
	f.SetColWidth(sheetName, "B", "B", 10)
	f.SetColWidth(sheetName, "C", "C", 45)
	f.SetColWidth(sheetName, "D", "D", 80)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borderAll(),
	})
	if err != nil {
		return err
	}

	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    borderAll(),
	})
	if err != nil {
		return err
	}

	headers := []string{"Candidate", "Score", "Assessment", "Explanation"}
	for col, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, result := range rs.Results {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), result.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), result.Score)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), result.Assessment)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), result.Explanation)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), wrapStyle)
	}

	return nil
}

// borderAll is the thin black border used on every data cell.
func borderAll() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}
