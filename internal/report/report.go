// Package report renders analytics results as XLSX workbooks.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-insights/internal/analytics"
)

// ContentType is the MIME type of the workbooks written by this package.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names.
const (
	SheetOverview    = "Overview"
	SheetEmotions    = "Emotions"
	SheetRisks       = "Behavior Risks"
	SheetWeekly      = "Weekly Trend"
	SheetSummary     = "Summary"
	SheetSubjects    = "Subjects"
	SheetTracking    = "Tracking"
	SheetActivity    = "Activity Split"
	SheetActivityLog = "Activity Log"
)

// WriteClassSummary writes a class summary workbook to w.
func WriteClassSummary(w io.Writer, s analytics.CohortSummary) error {
	wb, err := newWorkbook()
	if err != nil {
		return err
	}
	defer wb.close()

	if err := wb.table(SheetOverview, []string{"Metric", "Value"}, [][]any{
		{"Average Score", s.AverageScore},
		{"Positive Emotion Ratio (%)", s.PositiveEmotionRatio},
		{"High Risk Percentage (%)", s.HighRiskPercentage},
	}); err != nil {
		return err
	}

	moods := make([][]any, 0, len(s.EmotionalDistribution))
	for _, m := range s.EmotionalDistribution {
		moods = append(moods, []any{m.Mood, m.Value})
	}
	if err := wb.table(SheetEmotions, []string{"Mood", "Students"}, moods); err != nil {
		return err
	}

	risks := make([][]any, 0, len(s.BehaviorRisks))
	for _, r := range s.BehaviorRisks {
		risks = append(risks, []any{r.Type, r.Value})
	}
	if err := wb.table(SheetRisks, []string{"Risk", "Students"}, risks); err != nil {
		return err
	}

	weeks := make([][]any, 0, len(s.WeeklyTrend))
	for _, ws := range s.WeeklyTrend {
		weeks = append(weeks, []any{ws.Week, ws.AverageScore})
	}
	if err := wb.table(SheetWeekly, []string{"Week", "Average Score"}, weeks); err != nil {
		return err
	}

	return wb.write(w)
}

// WriteParentReport writes one student's periodic report to w.
func WriteParentReport(w io.Writer, studentName string, r analytics.Report) error {
	wb, err := newWorkbook()
	if err != nil {
		return err
	}
	defer wb.close()

	if err := wb.table(SheetSummary, []string{"Field", "Value"}, [][]any{
		{"Student", studentName},
		{"Period", string(r.Period)},
		{"From", r.From.Format(time.DateOnly)},
		{"To", r.To.Format(time.DateOnly)},
		{"Average Score", r.Academics.AverageScore},
		{"Mood Risk Level", r.Mood.RiskLevel},
		{"Mood Risk Score", r.Mood.RiskScore},
	}); err != nil {
		return err
	}

	subjects := make([][]any, 0, len(r.Academics.Subjects))
	for _, s := range r.Academics.Subjects {
		subjects = append(subjects, []any{s.Topic, s.Accuracy})
	}
	if err := wb.table(SheetSubjects, []string{"Subject", "Accuracy"}, subjects); err != nil {
		return err
	}

	a, g := r.Academics.Assignments, r.Goals
	if err := wb.table(SheetTracking, []string{"Item", "Total", "Completed", "Pending", "Overdue"}, [][]any{
		{"Assignments", a.Total, a.Completed, a.Pending, a.Overdue},
		{"Goals", g.Total, g.Completed, g.Pending, g.Overdue},
	}); err != nil {
		return err
	}

	categories := make([]string, 0, len(r.ActivityPercent))
	for c := range r.ActivityPercent {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	split := make([][]any, 0, len(categories))
	for _, c := range categories {
		split = append(split, []any{c, r.ActivityPercent[c]})
	}
	if err := wb.table(SheetActivity, []string{"Category", "Percent"}, split); err != nil {
		return err
	}

	log := make([][]any, 0, len(r.Activities))
	for _, act := range r.Activities {
		log = append(log, []any{act.CreatedAt.Format(time.DateOnly), act.Title, act.Category, act.TimeSpent})
	}
	if err := wb.table(SheetActivityLog, []string{"Date", "Title", "Category", "Minutes"}, log); err != nil {
		return err
	}

	return wb.write(w)
}

// workbook tracks whether the default sheet has been claimed yet.
type workbook struct {
	f      *excelize.File
	header int
	used   bool
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	return &workbook{f: f, header: header}, nil
}

// table writes a bold header row and rows to a new sheet.
func (wb *workbook) table(sheet string, header []string, rows [][]any) error {
	if !wb.used {
		if err := wb.f.SetSheetName(wb.f.GetSheetName(0), sheet); err != nil {
			return fmt.Errorf("naming sheet %s: %w", sheet, err)
		}
		wb.used = true
	} else if _, err := wb.f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}

	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := wb.f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	if err := wb.f.SetCellStyle(sheet, "A1", last, wb.header); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
		if err := wb.f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("sizing %s columns: %w", sheet, err)
	}
	if err := wb.f.SetColWidth(sheet, "A", lastCol, 22); err != nil {
		return fmt.Errorf("sizing %s columns: %w", sheet, err)
	}
	return nil
}

func (wb *workbook) write(w io.Writer) error {
	wb.f.SetActiveSheet(0)
	if _, err := wb.f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func (wb *workbook) close() {
	_ = wb.f.Close()
}
