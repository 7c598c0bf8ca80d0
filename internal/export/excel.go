// Package export renders curriculum documents as Excel workbooks for
// printing and archiving.
package export

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sekolahku/kurikulum/internal/curriculum"
)

// Meta captures the workbook header: which school, class and period the
// exported document covers.
type Meta struct {
	SchoolName string
	Class      string
	Subject    string
	Semester   int
	Year       curriculum.AcademicYear
}

// SemesterProgram renders the semester program of one subject, one row per
// item with its allocated hours and assigned teaching dates, followed by the
// effective-weeks summary of the semester.
func SemesterProgram(meta Meta, items []curriculum.Item, weeks []curriculum.EffectiveWeeksRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Program Semester"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		return nil, err
	}

	row := writeMeta(f, sheet, meta)

	cols := []string{"No", "Tujuan Pembelajaran", "Topik", "Alokasi JP", "Jadwal"}
	widths := []float64{5, 50, 30, 12, 40}
	if err := writeHeader(f, sheet, row, cols, widths, headerStyle); err != nil {
		return nil, err
	}
	row++

	ordered := make([]curriculum.Item, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	for i, item := range ordered {
		dates := make([]string, 0, len(item.AssignedDates))
		for _, ref := range item.AssignedDates {
			dates = append(dates, fmt.Sprintf("%d %s", ref.Day, ref.Month))
		}
		setRow(f, sheet, row, []any{
			i + 1,
			item.ObjectiveText,
			item.TopicText,
			item.AllocatedHours,
			strings.Join(dates, ", "),
		})
		row++
	}

	row++ // blank separator
	if err := writeHeader(f, sheet, row, []string{"Bulan", "Jumlah Minggu", "Minggu Tidak Efektif", "Minggu Efektif", "Keterangan"}, nil, headerStyle); err != nil {
		return nil, err
	}
	row++

	for _, month := range curriculum.SemesterMonths(meta.Semester) {
		for _, rec := range weeks {
			if rec.Month != month {
				continue
			}
			setRow(f, sheet, row, []any{
				rec.Month,
				rec.TotalWeeks,
				rec.NonEffectiveWeeks,
				rec.EffectiveWeeks(),
				rec.Notes,
			})
			row++
			break
		}
	}

	return writeBuffer(f)
}

// Journal renders daily journal entries in date order.
func Journal(meta Meta, entries []curriculum.JournalEntry) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Jurnal Harian"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		return nil, err
	}

	row := writeMeta(f, sheet, meta)

	cols := []string{"No", "Tanggal", "Kelas", "Mata Pelajaran", "Topik", "Metode", "Catatan"}
	widths := []float64{5, 14, 8, 20, 40, 25, 40}
	if err := writeHeader(f, sheet, row, cols, widths, headerStyle); err != nil {
		return nil, err
	}
	row++

	ordered := make([]curriculum.JournalEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Date != ordered[j].Date {
			return ordered[i].Date < ordered[j].Date
		}
		return ordered[i].TopicText < ordered[j].TopicText
	})

	for i, entry := range ordered {
		setRow(f, sheet, row, []any{
			i + 1,
			entry.Date,
			entry.Class,
			entry.Subject,
			entry.TopicText,
			entry.PedagogyMethodText,
			entry.NarrativeText,
		})
		row++
	}

	return writeBuffer(f)
}

func newHeaderStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return 0, fmt.Errorf("creating header style: %w", err)
	}
	return style, nil
}

// writeMeta fills the workbook header block and returns the first free row.
func writeMeta(f *excelize.File, sheet string, meta Meta) int {
	lines := [][2]string{
		{"Sekolah", meta.SchoolName},
		{"Kelas", meta.Class},
		{"Mata Pelajaran", meta.Subject},
		{"Semester", fmt.Sprintf("%d", meta.Semester)},
		{"Tahun Ajaran", meta.Year.String()},
	}

	row := 1
	for _, line := range lines {
		if line[1] == "" {
			continue
		}
		f.SetCellValue(sheet, cell(1, row), line[0])
		f.SetCellValue(sheet, cell(2, row), line[1])
		row++
	}
	return row + 1
}

func writeHeader(f *excelize.File, sheet string, row int, cols []string, widths []float64, style int) error {
	for i, name := range cols {
		c := cell(i+1, row)
		f.SetCellValue(sheet, c, name)
		if err := f.SetCellStyle(sheet, c, c, style); err != nil {
			return fmt.Errorf("styling header: %w", err)
		}
	}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		f.SetCellValue(sheet, cell(i+1, row), v)
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writeBuffer(f *excelize.File) (*bytes.Buffer, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf, nil
}
