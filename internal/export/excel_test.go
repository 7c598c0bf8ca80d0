package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/sekolahku/kurikulum/internal/curriculum"
)

var testMeta = Meta{
	SchoolName: "SD Negeri 1 Contoh",
	Class:      "5",
	Subject:    "Matematika",
	Semester:   1,
	Year:       curriculum.AcademicYear{First: 2024, Second: 2025},
}

func openWorkbook(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestSemesterProgram(t *testing.T) {
	items := []curriculum.Item{
		{
			ObjectiveText: "Memahami pecahan", TopicText: "Pecahan",
			AllocatedHours: 4, OrderIndex: 2,
			AssignedDates: []curriculum.DateRef{{Month: "Juli", Week: 1, Day: 1}},
		},
		{
			ObjectiveText: "Mengenal bilangan", TopicText: "Bilangan",
			AllocatedHours: 2, OrderIndex: 1,
		},
	}
	weeks := []curriculum.EffectiveWeeksRecord{
		{Month: "Juli", TotalWeeks: 5, NonEffectiveWeeks: 1, Notes: "Libur awal tahun"},
	}

	buf, err := SemesterProgram(testMeta, items, weeks)
	if err != nil {
		t.Fatalf("SemesterProgram() error = %v", err)
	}

	f := openWorkbook(t, buf)

	rows, err := f.GetRows("Program Semester")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}

	flat := flatten(rows)
	for _, want := range []string{
		"SD Negeri 1 Contoh", "2024/2025",
		"Tujuan Pembelajaran", "Memahami pecahan", "Mengenal bilangan",
		"1 Juli", "Libur awal tahun",
	} {
		if !contains(flat, want) {
			t.Errorf("workbook does not contain %q", want)
		}
	}

	// Items render in OrderIndex order.
	bilangan, pecahan := indexOf(flat, "Mengenal bilangan"), indexOf(flat, "Memahami pecahan")
	if bilangan > pecahan {
		t.Error("items are not ordered by their order index")
	}
}

func TestJournal(t *testing.T) {
	entries := []curriculum.JournalEntry{
		{Date: "2024-07-14", Class: "5", Subject: "Matematika", TopicText: "Pecahan (Meeting 2)"},
		{Date: "2024-07-07", Class: "5", Subject: "Matematika", TopicText: "Pecahan (Meeting 1)", PedagogyMethodText: "Diskusi"},
	}

	buf, err := Journal(testMeta, entries)
	if err != nil {
		t.Fatalf("Journal() error = %v", err)
	}

	f := openWorkbook(t, buf)

	rows, err := f.GetRows("Jurnal Harian")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}

	flat := flatten(rows)
	if !contains(flat, "Diskusi") {
		t.Error("pedagogy column missing")
	}
	if indexOf(flat, "2024-07-07") > indexOf(flat, "2024-07-14") {
		t.Error("entries are not in date order")
	}
}

func TestSemesterProgram_EmptyInput(t *testing.T) {
	buf, err := SemesterProgram(testMeta, nil, nil)
	if err != nil {
		t.Fatalf("SemesterProgram() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("empty input should still produce a workbook")
	}
}

func flatten(rows [][]string) []string {
	var out []string
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}

func contains(cells []string, want string) bool {
	return indexOf(cells, want) >= 0
}

func indexOf(cells []string, want string) int {
	for i, c := range cells {
		if c == want {
			return i
		}
	}
	return -1
}
