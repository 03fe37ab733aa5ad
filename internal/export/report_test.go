package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/mindurmind/internal/access"
	"github.com/Spok95/mindurmind/internal/models"
)

func reopen(t *testing.T, f *excelize.File) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	re, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	return re
}

func TestStudentWorkbook(t *testing.T) {
	exp := &access.StudentExport{
		Student: models.Student{ID: "stu_1", Name: "Kid"},
		Mood: []models.MoodLog{
			{Date: "2026-08-01", Mood: 4, Intensity: 2, Cause: "Exams", Note: "tough day"},
		},
		Sleep: []models.SleepLog{
			{Date: "2026-08-01", Hours: 7.5, Quality: "Good"},
		},
		Journal: []models.JournalEntry{
			{Date: "2026-08-01", Text: "dear diary", Gratitude: "friends"},
		},
	}

	f, err := StudentWorkbook(exp)
	if err != nil {
		t.Fatal(err)
	}
	re := reopen(t, f)

	for _, sheet := range []string{"Mood", "Sleep", "Journal"} {
		idx, err := re.GetSheetIndex(sheet)
		if err != nil || idx < 0 {
			t.Fatalf("лист %s не найден (idx=%d, err=%v)", sheet, idx, err)
		}
	}

	got, err := re.GetCellValue("Mood", "A2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "2026-08-01" {
		t.Fatalf("ожидали дату в A2, получили %q", got)
	}
	note, err := re.GetCellValue("Mood", "E2")
	if err != nil {
		t.Fatal(err)
	}
	// личная выгрузка ученика содержит его заметки
	if note != "tough day" {
		t.Fatalf("заметка в выгрузке ученика: %q", note)
	}
}

func TestSchoolWorkbookNoIdentities(t *testing.T) {
	avg := 7.2
	ins := &access.SchoolInsights{
		Students:         3,
		MoodCheckins:     5,
		AvgSleepHours:    &avg,
		MoodDistribution: [5]int{0, 1, 2, 1, 1},
		SleepTrendDates:  []string{"2026-08-01"},
		SleepTrendAvgs:   []float64{7.2},
	}

	f, err := SchoolWorkbook("School #1", ins)
	if err != nil {
		t.Fatal(err)
	}
	re := reopen(t, f)

	got, err := re.GetCellValue("Overview", "B2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "3" {
		t.Fatalf("число учеников в отчёте: %q", got)
	}

	rows, err := re.GetRows("Mood distribution")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 6 {
		t.Fatalf("ожидали заголовок + 5 строк распределения, получили %d", len(rows))
	}
}

func TestColName(t *testing.T) {
	cases := map[int]string{1: "A", 2: "B", 26: "Z", 27: "AA", 28: "AB"}
	for n, want := range cases {
		if got := colName(n); got != want {
			t.Fatalf("colName(%d): ожидали %s, получили %s", n, want, got)
		}
	}
}
