package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/mindurmind/internal/access"
)

// Выгрузки строятся поверх уже прошедших гейт данных: сюда попадает либо
// StudentExport (сырые записи самого ученика), либо SchoolInsights (агрегаты).

// StudentWorkbook — личная выгрузка ученика: настроение, сон, журнал.
func StudentWorkbook(exp *access.StudentExport) (*excelize.File, error) {
	moodRows := make([][]string, 0, len(exp.Mood))
	for _, m := range exp.Mood {
		moodRows = append(moodRows, []string{
			m.Date, strconv.Itoa(m.Mood), strconv.Itoa(m.Intensity), m.Cause, m.Note,
		})
	}
	sleepRows := make([][]string, 0, len(exp.Sleep))
	for _, s := range exp.Sleep {
		sleepRows = append(sleepRows, []string{
			s.Date, strconv.FormatFloat(s.Hours, 'f', 1, 64), s.Quality,
		})
	}
	journalRows := make([][]string, 0, len(exp.Journal))
	for _, j := range exp.Journal {
		journalRows = append(journalRows, []string{j.Date, j.Text, j.Gratitude})
	}

	return BuildWorkbook([]SheetSpec{
		{
			Title:  "Mood",
			Header: []string{"Date", "Mood (1-5)", "Intensity (1-5)", "Cause", "Note"},
			Rows:   moodRows,
		},
		{
			Title:  "Sleep",
			Header: []string{"Date", "Hours", "Quality"},
			Rows:   sleepRows,
		},
		{
			Title:  "Journal",
			Header: []string{"Date", "Entry", "Gratitude"},
			Rows:   journalRows,
		},
	})
}

// SchoolWorkbook — агрегированный отчёт школы. В строках нет ни одного
// идентификатора ученика: только распределения, средние и темы.
func SchoolWorkbook(schoolName string, ins *access.SchoolInsights) (*excelize.File, error) {
	overviewRows := [][]string{
		{"Students", strconv.Itoa(ins.Students)},
		{"Mood check-ins", strconv.Itoa(ins.MoodCheckins)},
		{"Avg sleep (hours)", formatAvg(ins.AvgSleepHours)},
	}

	distRows := make([][]string, 0, 5)
	for score, count := range ins.MoodDistribution {
		distRows = append(distRows, []string{strconv.Itoa(score + 1), strconv.Itoa(count)})
	}

	trendRows := make([][]string, 0, len(ins.SleepTrendDates))
	for i, d := range ins.SleepTrendDates {
		trendRows = append(trendRows, []string{
			d, strconv.FormatFloat(ins.SleepTrendAvgs[i], 'f', 1, 64),
		})
	}

	themeRows := make([][]string, 0, len(ins.TopThemes))
	for _, t := range ins.TopThemes {
		themeRows = append(themeRows, []string{t.Cause, strconv.Itoa(t.Count)})
	}

	return BuildWorkbook([]SheetSpec{
		{
			Title:  "Overview",
			Header: []string{"Metric", fmt.Sprintf("Value (%s)", schoolName)},
			Rows:   overviewRows,
		},
		{
			Title:  "Mood distribution",
			Header: []string{"Score", "Check-ins"},
			Rows:   distRows,
		},
		{
			Title:  "Sleep trend",
			Header: []string{"Date", "Avg hours"},
			Rows:   trendRows,
		},
		{
			Title:  "Themes",
			Header: []string{"Theme", "Count"},
			Rows:   themeRows,
		},
	})
}

func formatAvg(v *float64) string {
	if v == nil {
		return "—"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
