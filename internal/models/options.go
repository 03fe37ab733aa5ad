package models

// Списки вариантов из форм. Ядро их не навязывает (свободные строки),
// но презентационный слой и отчёты опираются на эти константы.

// CauseNone — значение "ничего не выбрано" в селекторе причины.
const CauseNone = "Choose…"

var MoodCauses = []string{
	"Exams / homework",
	"Friendship / peer pressure",
	"Family",
	"Health / tired",
	"Sports / activities",
	"Online / social media",
	"Other",
}

var SleepQualities = []string{"Great", "Okay", "Not good"}

var Grades = []string{
	"Grade 4", "Grade 5", "Grade 6", "Grade 7", "Grade 8",
	"Grade 9", "Grade 10", "Grade 11", "Grade 12",
}
