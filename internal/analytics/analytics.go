package analytics

import (
	"sort"

	"github.com/Spok95/mindurmind/internal/models"
)

// Чистые функции над журналами. Порядок вставки считается хронологическим:
// записи append-only и датируются днём внесения, поэтому "последние n" —
// это хвост среза, без сортировки по дате.

func FilterMoodByStudent(logs []models.MoodLog, studentID string) []models.MoodLog {
	var out []models.MoodLog
	for _, l := range logs {
		if l.StudentID == studentID {
			out = append(out, l)
		}
	}
	return out
}

func FilterMoodByStudents(logs []models.MoodLog, ids []string) []models.MoodLog {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	var out []models.MoodLog
	for _, l := range logs {
		if _, ok := set[l.StudentID]; ok {
			out = append(out, l)
		}
	}
	return out
}

func FilterSleepByStudent(logs []models.SleepLog, studentID string) []models.SleepLog {
	var out []models.SleepLog
	for _, l := range logs {
		if l.StudentID == studentID {
			out = append(out, l)
		}
	}
	return out
}

func FilterSleepByStudents(logs []models.SleepLog, ids []string) []models.SleepLog {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	var out []models.SleepLog
	for _, l := range logs {
		if _, ok := set[l.StudentID]; ok {
			out = append(out, l)
		}
	}
	return out
}

// LastMood — последняя по порядку вставки запись ученика, nil если записей нет.
func LastMood(logs []models.MoodLog, studentID string) *models.MoodLog {
	own := FilterMoodByStudent(logs, studentID)
	if len(own) == 0 {
		return nil
	}
	return &own[len(own)-1]
}

func LastSleep(logs []models.SleepLog, studentID string) *models.SleepLog {
	own := FilterSleepByStudent(logs, studentID)
	if len(own) == 0 {
		return nil
	}
	return &own[len(own)-1]
}

// MoodWindow — последние n записей ученика в порядке вставки.
func MoodWindow(logs []models.MoodLog, studentID string, n int) []models.MoodLog {
	return Tail(FilterMoodByStudent(logs, studentID), n)
}

func SleepWindow(logs []models.SleepLog, studentID string, n int) []models.SleepLog {
	return Tail(FilterSleepByStudent(logs, studentID), n)
}

// AvgMood — среднее арифметическое; nil на пустом входе.
// Вызывающий обязан рисовать заглушку, а не трактовать nil как 0.
func AvgMood(entries []models.MoodLog) *float64 {
	if len(entries) == 0 {
		return nil
	}
	sum := 0.0
	for _, e := range entries {
		sum += float64(e.Mood)
	}
	avg := sum / float64(len(entries))
	return &avg
}

func AvgSleepHours(entries []models.SleepLog) *float64 {
	if len(entries) == 0 {
		return nil
	}
	sum := 0.0
	for _, e := range entries {
		sum += e.Hours
	}
	avg := sum / float64(len(entries))
	return &avg
}

// CategoryCounts считает непустые причины по последним limit записям.
// Пустая причина исключается целиком, а не считается как "не указано".
func CategoryCounts(entries []models.MoodLog, limit int) map[string]int {
	counts := map[string]int{}
	for _, e := range Tail(entries, limit) {
		if e.Cause == "" {
			continue
		}
		counts[e.Cause]++
	}
	return counts
}

// TopCategories — пары (причина, счёт) по убыванию счёта; при равенстве — по имени.
type CategoryCount struct {
	Cause string `json:"cause"`
	Count int    `json:"count"`
}

func TopCategories(counts map[string]int, n int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, CategoryCount{Cause: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Cause < out[j].Cause
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SleepByDate группирует сон по дате и возвращает последние n различных дат
// по возрастанию вместе со средними часами за каждую дату.
func SleepByDate(logs []models.SleepLog, n int) (dates []string, averages []float64) {
	byDate := map[string][]float64{}
	for _, l := range logs {
		byDate[l.Date] = append(byDate[l.Date], l.Hours)
	}
	all := make([]string, 0, len(byDate))
	for d := range byDate {
		all = append(all, d)
	}
	sort.Strings(all)
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	for _, d := range all {
		sum := 0.0
		for _, h := range byDate[d] {
			sum += h
		}
		dates = append(dates, d)
		averages = append(averages, sum/float64(len(byDate[d])))
	}
	return dates, averages
}

// MoodDistribution — счётчики по оценкам 1..5 (индекс = оценка-1).
func MoodDistribution(entries []models.MoodLog) [5]int {
	var dist [5]int
	for _, e := range entries {
		if e.Mood >= 1 && e.Mood <= 5 {
			dist[e.Mood-1]++
		}
	}
	return dist
}

// MoodStatusLabel переводит средний балл в метку. Пороги — включающие нижние
// границы, граничные значения уходят в верхнюю полосу.
func MoodStatusLabel(avg *float64) string {
	switch {
	case avg == nil:
		return "—"
	case *avg >= 4:
		return "Doing well"
	case *avg >= 3:
		return "Okay"
	default:
		return "Needs support"
	}
}

// TotalLogs — mood + sleep ученика (KPI «Progress» на дашборде).
func TotalLogs(moods []models.MoodLog, sleeps []models.SleepLog, studentID string) int {
	return len(FilterMoodByStudent(moods, studentID)) + len(FilterSleepByStudent(sleeps, studentID))
}

// Tail — последние n элементов среза (весь срез, если n <= 0 или длина меньше).
func Tail[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
