package access

import (
	"github.com/Spok95/mindurmind/internal/analytics"
	"github.com/Spok95/mindurmind/internal/models"
	"github.com/Spok95/mindurmind/internal/store"
)

// Окна агрегации. Значения исторические, завязаны на вид страниц.
const (
	StudentWindow     = 7   // личные тренды ученика
	ParentAvgWindow   = 14  // средние для родительской сводки
	ParentChartWindow = 10  // точки родительских графиков
	ParentCauseWindow = 20  // окно подсчёта причин для родителя
	ParentTopCauses   = 6
	SchoolWindow      = 200 // свежие записи в школьных агрегатах
	SchoolTrendDates  = 10
	SchoolTopThemes   = 8
	JournalPageSize   = 10
)

// Родительские и школьные DTO закрыты по построению: полей text/gratitude/note
// в них просто нет, поэтому приватное содержимое не может утечь структурно.

type MoodPoint struct {
	Date      string `json:"date"`
	Mood      int    `json:"mood"`
	Intensity int    `json:"intensity"`
	Cause     string `json:"cause,omitempty"`
}

type SleepPoint struct {
	Date    string  `json:"date"`
	Hours   float64 `json:"hours"`
	Quality string  `json:"quality"`
}

// StudentOverview — дашборд ученика: свои сырые последние записи и состояние связей.
type StudentOverview struct {
	LatestMood      *models.MoodLog      `json:"latestMood"`
	LatestSleep     *models.SleepLog     `json:"latestSleep"`
	MoodBadge       string               `json:"moodBadge"`
	TotalLogs       int                  `json:"totalLogs"`
	JournalCount    int                  `json:"journalCount"`
	Pending         []models.LinkRequest `json:"pending"`
	ApprovedParents []string             `json:"approvedParents"`
}

// StudentInsights — личные тренды за последние записи.
type StudentInsights struct {
	MoodSeries   []models.MoodLog  `json:"moodSeries"`
	SleepSeries  []models.SleepLog `json:"sleepSeries"`
	JournalCount int               `json:"journalCount"`
}

// StudentLinks — страница «Parent access».
type StudentLinks struct {
	Pending         []models.LinkRequest `json:"pending"`
	ApprovedParents []string             `json:"approvedParents"`
}

// ParentChildView — сводка по связанному ребёнку. Только произв. показатели.
type ParentChildView struct {
	StudentName   string                    `json:"studentName"`
	Grade         string                    `json:"grade"`
	School        string                    `json:"school"`
	Status        string                    `json:"status"`
	AvgMood       *float64                  `json:"avgMood"`
	AvgSleepHours *float64                  `json:"avgSleepHours"`
	MoodSeries    []MoodPoint               `json:"moodSeries"`
	SleepSeries   []SleepPoint              `json:"sleepSeries"`
	TopCauses     []analytics.CategoryCount `json:"topCauses"`
}

// LinkedChild — строка таблицы «Linked children» у родителя.
type LinkedChild struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	Grade     string `json:"grade"`
	School    string `json:"school"`
}

type ParentLinks struct {
	Pending []models.LinkRequest `json:"pending"`
	Linked  []LinkedChild        `json:"linked"`
}

// SchoolInsights — только счётчики, средние и распределения. Без идентичностей.
type SchoolInsights struct {
	Students         int                       `json:"students"`
	MoodCheckins     int                       `json:"moodCheckins"`
	AvgSleepHours    *float64                  `json:"avgSleepHours"`
	MoodDistribution [5]int                    `json:"moodDistribution"`
	SleepTrendDates  []string                  `json:"sleepTrendDates"`
	SleepTrendAvgs   []float64                 `json:"sleepTrendAvgs"`
	TopThemes        []analytics.CategoryCount `json:"topThemes"`
	Actions          []string                  `json:"actions"`
}

// StudentExport — сырые данные ученика для выгрузки, доступна только ему самому.
type StudentExport struct {
	Student models.Student
	Mood    []models.MoodLog
	Sleep   []models.SleepLog
	Journal []models.JournalEntry
}

func BuildStudentOverview(st *store.Store, sess models.Session, studentID string) (*StudentOverview, error) {
	if err := studentScope(sess, studentID); err != nil {
		return nil, err
	}
	var out *StudentOverview
	st.View(func(ds *models.Dataset) {
		v := &StudentOverview{
			LatestMood:  analytics.LastMood(ds.Logs.Mood, studentID),
			LatestSleep: analytics.LastSleep(ds.Logs.Sleep, studentID),
			TotalLogs:   analytics.TotalLogs(ds.Logs.Mood, ds.Logs.Sleep, studentID),
		}
		v.MoodBadge = "—"
		if v.LatestMood != nil {
			v.MoodBadge = analytics.MoodLabel(v.LatestMood.Mood)
		}
		for _, j := range ds.Logs.Journal {
			if j.StudentID == studentID {
				v.JournalCount++
			}
		}
		v.Pending, v.ApprovedParents = linkStateForStudent(ds, studentID)
		out = v
	})
	return out, nil
}

func BuildStudentInsights(st *store.Store, sess models.Session, studentID string) (*StudentInsights, error) {
	if err := studentScope(sess, studentID); err != nil {
		return nil, err
	}
	var out *StudentInsights
	st.View(func(ds *models.Dataset) {
		v := &StudentInsights{
			MoodSeries:  analytics.MoodWindow(ds.Logs.Mood, studentID, StudentWindow),
			SleepSeries: analytics.SleepWindow(ds.Logs.Sleep, studentID, StudentWindow),
		}
		for _, j := range ds.Logs.Journal {
			if j.StudentID == studentID {
				v.JournalCount++
			}
		}
		out = v
	})
	return out, nil
}

func BuildStudentLinks(st *store.Store, sess models.Session, studentID string) (*StudentLinks, error) {
	if err := studentScope(sess, studentID); err != nil {
		return nil, err
	}
	var out *StudentLinks
	st.View(func(ds *models.Dataset) {
		v := &StudentLinks{}
		v.Pending, v.ApprovedParents = linkStateForStudent(ds, studentID)
		out = v
	})
	return out, nil
}

// BuildStudentJournal — единственный путь, которым содержимое журнала покидает ядро.
func BuildStudentJournal(st *store.Store, sess models.Session, studentID string, limit int) ([]models.JournalEntry, error) {
	if err := studentScope(sess, studentID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = JournalPageSize
	}
	var out []models.JournalEntry
	st.View(func(ds *models.Dataset) {
		for _, j := range ds.Logs.Journal {
			if j.StudentID != studentID {
				continue
			}
			out = append(out, j)
			if len(out) == limit {
				break
			}
		}
	})
	return out, nil
}

func BuildStudentExport(st *store.Store, sess models.Session, studentID string) (*StudentExport, error) {
	if err := studentScope(sess, studentID); err != nil {
		return nil, err
	}
	var out *StudentExport
	st.View(func(ds *models.Dataset) {
		v := &StudentExport{Student: ds.Students[studentID]}
		v.Mood = analytics.FilterMoodByStudent(ds.Logs.Mood, studentID)
		v.Sleep = analytics.FilterSleepByStudent(ds.Logs.Sleep, studentID)
		for _, j := range ds.Logs.Journal {
			if j.StudentID == studentID {
				v.Journal = append(v.Journal, j)
			}
		}
		out = v
	})
	return out, nil
}

// BuildParentChildView строит сводку только для связанного ученика.
func BuildParentChildView(st *store.Store, sess models.Session, studentID string) (*ParentChildView, error) {
	var out *ParentChildView
	var scopeErr error
	st.View(func(ds *models.Dataset) {
		if scopeErr = parentScope(ds, sess, studentID); scopeErr != nil {
			return
		}
		student := ds.Students[studentID]

		moods := analytics.MoodWindow(ds.Logs.Mood, studentID, ParentAvgWindow)
		sleeps := analytics.SleepWindow(ds.Logs.Sleep, studentID, ParentAvgWindow)
		avgMood := analytics.AvgMood(moods)

		v := &ParentChildView{
			StudentName:   student.Name,
			Grade:         student.Grade,
			School:        student.School,
			Status:        analytics.MoodStatusLabel(avgMood),
			AvgMood:       avgMood,
			AvgSleepHours: analytics.AvgSleepHours(sleeps),
		}
		for _, m := range analytics.Tail(moods, ParentChartWindow) {
			v.MoodSeries = append(v.MoodSeries, MoodPoint{
				Date: m.Date, Mood: m.Mood, Intensity: m.Intensity, Cause: m.Cause,
			})
		}
		for _, s := range analytics.Tail(sleeps, ParentChartWindow) {
			v.SleepSeries = append(v.SleepSeries, SleepPoint{
				Date: s.Date, Hours: s.Hours, Quality: s.Quality,
			})
		}
		causes := analytics.CategoryCounts(
			analytics.FilterMoodByStudent(ds.Logs.Mood, studentID), ParentCauseWindow)
		v.TopCauses = analytics.TopCategories(causes, ParentTopCauses)
		out = v
	})
	if scopeErr != nil {
		return nil, scopeErr
	}
	return out, nil
}

func BuildParentLinks(st *store.Store, sess models.Session) (*ParentLinks, error) {
	if sess.Role != models.RoleParent || sess.ParentID == "" {
		return nil, ErrForbiddenScope
	}
	var out *ParentLinks
	st.View(func(ds *models.Dataset) {
		v := &ParentLinks{}
		for _, p := range ds.Links.Pending {
			if p.ParentID == sess.ParentID {
				v.Pending = append(v.Pending, p)
			}
		}
		for _, id := range ds.Links.ParentToStudents[sess.ParentID] {
			s, ok := ds.Students[id]
			if !ok {
				continue // осиротевшая связь: запись ученика исчезла
			}
			v.Linked = append(v.Linked, LinkedChild{
				StudentID: s.ID, Name: s.Name, Grade: s.Grade, School: s.School,
			})
		}
		out = v
	})
	return out, nil
}

// BuildSchoolInsights — агрегаты по ученикам с точно совпавшим названием школы.
func BuildSchoolInsights(st *store.Store, sess models.Session) (*SchoolInsights, error) {
	var out *SchoolInsights
	var scopeErr error
	st.View(func(ds *models.Dataset) {
		ids, err := schoolScope(ds, sess)
		if err != nil {
			scopeErr = err
			return
		}
		moods := analytics.Tail(analytics.FilterMoodByStudents(ds.Logs.Mood, ids), SchoolWindow)
		sleeps := analytics.Tail(analytics.FilterSleepByStudents(ds.Logs.Sleep, ids), SchoolWindow)

		v := &SchoolInsights{
			Students:         len(ids),
			MoodCheckins:     len(moods),
			AvgSleepHours:    analytics.AvgSleepHours(sleeps),
			MoodDistribution: analytics.MoodDistribution(moods),
		}
		v.SleepTrendDates, v.SleepTrendAvgs = analytics.SleepByDate(sleeps, SchoolTrendDates)
		themes := analytics.CategoryCounts(moods, SchoolWindow)
		v.TopThemes = analytics.TopCategories(themes, SchoolTopThemes)
		v.Actions = analytics.RecommendedActions(themes)
		out = v
	})
	if scopeErr != nil {
		return nil, scopeErr
	}
	return out, nil
}

func linkStateForStudent(ds *models.Dataset, studentID string) (pending []models.LinkRequest, approved []string) {
	email := ds.Students[studentID].Email
	for _, p := range ds.Links.Pending {
		if p.StudentEmail == email {
			pending = append(pending, p)
		}
	}
	for pid, ids := range ds.Links.ParentToStudents {
		for _, id := range ids {
			if id == studentID {
				if parent, ok := ds.Parents[pid]; ok {
					approved = append(approved, parent.Email)
				} else {
					approved = append(approved, pid)
				}
				break
			}
		}
	}
	return pending, approved
}
