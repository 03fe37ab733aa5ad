package models

import "time"

// Версия схемы персистентного блоба. Поднимаем при несовместимых изменениях.
const DatasetVersion = 2

type Student struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Grade     string    `json:"grade"`
	School    string    `json:"school"`
	CreatedAt time.Time `json:"createdAt"`
}

type Parent struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// School — не полноценная сущность, а ключ-ведро для агрегации.
// Сопоставление идёт по точному совпадению строки (см. известные ограничения).
type School struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type MoodLog struct {
	StudentID string `json:"studentId"`
	Date      string `json:"date"` // YYYY-MM-DD, день внесения записи
	Mood      int    `json:"mood"`
	Intensity int    `json:"intensity"`
	Cause     string `json:"cause"`
	Note      string `json:"note,omitempty"` // приватное содержимое, за пределы student-роли не выходит
}

type SleepLog struct {
	StudentID string  `json:"studentId"`
	Date      string  `json:"date"`
	Hours     float64 `json:"hours"`
	Quality   string  `json:"quality"`
}

type JournalEntry struct {
	StudentID string `json:"studentId"`
	Date      string `json:"date"`
	Text      string `json:"text"`
	Gratitude string `json:"gratitude"`
}

// LinkRequest живёт только в состоянии PENDING: одобрение или отклонение удаляет его.
type LinkRequest struct {
	ID           string    `json:"id"`
	ParentID     string    `json:"parentId"`
	ParentEmail  string    `json:"parentEmail"`
	StudentEmail string    `json:"studentEmail"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Logs struct {
	Mood    []MoodLog      `json:"mood"`
	Sleep   []SleepLog     `json:"sleep"`
	Journal []JournalEntry `json:"journal"`
}

type Links struct {
	// parentId -> studentId[] в порядке добавления, без дублей.
	ParentToStudents map[string][]string `json:"parentToStudents"`
	Pending          []LinkRequest       `json:"pending"`
}

// Dataset — весь персистентный набор данных целиком. Читается и пишется одним блобом.
type Dataset struct {
	Version  int                `json:"version"`
	Students map[string]Student `json:"students"`
	Parents  map[string]Parent  `json:"parents"`
	Schools  map[string]School  `json:"schools"`
	Logs     Logs               `json:"logs"`
	Links    Links              `json:"links"`
}

// Seed возвращает пустой валидный Dataset: все коллекции присутствуют.
func Seed() *Dataset {
	return &Dataset{
		Version:  DatasetVersion,
		Students: map[string]Student{},
		Parents:  map[string]Parent{},
		Schools:  map[string]School{},
		Logs:     Logs{Mood: []MoodLog{}, Sleep: []SleepLog{}, Journal: []JournalEntry{}},
		Links:    Links{ParentToStudents: map[string][]string{}, Pending: []LinkRequest{}},
	}
}

// Normalize дозаполняет отсутствующие коллекции после загрузки старого блоба.
// Отсутствующий ключ верхнего уровня — не ошибка, а forward-compat умолчание.
func (d *Dataset) Normalize() {
	if d.Version == 0 {
		d.Version = DatasetVersion
	}
	if d.Students == nil {
		d.Students = map[string]Student{}
	}
	if d.Parents == nil {
		d.Parents = map[string]Parent{}
	}
	if d.Schools == nil {
		d.Schools = map[string]School{}
	}
	if d.Logs.Mood == nil {
		d.Logs.Mood = []MoodLog{}
	}
	if d.Logs.Sleep == nil {
		d.Logs.Sleep = []SleepLog{}
	}
	if d.Logs.Journal == nil {
		d.Logs.Journal = []JournalEntry{}
	}
	if d.Links.ParentToStudents == nil {
		d.Links.ParentToStudents = map[string][]string{}
	}
	if d.Links.Pending == nil {
		d.Links.Pending = []LinkRequest{}
	}
}

// StudentByEmail ищет ученика по уже нормализованному email.
func (d *Dataset) StudentByEmail(email string) (Student, bool) {
	for _, s := range d.Students {
		if s.Email == email {
			return s, true
		}
	}
	return Student{}, false
}

func (d *Dataset) ParentByEmail(email string) (Parent, bool) {
	for _, p := range d.Parents {
		if p.Email == email {
			return p, true
		}
	}
	return Parent{}, false
}

// StudentIDsBySchool — ученики, указавшие ровно такое название школы.
// Сопоставление регистрозависимое, по точному совпадению строки.
func (d *Dataset) StudentIDsBySchool(school string) []string {
	var ids []string
	for _, s := range d.Students {
		if s.School == school {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
