package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Spok95/mindurmind/internal/metrics"
	"github.com/Spok95/mindurmind/internal/models"
	"github.com/Spok95/mindurmind/internal/store"
)

// ErrValidation — обязательное поле отсутствует или пустое; вызывающий
// перезапрашивает ввод. Тексты совпадают с подсказками форм.
var ErrValidation = errors.New("validation")

// Recorder пишет журналы самочувствия текущего ученика.
// Дата записи — календарный день внесения в настроенной таймзоне,
// пользователь её не выбирает. Все записи append-only.
type Recorder struct {
	st  *store.Store
	loc *time.Location
}

func New(st *store.Store, loc *time.Location) *Recorder {
	if loc == nil {
		loc = time.Local
	}
	return &Recorder{st: st, loc: loc}
}

func (r *Recorder) today() string {
	return time.Now().In(r.loc).Format("2006-01-02")
}

// RecordMood: mood и intensity зажимаются в [1,5], а не отклоняются.
// Сентинел "ничего не выбрано" у причины превращается в пустую строку.
func (r *Recorder) RecordMood(ctx context.Context, studentID string, mood, intensity int, cause, note string) (models.MoodLog, error) {
	if cause == models.CauseNone {
		cause = ""
	}
	entry := models.MoodLog{
		StudentID: studentID,
		Date:      r.today(),
		Mood:      clampInt(mood, 1, 5),
		Intensity: clampInt(intensity, 1, 5),
		Cause:     cause,
		Note:      strings.TrimSpace(note),
	}
	err := r.st.Mutate(ctx, func(ds *models.Dataset) error {
		ds.Logs.Mood = append(ds.Logs.Mood, entry)
		return nil
	})
	if err != nil {
		return models.MoodLog{}, err
	}
	metrics.LogsRecorded.WithLabelValues("mood").Inc()
	return entry, nil
}

// RecordSleep: часы обязаны быть конечным числом, затем округление до 0.1
// и зажим в [0,16].
func (r *Recorder) RecordSleep(ctx context.Context, studentID string, hours float64, quality string) (models.SleepLog, error) {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return models.SleepLog{}, fmt.Errorf("enter hours slept: %w", ErrValidation)
	}
	entry := models.SleepLog{
		StudentID: studentID,
		Date:      r.today(),
		Hours:     clampFloat(math.Round(hours*10)/10, 0, 16),
		Quality:   quality,
	}
	err := r.st.Mutate(ctx, func(ds *models.Dataset) error {
		ds.Logs.Sleep = append(ds.Logs.Sleep, entry)
		return nil
	})
	if err != nil {
		return models.SleepLog{}, err
	}
	metrics.LogsRecorded.WithLabelValues("sleep").Inc()
	return entry, nil
}

// RecordJournal: хотя бы одно из полей после трима должно быть непустым.
// Запись вставляется в голову списка — журнал отображается от свежего к старому.
func (r *Recorder) RecordJournal(ctx context.Context, studentID, text, gratitude string) (models.JournalEntry, error) {
	text = strings.TrimSpace(text)
	gratitude = strings.TrimSpace(gratitude)
	if text == "" && gratitude == "" {
		return models.JournalEntry{}, fmt.Errorf("write something to save: %w", ErrValidation)
	}
	entry := models.JournalEntry{
		StudentID: studentID,
		Date:      r.today(),
		Text:      text,
		Gratitude: gratitude,
	}
	err := r.st.Mutate(ctx, func(ds *models.Dataset) error {
		ds.Logs.Journal = append([]models.JournalEntry{entry}, ds.Logs.Journal...)
		return nil
	})
	if err != nil {
		return models.JournalEntry{}, err
	}
	metrics.LogsRecorded.WithLabelValues("journal").Inc()
	return entry, nil
}

func clampInt(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

func clampFloat(n, min, max float64) float64 {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
