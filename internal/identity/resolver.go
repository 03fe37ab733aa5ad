package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Spok95/mindurmind/internal/models"
	"github.com/Spok95/mindurmind/internal/store"
)

// ErrEmptyEmail: ученика или родителя нельзя разрешить по пустому email.
// Обязательность остальных полей проверяет презентационный слой.
var ErrEmptyEmail = errors.New("пустой email")

// NormalizeEmail — единственная нормализация идентичности: трим + нижний регистр.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ResolveStudent находит ученика по email или создаёт нового.
// Повторный вход тем же email обновляет name/grade/school на месте;
// id неизменен и остаётся единственным стабильным ключом для логов и связей.
// Попутно заводится запись школы в реестре.
func ResolveStudent(ctx context.Context, st *store.Store, email, name, grade, school string) (models.Student, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return models.Student{}, ErrEmptyEmail
	}

	var out models.Student
	err := st.Mutate(ctx, func(ds *models.Dataset) error {
		if existing, ok := ds.StudentByEmail(email); ok {
			existing.Name = name
			existing.Grade = grade
			existing.School = school
			ds.Students[existing.ID] = existing
			out = existing
		} else {
			out = models.Student{
				ID:        models.NewID("stu"),
				Email:     email,
				Name:      name,
				Grade:     grade,
				School:    school,
				CreatedAt: time.Now().UTC(),
			}
			ds.Students[out.ID] = out
		}
		ensureSchool(ds, school)
		return nil
	})
	if err != nil {
		return models.Student{}, err
	}
	return out, nil
}

// ResolveParent — тот же find-or-create. Пустое имя никогда не затирает
// уже сохранённое.
func ResolveParent(ctx context.Context, st *store.Store, email, name string) (models.Parent, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return models.Parent{}, ErrEmptyEmail
	}

	var out models.Parent
	err := st.Mutate(ctx, func(ds *models.Dataset) error {
		if existing, ok := ds.ParentByEmail(email); ok {
			if name != "" {
				existing.Name = name
			}
			ds.Parents[existing.ID] = existing
			out = existing
		} else {
			out = models.Parent{
				ID:        models.NewID("par"),
				Email:     email,
				Name:      name,
				CreatedAt: time.Now().UTC(),
			}
			ds.Parents[out.ID] = out
		}
		return nil
	})
	if err != nil {
		return models.Parent{}, err
	}
	return out, nil
}

// EnsureSchool — вход школьной роли: регистрирует название, если его ещё нет.
func EnsureSchool(ctx context.Context, st *store.Store, school string) (models.School, error) {
	var out models.School
	err := st.Mutate(ctx, func(ds *models.Dataset) error {
		out = ensureSchool(ds, school)
		return nil
	})
	if err != nil {
		return models.School{}, err
	}
	return out, nil
}

func ensureSchool(ds *models.Dataset, school string) models.School {
	if s, ok := ds.Schools[school]; ok {
		return s
	}
	s := models.School{Name: school, CreatedAt: time.Now().UTC()}
	ds.Schools[school] = s
	return s
}
