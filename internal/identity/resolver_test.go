package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Spok95/mindurmind/internal/models"
	"github.com/Spok95/mindurmind/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(),
		store.NewFileBackend(filepath.Join(t.TempDir(), "data.json")))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestResolveStudentFindOrCreate(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	first, err := ResolveStudent(ctx, st, "  Mira@Example.COM ", "Mira", "7", "School #1")
	if err != nil {
		t.Fatal(err)
	}
	if first.Email != "mira@example.com" {
		t.Fatalf("email не нормализован: %q", first.Email)
	}

	// повторный вход тем же email — тот же id, поля перезаписаны
	second, err := ResolveStudent(ctx, st, "mira@example.com", "Mira S.", "8", "School #2")
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatalf("повторный вход создал новую запись: %s != %s", second.ID, first.ID)
	}
	if second.Name != "Mira S." || second.Grade != "8" || second.School != "School #2" {
		t.Fatalf("поля не обновились: %+v", second)
	}

	st.View(func(ds *models.Dataset) {
		if len(ds.Students) != 1 {
			t.Fatalf("ожидали одного ученика, получили %d", len(ds.Students))
		}
		if _, ok := ds.Schools["School #2"]; !ok {
			t.Fatal("школа не попала в реестр")
		}
	})
}

func TestResolveStudentEmptyEmail(t *testing.T) {
	st := newStore(t)
	if _, err := ResolveStudent(context.Background(), st, "   ", "X", "7", "S"); !errors.Is(err, ErrEmptyEmail) {
		t.Fatalf("ожидали ErrEmptyEmail, получили %v", err)
	}
}

func TestResolveParentEmptyNameKeepsStored(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	if _, err := ResolveParent(ctx, st, "dad@example.com", "Dad"); err != nil {
		t.Fatal(err)
	}
	p, err := ResolveParent(ctx, st, "dad@example.com", "")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Dad" {
		t.Fatalf("пустое имя затёрло сохранённое: %q", p.Name)
	}
}

func TestEnsureSchoolIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	a, err := EnsureSchool(ctx, st, "Gymnasium 5")
	if err != nil {
		t.Fatal(err)
	}
	b, err := EnsureSchool(ctx, st, "Gymnasium 5")
	if err != nil {
		t.Fatal(err)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		t.Fatal("повторная регистрация пересоздала школу")
	}
}
