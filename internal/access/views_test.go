package access

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Spok95/mindurmind/internal/identity"
	"github.com/Spok95/mindurmind/internal/ingest"
	"github.com/Spok95/mindurmind/internal/links"
	"github.com/Spok95/mindurmind/internal/models"
	"github.com/Spok95/mindurmind/internal/store"
)

type fixture struct {
	st      *store.Store
	rec     *ingest.Recorder
	student models.Student
	parent  models.Parent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.NewFileBackend(filepath.Join(t.TempDir(), "data.json")))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	student, err := identity.ResolveStudent(ctx, st, "kid@example.com", "Kid", "7", "School #1")
	if err != nil {
		t.Fatal(err)
	}
	parent, err := identity.ResolveParent(ctx, st, "mom@example.com", "Mom")
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{st: st, rec: ingest.New(st, time.UTC), student: student, parent: parent}
}

func (f *fixture) link(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	req, err := links.Request(ctx, f.st, f.parent.ID, f.student.Email)
	if err != nil {
		t.Fatal(err)
	}
	if err := links.Approve(ctx, f.st, req.ID, f.student.ID); err != nil {
		t.Fatal(err)
	}
}

func TestStudentScopeRejectsOtherStudent(t *testing.T) {
	f := newFixture(t)
	if _, err := BuildStudentOverview(f.st, models.StudentSession("stu_other"), f.student.ID); err == nil {
		t.Fatal("чужой ученик не должен читать дашборд")
	}
	if _, err := BuildStudentOverview(f.st, models.ParentSession(f.parent.ID), f.student.ID); err == nil {
		t.Fatal("родительская сессия не проходит студенческий гейт")
	}
}

func TestStudentOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.rec.RecordMood(ctx, f.student.ID, 4, 3, "Exams", "private"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.rec.RecordSleep(ctx, f.student.ID, 7.5, "Good"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.rec.RecordJournal(ctx, f.student.ID, "note", ""); err != nil {
		t.Fatal(err)
	}

	v, err := BuildStudentOverview(f.st, models.StudentSession(f.student.ID), f.student.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.LatestMood == nil || v.LatestMood.Mood != 4 {
		t.Fatalf("последнее настроение не сходится: %+v", v.LatestMood)
	}
	if v.MoodBadge != "Good" {
		t.Fatalf("ожидали бейдж Good, получили %q", v.MoodBadge)
	}
	if v.TotalLogs != 2 || v.JournalCount != 1 {
		t.Fatalf("счётчики: logs=%d journal=%d", v.TotalLogs, v.JournalCount)
	}
}

func TestParentScopeRequiresApprovedLink(t *testing.T) {
	f := newFixture(t)

	if _, err := BuildParentChildView(f.st, models.ParentSession(f.parent.ID), f.student.ID); err == nil {
		t.Fatal("несвязанный родитель не должен видеть сводку")
	}

	// даже ожидающая заявка ещё не даёт доступа
	if _, err := links.Request(context.Background(), f.st, f.parent.ID, f.student.Email); err != nil {
		t.Fatal(err)
	}
	if _, err := BuildParentChildView(f.st, models.ParentSession(f.parent.ID), f.student.ID); err == nil {
		t.Fatal("PENDING-заявка не открывает доступ")
	}

	f.link(t)
	if _, err := BuildParentChildView(f.st, models.ParentSession(f.parent.ID), f.student.ID); err != nil {
		t.Fatalf("одобренная связь должна открыть доступ: %v", err)
	}
}

// Сериализованная родительская сводка не содержит приватных полей даже по ключам.
func TestParentViewLeaksNoPrivateContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.link(t)

	if _, err := f.rec.RecordMood(ctx, f.student.ID, 2, 4, "Family", "very private note"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.rec.RecordJournal(ctx, f.student.ID, "diary text", "gratitude text"); err != nil {
		t.Fatal(err)
	}

	v, err := BuildParentChildView(f.st, models.ParentSession(f.parent.ID), f.student.ID)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	blob := string(raw)
	for _, forbidden := range []string{"note", "very private", "diary text", "gratitude"} {
		if strings.Contains(blob, forbidden) {
			t.Fatalf("в родительской сводке утёк %q: %s", forbidden, blob)
		}
	}
	if len(v.MoodSeries) != 1 || v.MoodSeries[0].Cause != "Family" {
		t.Fatalf("категория причины должна оставаться видимой: %+v", v.MoodSeries)
	}
}

func TestParentChildViewWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.link(t)

	for i := 0; i < ParentAvgWindow+5; i++ {
		if _, err := f.rec.RecordMood(ctx, f.student.ID, 3, 3, "", ""); err != nil {
			t.Fatal(err)
		}
	}
	v, err := BuildParentChildView(f.st, models.ParentSession(f.parent.ID), f.student.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.MoodSeries) != ParentChartWindow {
		t.Fatalf("график должен резаться до %d точек, получили %d", ParentChartWindow, len(v.MoodSeries))
	}
	if v.Status != "Okay" {
		t.Fatalf("средний балл 3 — статус Okay, получили %q", v.Status)
	}
}

func TestSchoolInsightsAggregatesWithoutIdentities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := identity.ResolveStudent(ctx, f.st, "kid2@example.com", "Kid Two", "8", "School #1")
	if err != nil {
		t.Fatal(err)
	}
	outsider, err := identity.ResolveStudent(ctx, f.st, "kid3@example.com", "Kid Three", "8", "Another School")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.rec.RecordMood(ctx, f.student.ID, 5, 3, "Exams", "note"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.rec.RecordMood(ctx, other.ID, 1, 3, "Exams", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.rec.RecordMood(ctx, outsider.ID, 3, 3, "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.rec.RecordSleep(ctx, f.student.ID, 8, "Good"); err != nil {
		t.Fatal(err)
	}

	v, err := BuildSchoolInsights(f.st, models.SchoolSession("School #1"))
	if err != nil {
		t.Fatal(err)
	}
	if v.Students != 2 {
		t.Fatalf("чужая школа посчиталась: %d", v.Students)
	}
	if v.MoodCheckins != 2 {
		t.Fatalf("чек-ины чужой школы попали в счёт: %d", v.MoodCheckins)
	}
	if v.MoodDistribution[0] != 1 || v.MoodDistribution[4] != 1 {
		t.Fatalf("распределение: %v", v.MoodDistribution)
	}
	if len(v.TopThemes) == 0 || v.TopThemes[0].Cause != "Exams" {
		t.Fatalf("темы: %v", v.TopThemes)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	for _, forbidden := range []string{"kid@example.com", "Kid", "stu_", "note"} {
		if strings.Contains(string(raw), forbidden) {
			t.Fatalf("в школьной сводке утекла идентичность %q: %s", forbidden, raw)
		}
	}
}

func TestSchoolScopeRequiresName(t *testing.T) {
	f := newFixture(t)
	if _, err := BuildSchoolInsights(f.st, models.SchoolSession("")); err == nil {
		t.Fatal("пустое название школы не проходит гейт")
	}
}

func TestBuildStudentJournalPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < JournalPageSize+3; i++ {
		if _, err := f.rec.RecordJournal(ctx, f.student.ID, "entry", ""); err != nil {
			t.Fatal(err)
		}
	}
	got, err := BuildStudentJournal(f.st, models.StudentSession(f.student.ID), f.student.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != JournalPageSize {
		t.Fatalf("страница по умолчанию %d, получили %d", JournalPageSize, len(got))
	}
}

func TestBuildParentLinks(t *testing.T) {
	f := newFixture(t)
	f.link(t)

	v, err := BuildParentLinks(f.st, models.ParentSession(f.parent.ID))
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Linked) != 1 || v.Linked[0].StudentID != f.student.ID {
		t.Fatalf("связанные дети: %+v", v.Linked)
	}
	if len(v.Pending) != 0 {
		t.Fatalf("pending должен быть пуст: %+v", v.Pending)
	}
}

func TestBuildStudentLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := links.Request(ctx, f.st, f.parent.ID, f.student.Email); err != nil {
		t.Fatal(err)
	}
	v, err := BuildStudentLinks(f.st, models.StudentSession(f.student.ID), f.student.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Pending) != 1 || v.Pending[0].ParentEmail != f.parent.Email {
		t.Fatalf("ожидали одну заявку от родителя: %+v", v.Pending)
	}
}
