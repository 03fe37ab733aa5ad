package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/mindurmind/internal/access"
	"github.com/Spok95/mindurmind/internal/ingest"
	"github.com/Spok95/mindurmind/internal/models"
	"github.com/Spok95/mindurmind/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(context.Background(),
		store.NewFileBackend(filepath.Join(t.TempDir(), "data.json")))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	srv := NewServer(st, ingest.New(st, time.UTC), zap.NewNop().Sugar())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any, out any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if out != nil {
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatal(err)
		}
	}
	return resp
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	if out != nil {
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatal(err)
		}
	}
	return resp
}

// Полный путь: вход ролей, записи, заявка, одобрение, родительская сводка.
func TestEndToEndFlow(t *testing.T) {
	ts := newTestServer(t)

	var student models.Student
	resp := postJSON(t, ts.URL+"/api/signin/student", map[string]string{
		"email": "kid@example.com", "name": "Kid", "grade": "7", "school": "School #1",
	}, &student)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("вход ученика: %d", resp.StatusCode)
	}

	var parent models.Parent
	resp = postJSON(t, ts.URL+"/api/signin/parent", map[string]string{
		"email": "mom@example.com", "name": "Mom",
	}, &parent)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("вход родителя: %d", resp.StatusCode)
	}

	// записи ученика
	var mood models.MoodLog
	resp = postJSON(t, ts.URL+"/api/students/"+student.ID+"/mood", map[string]any{
		"mood": 7, "intensity": 3, "cause": "Exams", "note": "secret",
	}, &mood)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("запись настроения: %d", resp.StatusCode)
	}
	if mood.Mood != 5 {
		t.Fatalf("зажим на границе API не сработал: %d", mood.Mood)
	}
	resp = postJSON(t, ts.URL+"/api/students/"+student.ID+"/sleep", map[string]any{
		"hours": 7.46, "quality": "Good",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("запись сна: %d", resp.StatusCode)
	}

	// заявка родителя и одобрение учеником
	var req models.LinkRequest
	resp = postJSON(t, ts.URL+"/api/parents/"+parent.ID+"/links", map[string]string{
		"studentEmail": "kid@example.com",
	}, &req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("заявка: %d", resp.StatusCode)
	}

	// до одобрения сводка запрещена
	resp = getJSON(t, ts.URL+"/api/parents/"+parent.ID+"/children/"+student.ID+"/view", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("до одобрения ожидали 403, получили %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/students/"+student.ID+"/links/"+req.ID+"/approve", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("одобрение: %d", resp.StatusCode)
	}

	var view access.ParentChildView
	resp = getJSON(t, ts.URL+"/api/parents/"+parent.ID+"/children/"+student.ID+"/view", &view)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("родительская сводка: %d", resp.StatusCode)
	}
	if view.StudentName != "Kid" || view.AvgMood == nil {
		t.Fatalf("сводка не сходится: %+v", view)
	}
}

func TestDuplicateLinkRequestConflict(t *testing.T) {
	ts := newTestServer(t)

	var parent models.Parent
	postJSON(t, ts.URL+"/api/signin/parent", map[string]string{"email": "mom@example.com"}, &parent)

	body := map[string]string{"studentEmail": "kid@example.com"}
	if resp := postJSON(t, ts.URL+"/api/parents/"+parent.ID+"/links", body, nil); resp.StatusCode != http.StatusCreated {
		t.Fatalf("первая заявка: %d", resp.StatusCode)
	}
	if resp := postJSON(t, ts.URL+"/api/parents/"+parent.ID+"/links", body, nil); resp.StatusCode != http.StatusConflict {
		t.Fatalf("дубль должен давать 409, получили %d", resp.StatusCode)
	}
}

func TestCancelForeignRequestIsNoop(t *testing.T) {
	ts := newTestServer(t)

	var parentA, parentB models.Parent
	postJSON(t, ts.URL+"/api/signin/parent", map[string]string{"email": "a@example.com"}, &parentA)
	postJSON(t, ts.URL+"/api/signin/parent", map[string]string{"email": "b@example.com"}, &parentB)

	var req models.LinkRequest
	postJSON(t, ts.URL+"/api/parents/"+parentA.ID+"/links",
		map[string]string{"studentEmail": "kid@example.com"}, &req)

	// чужой родитель "отменяет" заявку — no-op, заявка остаётся
	httpReq, err := http.NewRequest(http.MethodDelete,
		ts.URL+"/api/parents/"+parentB.ID+"/links/"+req.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("ожидали 204, получили %d", resp.StatusCode)
	}

	var linksView access.ParentLinks
	getJSON(t, ts.URL+"/api/parents/"+parentA.ID+"/links", &linksView)
	if len(linksView.Pending) != 1 {
		t.Fatalf("чужая отмена удалила заявку: %+v", linksView)
	}
}

func TestValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	// вход ученика без школы
	resp := postJSON(t, ts.URL+"/api/signin/student", map[string]string{
		"email": "kid@example.com", "name": "Kid", "grade": "7",
	}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("неполная форма входа: %d", resp.StatusCode)
	}

	var student models.Student
	postJSON(t, ts.URL+"/api/signin/student", map[string]string{
		"email": "kid@example.com", "name": "Kid", "grade": "7", "school": "S",
	}, &student)

	// сон без часов
	resp = postJSON(t, ts.URL+"/api/students/"+student.ID+"/sleep",
		map[string]any{"quality": "Good"}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("сон без часов: %d", resp.StatusCode)
	}

	// пустой журнал
	resp = postJSON(t, ts.URL+"/api/students/"+student.ID+"/journal",
		map[string]string{"text": " ", "gratitude": ""}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("пустой журнал: %d", resp.StatusCode)
	}
}

func TestSchoolInsightsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var student models.Student
	postJSON(t, ts.URL+"/api/signin/student", map[string]string{
		"email": "kid@example.com", "name": "Kid", "grade": "7", "school": "School #1",
	}, &student)
	postJSON(t, ts.URL+"/api/students/"+student.ID+"/mood",
		map[string]any{"mood": 4, "intensity": 3, "cause": "Exams"}, nil)

	var ins access.SchoolInsights
	resp := getJSON(t, ts.URL+"/api/schools/insights?school="+url.QueryEscape("School #1"), &ins)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("школьная сводка: %d", resp.StatusCode)
	}
	if ins.Students != 1 || ins.MoodCheckins != 1 {
		t.Fatalf("агрегаты: %+v", ins)
	}

	// без названия школы — 403
	resp = getJSON(t, ts.URL+"/api/schools/insights", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("пустая школа: %d", resp.StatusCode)
	}
}

func TestSuggestionEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var out map[string]string
	resp := getJSON(t, fmt.Sprintf("%s/api/suggestion?mood=%d", ts.URL, 2), &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("подсказка: %d", resp.StatusCode)
	}
	if !strings.Contains(out["suggestion"], "grounding") {
		t.Fatalf("подсказка для mood=2: %q", out["suggestion"])
	}

	if resp := getJSON(t, ts.URL+"/api/suggestion?mood=abc", nil); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("нечисловой mood: %d", resp.StatusCode)
	}
}

func TestStudentExportEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var student models.Student
	postJSON(t, ts.URL+"/api/signin/student", map[string]string{
		"email": "kid@example.com", "name": "Kid", "grade": "7", "school": "S",
	}, &student)

	resp := getJSON(t, ts.URL+"/api/students/"+student.ID+"/export.xlsx", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("выгрузка: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("тип содержимого: %q", ct)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp := getJSON(t, ts.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: %d", resp.StatusCode)
	}
}
