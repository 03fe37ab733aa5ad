package links

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Spok95/mindurmind/internal/identity"
	"github.com/Spok95/mindurmind/internal/metrics"
	"github.com/Spok95/mindurmind/internal/models"
	"github.com/Spok95/mindurmind/internal/store"
)

// Состояния заявки: NONE → PENDING → {APPROVED, DECLINED}.
// PENDING — единственное хранимое состояние: одобрение сворачивается в
// постоянную связь parentToStudents и удаляет заявку, отклонение просто
// удаляет её. Назад в PENDING пути нет — только новая заявка.
var (
	ErrDuplicateRequest = errors.New("заявка уже ожидает решения")
	ErrNotFound         = errors.New("заявка не найдена")
)

// Request создаёт PENDING-заявку родителя на доступ к ученику по email.
// Дубль по паре (parentId, studentEmail) среди ожидающих отклоняется.
func Request(ctx context.Context, st *store.Store, parentID, studentEmail string) (models.LinkRequest, error) {
	studentEmail = identity.NormalizeEmail(studentEmail)
	if studentEmail == "" {
		return models.LinkRequest{}, identity.ErrEmptyEmail
	}

	var out models.LinkRequest
	err := st.Mutate(ctx, func(ds *models.Dataset) error {
		parent, ok := ds.Parents[parentID]
		if !ok {
			return fmt.Errorf("родитель %s: %w", parentID, ErrNotFound)
		}
		for _, p := range ds.Links.Pending {
			if p.ParentID == parentID && p.StudentEmail == studentEmail {
				return ErrDuplicateRequest
			}
		}
		out = models.LinkRequest{
			ID:           models.NewID("req"),
			ParentID:     parentID,
			ParentEmail:  parent.Email,
			StudentEmail: studentEmail,
			CreatedAt:    time.Now().UTC(),
		}
		ds.Links.Pending = append(ds.Links.Pending, out)
		return nil
	})
	if err != nil {
		return models.LinkRequest{}, err
	}
	metrics.LinkTransitions.WithLabelValues("request").Inc()
	return out, nil
}

// Cancel убирает ожидающую заявку. Идемпотентно: отсутствующий id — no-op.
// Право отмены (только запросивший родитель) проверяет вызывающий контекст.
func Cancel(ctx context.Context, st *store.Store, requestID string) error {
	err := st.Mutate(ctx, func(ds *models.Dataset) error {
		ds.Links.Pending = removeRequest(ds.Links.Pending, requestID)
		return nil
	})
	if err != nil {
		return err
	}
	metrics.LinkTransitions.WithLabelValues("cancel").Inc()
	return nil
}

// Approve: заявка удаляется, ученик добавляется в набор связей родителя.
// Добавление идемпотентно — уже связанный ученик не дублируется.
// Личность одобряющего приходит из сессии вызывающего и с studentEmail заявки
// не сверяется — известное доверительное допущение исходной схемы.
func Approve(ctx context.Context, st *store.Store, requestID, approvingStudentID string) error {
	err := st.Mutate(ctx, func(ds *models.Dataset) error {
		req, ok := findRequest(ds.Links.Pending, requestID)
		if !ok {
			return fmt.Errorf("approve %s: %w", requestID, ErrNotFound)
		}
		ds.Links.Pending = removeRequest(ds.Links.Pending, requestID)

		linked := ds.Links.ParentToStudents[req.ParentID]
		for _, id := range linked {
			if id == approvingStudentID {
				return nil
			}
		}
		ds.Links.ParentToStudents[req.ParentID] = append(linked, approvingStudentID)
		return nil
	})
	if err != nil {
		return err
	}
	metrics.LinkTransitions.WithLabelValues("approve").Inc()
	return nil
}

// Decline удаляет заявку без каких-либо иных изменений.
func Decline(ctx context.Context, st *store.Store, requestID string) error {
	err := st.Mutate(ctx, func(ds *models.Dataset) error {
		if _, ok := findRequest(ds.Links.Pending, requestID); !ok {
			return fmt.Errorf("decline %s: %w", requestID, ErrNotFound)
		}
		ds.Links.Pending = removeRequest(ds.Links.Pending, requestID)
		return nil
	})
	if err != nil {
		return err
	}
	metrics.LinkTransitions.WithLabelValues("decline").Inc()
	return nil
}

func findRequest(pending []models.LinkRequest, id string) (models.LinkRequest, bool) {
	for _, p := range pending {
		if p.ID == id {
			return p, true
		}
	}
	return models.LinkRequest{}, false
}

func removeRequest(pending []models.LinkRequest, id string) []models.LinkRequest {
	out := pending[:0]
	for _, p := range pending {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// ----- читающие помощники (под замком Store) -----

func PendingForParent(st *store.Store, parentID string) []models.LinkRequest {
	var out []models.LinkRequest
	st.View(func(ds *models.Dataset) {
		for _, p := range ds.Links.Pending {
			if p.ParentID == parentID {
				out = append(out, p)
			}
		}
	})
	return out
}

func PendingForStudent(st *store.Store, studentEmail string) []models.LinkRequest {
	var out []models.LinkRequest
	st.View(func(ds *models.Dataset) {
		for _, p := range ds.Links.Pending {
			if p.StudentEmail == studentEmail {
				out = append(out, p)
			}
		}
	})
	return out
}

func LinkedStudentIDs(st *store.Store, parentID string) []string {
	var out []string
	st.View(func(ds *models.Dataset) {
		out = append(out, ds.Links.ParentToStudents[parentID]...)
	})
	return out
}

// ApprovedParentEmails — email'ы родителей, которым ученик одобрил доступ.
func ApprovedParentEmails(st *store.Store, studentID string) []string {
	var out []string
	st.View(func(ds *models.Dataset) {
		for pid, ids := range ds.Links.ParentToStudents {
			for _, id := range ids {
				if id == studentID {
					if p, ok := ds.Parents[pid]; ok {
						out = append(out, p.Email)
					} else {
						out = append(out, pid)
					}
					break
				}
			}
		}
	})
	return out
}
