package access

import (
	"errors"
	"fmt"

	"github.com/Spok95/mindurmind/internal/metrics"
	"github.com/Spok95/mindurmind/internal/models"
)

// ErrForbiddenScope: роль запросила данные вне разрешённой ей области.
// Не расширяется молча и не ретраится — это ошибка программирования вызывающего.
var ErrForbiddenScope = errors.New("запрошенная область недоступна этой роли")

// Гейт — чистый фильтр без собственного состояния: сессия и запрошенная
// область либо совпадают с разрешённой, либо ErrForbiddenScope.

// studentScope: ученик читает только самого себя.
func studentScope(sess models.Session, studentID string) error {
	if sess.Role != models.RoleStudent || sess.StudentID == "" || sess.StudentID != studentID {
		metrics.ForbiddenScopes.Inc()
		return fmt.Errorf("student scope %s: %w", studentID, ErrForbiddenScope)
	}
	return nil
}

// parentScope: родитель читает только учеников из собственного набора связей.
// Единственный путь в этот набор — одобренная учеником заявка.
func parentScope(ds *models.Dataset, sess models.Session, studentID string) error {
	if sess.Role != models.RoleParent || sess.ParentID == "" {
		metrics.ForbiddenScopes.Inc()
		return fmt.Errorf("parent scope %s: %w", studentID, ErrForbiddenScope)
	}
	for _, id := range ds.Links.ParentToStudents[sess.ParentID] {
		if id == studentID {
			return nil
		}
	}
	metrics.ForbiddenScopes.Inc()
	return fmt.Errorf("parent scope %s: %w", studentID, ErrForbiddenScope)
}

// schoolScope: школьная сессия получает набор id учеников, указавших ровно
// такое название школы. Identity из этого набора наружу не выходит — он
// существует только как вход агрегации.
func schoolScope(ds *models.Dataset, sess models.Session) ([]string, error) {
	if sess.Role != models.RoleSchool || sess.SchoolName == "" {
		metrics.ForbiddenScopes.Inc()
		return nil, fmt.Errorf("school scope: %w", ErrForbiddenScope)
	}
	return ds.StudentIDsBySchool(sess.SchoolName), nil
}
