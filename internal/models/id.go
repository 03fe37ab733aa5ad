package models

import "github.com/google/uuid"

// NewID — идентификатор с префиксом сущности: stu_…, par_…, req_….
// Префикс остаётся от исторического формата блоба, тело — uuid.
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
