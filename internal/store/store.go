package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Spok95/mindurmind/internal/metrics"
	"github.com/Spok95/mindurmind/internal/models"
)

// StorageKey — единственный ключ, под которым лежит сериализованный Dataset.
const StorageKey = "mum_v2_store"

// Backend — куда именно писать блоб (файл, postgres, redis).
// Load возвращает (nil, nil), если блоба ещё нет.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, blob []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// Store держит Dataset в памяти и синхронно сбрасывает его целиком после
// каждой мутации. Один глобальный мьютекс вокруг "мутация + запись":
// частично записанное состояние снаружи не наблюдаемо.
type Store struct {
	mu      sync.Mutex
	backend Backend
	ds      *models.Dataset
}

// Open загружает блоб. Отсутствующий или повреждённый блоб — не ошибка:
// маскируем пересевом пустого валидного Dataset. Ошибка самого бэкенда
// (база недоступна и т.п.) возвращается наверх.
func Open(ctx context.Context, backend Backend) (*Store, error) {
	raw, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("store load: %w", err)
	}

	s := &Store{backend: backend}
	if len(raw) > 0 {
		var parsed models.Dataset
		if jerr := json.Unmarshal(raw, &parsed); jerr == nil {
			parsed.Normalize()
			s.ds = &parsed
			return s, nil
		}
	}

	// пусто или мусор — сеем заново и сразу сохраняем, как оригинальный seed
	s.ds = models.Seed()
	if err := s.persist(ctx); err != nil {
		return nil, fmt.Errorf("store seed: %w", err)
	}
	return s, nil
}

// View выполняет читающую функцию под тем же замком, что и записи:
// чтение никогда не пересекается с мутацией.
func (s *Store) View(fn func(ds *models.Dataset)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ds)
}

// Mutate выполняет fn над Dataset и синхронно сохраняет весь блоб.
// Если fn вернула ошибку, изменения не сохраняются (fn обязана не мутировать
// набор на ошибочных путях — все мутации в этом репо так и устроены).
func (s *Store) Mutate(ctx context.Context, fn func(ds *models.Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.ds); err != nil {
		return err
	}
	return s.persist(ctx)
}

// Ping пробрасывается в бэкенд (для /healthz).
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// Snapshot отдаёт сериализованную копию текущего набора (для бэкапов).
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.MarshalIndent(s.ds, "", "  ")
}

func (s *Store) persist(ctx context.Context) error {
	blob, err := json.Marshal(s.ds)
	if err != nil {
		return err
	}
	t0 := time.Now()
	if err := s.backend.Save(ctx, blob); err != nil {
		return err
	}
	metrics.ObserveStoreSave(time.Since(t0))
	return nil
}
