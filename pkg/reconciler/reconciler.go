// Package reconciler реализует оптимистичный клиентский стор поверх
// упорядоченной коллекции сущностей. Мутации применяются немедленно,
// сервер подтверждает или откатывает их асинхронно; push-события
// сервера применяются last-write-wins, кроме сущностей с незакрытой
// мутацией.
package reconciler

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrUnknownPending = errors.New("no pending mutation for entity")

// Entity минимальный контракт хранимой сущности
type Entity interface {
	EntityId() string
}

type MutationKind int

const (
	MutationCreate MutationKind = iota
	MutationUpdate
	MutationDelete
)

// pendingMutation закрытая учетная запись незакрытой мутации.
// Для update хранится снапшот до мутации, для delete ещё и позиция,
// для create токен исходного запроса.
type pendingMutation[T Entity] struct {
	entityId    string
	kind        MutationKind
	token       string
	snapshot    T
	position    int
	submittedAt time.Time
}

// Store упорядоченная коллекция с учетом незакрытых мутаций.
// На сущность одновременно не больше одной незакрытой мутации:
// повторная мутация перезаписывает отслеживаемый снапшот.
type Store[T Entity] struct {
	mu      sync.Mutex
	items   []T
	pending map[string]*pendingMutation[T]
	seq     int
	now     func() time.Time
}

func NewStore[T Entity](initial []T) *Store[T] {
	items := make([]T, len(initial))
	copy(items, initial)
	return &Store[T]{
		items:   items,
		pending: make(map[string]*pendingMutation[T]),
		now:     time.Now,
	}
}

// Items возвращает текущее видимое состояние коллекции
func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Create вставляет placeholder в голову коллекции и возвращает его
// временный id. Канонический ответ матчится по токену запроса,
// а не по id: сервер присвоит сущности собственный id.
func (s *Store[T]) Create(token string, build func(tempId string) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	tempId := fmt.Sprintf("optimistic-%d", s.seq)
	placeholder := build(tempId)

	s.items = append([]T{placeholder}, s.items...)
	s.pending[placeholder.EntityId()] = &pendingMutation[T]{
		entityId:    placeholder.EntityId(),
		kind:        MutationCreate,
		token:       token,
		submittedAt: s.now(),
	}

	return placeholder
}

// ResolveCreate закрывает оптимистичное создание: при успехе placeholder
// заменяется канонической сущностью, при ошибке удаляется, ошибка
// возвращается вызывающему.
func (s *Store[T]) ResolveCreate(token string, canonical T, reqErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tempId string
	for id, p := range s.pending {
		if p.kind == MutationCreate && p.token == token {
			tempId = id
			break
		}
	}
	if tempId == "" {
		return ErrUnknownPending
	}

	delete(s.pending, tempId)

	if reqErr != nil {
		s.removeLocked(tempId)
		return reqErr
	}

	for i, item := range s.items {
		if item.EntityId() == tempId {
			s.items[i] = canonical
			break
		}
	}
	return nil
}

// Update применяет изменение немедленно и запоминает снапшот до мутации
func (s *Store[T]) Update(entityId string, apply func(T) T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(entityId)
	if idx < 0 {
		return fmt.Errorf("entity %s not in store", entityId)
	}

	snapshot := s.items[idx]
	s.items[idx] = apply(snapshot)

	s.pending[entityId] = &pendingMutation[T]{
		entityId:    entityId,
		kind:        MutationUpdate,
		snapshot:    snapshot,
		submittedAt: s.now(),
	}
	return nil
}

// ResolveUpdate закрывает мутацию: успех заменяет сущность каноническим
// состоянием сервера, ошибка откатывает на снапшот
func (s *Store[T]) ResolveUpdate(entityId string, canonical T, reqErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[entityId]
	if !ok || p.kind != MutationUpdate {
		return ErrUnknownPending
	}
	delete(s.pending, entityId)

	idx := s.indexLocked(entityId)
	if idx < 0 {
		return nil
	}

	if reqErr != nil {
		s.items[idx] = p.snapshot
		return reqErr
	}

	s.items[idx] = canonical
	return nil
}

// Delete убирает сущность немедленно, запомнив её и позицию для отката
func (s *Store[T]) Delete(entityId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(entityId)
	if idx < 0 {
		return fmt.Errorf("entity %s not in store", entityId)
	}

	s.pending[entityId] = &pendingMutation[T]{
		entityId:    entityId,
		kind:        MutationDelete,
		snapshot:    s.items[idx],
		position:    idx,
		submittedAt: s.now(),
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return nil
}

// ResolveDelete закрывает удаление: при ошибке сущность возвращается
// на исходную позицию
func (s *Store[T]) ResolveDelete(entityId string, reqErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[entityId]
	if !ok || p.kind != MutationDelete {
		return ErrUnknownPending
	}
	delete(s.pending, entityId)

	if reqErr != nil {
		s.insertAtLocked(p.snapshot, p.position)
		return reqErr
	}
	return nil
}

// ApplyCreated вставляет сущность из push-события, если её еще нет
func (s *Store[T]) ApplyCreated(entity T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[entity.EntityId()]; ok {
		return
	}
	if s.indexLocked(entity.EntityId()) >= 0 {
		return
	}
	s.items = append([]T{entity}, s.items...)
}

// ApplyUpdated заменяет сущность состоянием из push-события.
// Пока по сущности висит незакрытая мутация, push подавляется: исход
// определит resolve, а собственное эхо не должно перетирать оптимизм.
func (s *Store[T]) ApplyUpdated(entity T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[entity.EntityId()]; ok {
		return
	}
	if idx := s.indexLocked(entity.EntityId()); idx >= 0 {
		s.items[idx] = entity
	}
}

// ApplyDeleted убирает сущность по push-событию
func (s *Store[T]) ApplyDeleted(entityId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[entityId]; ok {
		return
	}
	s.removeLocked(entityId)
}

// ResolveStale принудительно откатывает мутации старше maxAge.
// Возвращает id откаченных сущностей.
func (s *Store[T]) ResolveStale(maxAge time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	var rolledBack []string

	for id, p := range s.pending {
		if p.submittedAt.After(cutoff) {
			continue
		}
		delete(s.pending, id)

		switch p.kind {
		case MutationCreate:
			s.removeLocked(id)
		case MutationUpdate:
			if idx := s.indexLocked(id); idx >= 0 {
				s.items[idx] = p.snapshot
			}
		case MutationDelete:
			s.insertAtLocked(p.snapshot, p.position)
		}
		rolledBack = append(rolledBack, id)
	}
	return rolledBack
}

// HasPending для диагностики и тестов
func (s *Store[T]) HasPending(entityId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[entityId]
	return ok
}

func (s *Store[T]) indexLocked(entityId string) int {
	for i, item := range s.items {
		if item.EntityId() == entityId {
			return i
		}
	}
	return -1
}

func (s *Store[T]) removeLocked(entityId string) {
	if idx := s.indexLocked(entityId); idx >= 0 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
	}
}

func (s *Store[T]) insertAtLocked(entity T, position int) {
	if position < 0 {
		position = 0
	}
	if position > len(s.items) {
		position = len(s.items)
	}
	s.items = append(s.items[:position], append([]T{entity}, s.items[position:]...)...)
}
