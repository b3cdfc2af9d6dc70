package board

import (
	"sync"

	"drawboard/internal/models"
)

// Board holds one room's drawing state: the ordered operation history and the
// redo stack. Replaying history in order from a blank canvas reproduces the
// room's current picture.
type Board struct {
	mu        sync.Mutex
	history   []models.Operation
	redoStack []models.Operation
}

func (b *Board) snapshot() []models.Operation {
	out := make([]models.Operation, len(b.history))
	copy(out, b.history)
	return out
}

// Store owns every room's Board, keyed by room name. Rooms are created
// lazily on first reference and never deleted; history survives a room going
// empty of participants.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Board
}

func NewStore() *Store { return &Store{rooms: make(map[string]*Board)} }

func (s *Store) getOrCreate(room string) *Board {
	s.mu.RLock()
	b, ok := s.rooms[room]
	s.mu.RUnlock()
	if ok {
		return b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.rooms[room]; ok {
		return b
	}
	b = &Board{}
	s.rooms[room] = b
	return b
}

// Get returns a copy of the room's current history, creating an empty room
// entry if none exists.
func (s *Store) Get(room string) []models.Operation {
	b := s.getOrCreate(room)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

// Append pushes op to the end of the room's history. Any pending redo chain
// is invalidated: the redo stack is cleared unconditionally.
func (s *Store) Append(room string, op models.Operation) {
	b := s.getOrCreate(room)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, op)
	b.redoStack = nil
}

// Undo moves the last applied operation onto the redo stack and returns the
// resulting history. Undo on an empty history is a no-op.
func (s *Store) Undo(room string) []models.Operation {
	b := s.getOrCreate(room)
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := len(b.history); n > 0 {
		b.redoStack = append(b.redoStack, b.history[n-1])
		b.history = b.history[:n-1]
	}
	return b.snapshot()
}

// Redo moves the most recently undone operation back onto the history and
// returns the resulting history. Unlike Append it does not clear the redo
// stack: only genuinely new operations break the redo chain. Redo on an
// empty redo stack is a no-op.
func (s *Store) Redo(room string) []models.Operation {
	b := s.getOrCreate(room)
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := len(b.redoStack); n > 0 {
		b.history = append(b.history, b.redoStack[n-1])
		b.redoStack = b.redoStack[:n-1]
	}
	return b.snapshot()
}

// Replace swaps in a full history for the room and drops the redo stack.
// Used when another instance rewinds the room and relays the result.
func (s *Store) Replace(room string, history []models.Operation) {
	b := s.getOrCreate(room)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = make([]models.Operation, len(history))
	copy(b.history, history)
	b.redoStack = nil
}

// Len reports the number of applied operations in the room's history. It is
// a read-only peek: unlike the drawing paths it does not allocate a room, so
// status reads against arbitrary names cannot grow the store.
func (s *Store) Len(room string) int {
	s.mu.RLock()
	b, ok := s.rooms[room]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.history)
}
