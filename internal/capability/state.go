package capability

import (
	"sync"
	"time"
)

// Snapshot - копия State на момент чтения
type Snapshot struct {
	Supported  bool
	DetectedAt time.Time
	Reason     string
}

// State хранит закешированную поддержку транзакций для одного подключения к хранилищу
// Принадлежит тому, кто собирает граф зависимостей, в тестах подменяется
type State struct {
	mu         sync.RWMutex
	detected   bool
	supported  bool
	detectedAt time.Time
	reason     string
}

// NewState создаёт пустое состояние
func NewState() *State {
	return &State{}
}

// Get возвращает результат и признак того, что определение уже было
func (s *State) Get() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.detected {
		return Snapshot{}, false
	}
	return Snapshot{
		Supported:  s.supported,
		DetectedAt: s.detectedAt,
		Reason:     s.reason,
	}, true
}

// Set сохраняет результат определения
func (s *State) Set(supported bool, reason string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detected = true
	s.supported = supported
	s.reason = reason
	s.detectedAt = at
}

// Reset забывает результат, следующий Detect определит заново
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detected = false
	s.supported = false
	s.reason = ""
	s.detectedAt = time.Time{}
}
