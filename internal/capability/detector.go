package capability

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/stock/internal/repository"
)

// unsupportedSignatures - тексты ошибок, однозначно означающие отсутствие транзакций
// Так отвечает standalone сервер вместо replica set или mongos
var unsupportedSignatures = []string{
	"transaction numbers are only allowed on a replica set member or mongos",
	"transactions are not supported",
	"this mongodb deployment does not support retryable writes",
	"requires a replica set",
}

// IsTransactionsUnsupported проверяет, содержит ли err известную сигнатуру
// "транзакции требуют реплицированной топологии"
func IsTransactionsUnsupported(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, repository.ErrTransactionsUnsupported) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range unsupportedSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Detector определяет поддержку транзакций один раз на время жизни кеша
type Detector struct {
	probe  repository.StorageCapabilityProbe
	state  *State
	logger *zap.Logger
	now    func() time.Time

	// mu нужен, чтобы параллельные первые вызовы разделили одно определение
	mu sync.Mutex
}

// NewDetector создаёт детектор с кешем в state
// При nil state создаётся новый
func NewDetector(probe repository.StorageCapabilityProbe, state *State, logger *zap.Logger) *Detector {
	if state == nil {
		state = NewState()
	}
	return &Detector{
		probe:  probe,
		state:  state,
		logger: logger,
		now:    time.Now,
	}
}

// State возвращает кеш для просмотра или подмены результата
func (d *Detector) State() *State {
	return d.state
}

// Reset сбрасывает кеш, например после переподключения или смены топологии
func (d *Detector) Reset() {
	d.state.Reset()
	d.logger.Info("transaction capability cache reset")
}

// Detect возвращает закешированный результат или запускает определение
// Если поддержку доказать не удалось, возвращает false
func (d *Detector) Detect(ctx context.Context) bool {
	if snap, ok := d.state.Get(); ok {
		return snap.Supported
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Пока ждали мьютекс, результат мог появиться
	if snap, ok := d.state.Get(); ok {
		return snap.Supported
	}

	supported, reason := d.detect(ctx)
	d.state.Set(supported, reason, d.now())

	mode := "sequential"
	if supported {
		mode = "transactional"
	}
	d.logger.Info("transaction capability detected",
		zap.Bool("transactions_supported", supported),
		zap.String("mode", mode),
		zap.String("reason", reason),
	)

	return supported
}

// detect сначала смотрит на топологию, затем открывает пробную транзакцию
func (d *Detector) detect(ctx context.Context) (bool, string) {
	hint, err := d.probe.Topology(ctx)
	switch {
	case err != nil:
		d.logger.Debug("topology heuristic inconclusive", zap.Error(err))
	case hint.Unsupported:
		return false, "topology: " + hint.Reason
	}

	err = d.probe.ProbeTransaction(ctx)
	if err == nil {
		return true, "trial transaction committed"
	}

	if IsTransactionsUnsupported(err) {
		return false, "trial transaction rejected: " + err.Error()
	}

	d.logger.Warn("trial transaction failed with unexpected error, assuming transactions are unsupported",
		zap.Error(err),
		zap.String("topology", string(hint.Kind)),
	)
	return false, "trial transaction failed: " + err.Error()
}
