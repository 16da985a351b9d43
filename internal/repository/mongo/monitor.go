package mongo

import (
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/description"
	"go.uber.org/zap"
)

// CapabilityResetter получает сигнал, когда кеш поддержки транзакций мог устареть
type CapabilityResetter interface {
	Reset()
}

// NewTopologyMonitor возвращает монитор драйвера, сбрасывающий кеш при смене вида развёртывания
// Например после переподключения к другому узлу
// Выборы primary внутри replica set кеш не сбрасывают
func NewTopologyMonitor(resetter CapabilityResetter, logger *zap.Logger) *event.ServerMonitor {
	return &event.ServerMonitor{
		TopologyDescriptionChanged: func(e *event.TopologyDescriptionChangedEvent) {
			prev := topologyFamily(e.PreviousDescription.Kind)
			next := topologyFamily(e.NewDescription.Kind)
			if prev == next || prev == "" || next == "" {
				return
			}
			logger.Info("mongo topology changed",
				zap.String("from", prev),
				zap.String("to", next),
			)
			resetter.Reset()
		},
	}
}

// topologyFamily сводит виды топологии драйвера к семействам
// Неизвестный вид даёт ""
func topologyFamily(kind description.TopologyKind) string {
	switch kind {
	case description.Single:
		return "single"
	case description.ReplicaSet, description.ReplicaSetNoPrimary, description.ReplicaSetWithPrimary:
		return "replica_set"
	case description.Sharded:
		return "sharded"
	case description.LoadBalanced:
		return "load_balanced"
	default:
		return ""
	}
}
