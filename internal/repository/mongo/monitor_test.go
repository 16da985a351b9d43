package mongo

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/description"
	"go.uber.org/zap"
)

type countingResetter struct {
	resets atomic.Int32
}

func (r *countingResetter) Reset() {
	r.resets.Add(1)
}

func TestTopologyMonitor(t *testing.T) {
	tests := []struct {
		name          string
		from          description.TopologyKind
		to            description.TopologyKind
		expectedReset bool
	}{
		{name: "initial discovery", from: 0, to: description.ReplicaSetWithPrimary},
		{name: "election", from: description.ReplicaSetWithPrimary, to: description.ReplicaSetNoPrimary},
		{name: "replica set to standalone", from: description.ReplicaSetWithPrimary, to: description.Single, expectedReset: true},
		{name: "standalone to replica set", from: description.Single, to: description.ReplicaSetWithPrimary, expectedReset: true},
		{name: "unchanged", from: description.Sharded, to: description.Sharded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetter := &countingResetter{}
			monitor := NewTopologyMonitor(resetter, zap.NewNop())

			monitor.TopologyDescriptionChanged(&event.TopologyDescriptionChangedEvent{
				PreviousDescription: description.Topology{Kind: tt.from},
				NewDescription:      description.Topology{Kind: tt.to},
			})

			if tt.expectedReset {
				require.Equal(t, int32(1), resetter.resets.Load())
			} else {
				require.Zero(t, resetter.resets.Load())
			}
		})
	}
}
