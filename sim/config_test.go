package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_BaselineShape(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, int64(1), cfg.Seed)
	assert.Equal(t, int64(DefaultAccuracy), cfg.Accuracy)
	assert.Equal(t, "async", cfg.Timing.Mode)
	assert.Equal(t, 1, cfg.Controller.RouterK)
}

func TestNetworkConfig_Validate_RejectsUnknownChannelEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Nodes = []NodeConfig{{Name: "node1", MemoryCapacity: 4}}
	cfg.QChannels = []QChannelConfig{{ID: "l1", Node1: "node1", Node2: "node2"}}

	err := cfg.Validate()
	require.Error(t, err)
}

func TestNetworkConfig_Validate_RejectsZeroMemoryCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Nodes = []NodeConfig{{Name: "node1", MemoryCapacity: 0}}

	err := cfg.Validate()
	require.Error(t, err)
}

func TestNetworkConfig_Validate_AllowsEmptyNode1ForControllerChannel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Nodes = []NodeConfig{{Name: "node1", MemoryCapacity: 4}}
	cfg.CChannels = []CChannelConfig{{ID: "ctrl1", Node1: "", Node2: "node1"}}

	assert.NoError(t, cfg.Validate())
}

func TestNetworkConfig_Validate_RejectsNegativeQChannelCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Nodes = []NodeConfig{{Name: "node1", MemoryCapacity: 4}, {Name: "node2", MemoryCapacity: 4}}
	cfg.QChannels = []QChannelConfig{{ID: "l1", Node1: "node1", Node2: "node2", Node1Capacity: -1}}

	err := cfg.Validate()
	require.Error(t, err)
}

func TestNetworkConfig_Validate_RejectsUnknownTimingMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timing.Mode = "bogus"

	err := cfg.Validate()
	require.Error(t, err)
}

func TestNetworkConfig_timingMode(t *testing.T) {
	tests := []struct {
		mode string
		want TimingMode
	}{
		{"", TimingAsync},
		{"async", TimingAsync},
		{"lsync", TimingLSync},
		{"sync", TimingSync},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Timing.Mode = tt.mode
		assert.Equal(t, tt.want, cfg.timingMode())
	}
}

func TestLoadConfig_RoundTrip(t *testing.T) {
	yaml := `
seed: 7
accuracy: 1000000
duration_seconds: 5
timing:
  mode: async
nodes:
  - name: node1
    memory_capacity: 4
    mux: buffer_space
  - name: node2
    memory_capacity: 4
    mux: buffer_space
qchannels:
  - id: l1
    node1: node1
    node2: node2
    length_km: 10
    node1_capacity: 2
    node2_capacity: 2
controller:
  router_k: 2
  requests:
    - req_id: r1
      path_id: p1
      src: node1
      dst: node2
      policy: asap
`
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Len(t, cfg.Nodes, 2)
	assert.Equal(t, MuxBufferSpace, cfg.Nodes[0].Mux)
	assert.Equal(t, 2, cfg.Controller.RouterK)
	assert.Equal(t, NodeID("node1"), cfg.Controller.Requests[0].Src)
	assert.Equal(t, 2, cfg.QChannels[0].Node1Capacity)
	assert.Equal(t, 2, cfg.QChannels[0].Node2Capacity)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}
