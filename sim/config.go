package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NetworkConfig is the root of a scenario file: the network's topology,
// per-node protocol parameters, timing mode, and the set of paths the
// routing controller installs at start-up.
type NetworkConfig struct {
	Seed     int64   `yaml:"seed"`
	Accuracy int64   `yaml:"accuracy"`
	Duration float64 `yaml:"duration_seconds"`

	Timing TimingConfig `yaml:"timing"`

	Nodes     []NodeConfig     `yaml:"nodes"`
	QChannels []QChannelConfig `yaml:"qchannels"`
	CChannels []CChannelConfig `yaml:"cchannels"`

	Controller ControllerConfig `yaml:"controller"`
}

// NodeConfig groups the per-node protocol parameters: memory size, mux
// scheme, and the link layer's physical constants (shared across every
// channel the node terminates, matching LinkLayerConfig being one struct per
// LinkLayer rather than per channel).
type NodeConfig struct {
	Name            NodeID  `yaml:"name"`
	MemoryCapacity  int     `yaml:"memory_capacity"`
	Mux             MuxKind `yaml:"mux"`
	SwapProbability float64 `yaml:"swap_probability"`
	IsolatePaths    bool    `yaml:"isolate_paths"`

	AlphaDBPerKM    float64 `yaml:"alpha_db_per_km"`
	EtaSource       float64 `yaml:"eta_source"`
	EtaDetector     float64 `yaml:"eta_detector"`
	AttemptRate     float64 `yaml:"attempt_rate"`
	Frequency       float64 `yaml:"frequency"`
	InitFidelity    float64 `yaml:"init_fidelity"`
	LightSpeedKMs   float64 `yaml:"light_speed_km_s"`
	DecoherenceRate float64 `yaml:"decoherence_rate"` // storage (StoreErrorModel)
}

// QChannelConfig describes one quantum channel's wire characteristics: its
// two endpoints, length, and transit-loss model. The heralding physics live
// on NodeConfig, since LinkLayerConfig is one struct per node, not per
// channel.
type QChannelConfig struct {
	ID            QChannelID `yaml:"id"`
	Node1         NodeID     `yaml:"node1"`
	Node2         NodeID     `yaml:"node2"`
	LengthKM      float64    `yaml:"length_km"`
	Bandwidth     float64    `yaml:"bandwidth"`
	MaxBufferSize float64    `yaml:"max_buffer_size"`
	DropRate      float64    `yaml:"drop_rate"`

	DecoherenceRate float64 `yaml:"decoherence_rate"` // transit (TransferErrorModel)
	CoherenceWindow float64 `yaml:"coherence_window_seconds"`

	// Node1Capacity/Node2Capacity cap how many of each endpoint's memory
	// slots the builder assigns to this channel; 0 means "assign every slot
	// the node has left", which only makes sense for a node with one link.
	Node1Capacity int `yaml:"node1_capacity"`
	Node2Capacity int `yaml:"node2_capacity"`
}

// CChannelConfig describes one classical channel between two nodes, or
// between the controller and a node when Node1 is left empty.
type CChannelConfig struct {
	ID            CChannelID `yaml:"id"`
	Node1         NodeID     `yaml:"node1"`
	Node2         NodeID     `yaml:"node2"`
	Bandwidth     float64    `yaml:"bandwidth"`
	MaxBufferSize float64    `yaml:"max_buffer_size"`
	DropRate      float64    `yaml:"drop_rate"`
	DelaySeconds  float64    `yaml:"delay_seconds"`
}

// TimingConfig selects ASYNC/LSYNC/SYNC pacing and its period parameters.
type TimingConfig struct {
	Mode      string  `yaml:"mode"` // "async" (default), "lsync", "sync"
	TSlot     float64 `yaml:"t_slot_seconds"`
	TExternal float64 `yaml:"t_external_seconds"`
	TInternal float64 `yaml:"t_internal_seconds"`
}

// ControllerConfig configures the routing controller's router and the
// set of paths it installs once, at start-up.
type ControllerConfig struct {
	RouterK  int               `yaml:"router_k"`
	Requests []PathRequestSpec `yaml:"requests"`
}

// PathRequestSpec is the YAML-facing shape of a PathRequest.
type PathRequestSpec struct {
	ReqID  ReqID          `yaml:"req_id"`
	PathID PathID         `yaml:"path_id"`
	Src    NodeID         `yaml:"src"`
	Dst    NodeID         `yaml:"dst"`
	Swap   []int          `yaml:"swap"`
	Policy string         `yaml:"policy"`
	Purif  map[string]int `yaml:"purif"`
	Mux    MuxKind        `yaml:"mux"`
	Alloc  string         `yaml:"alloc"` // "follow_qchannel" (default), "min_capacity"
}

// DefaultConfig returns a baseline scenario: ASYNC timing, tick-microsecond
// accuracy, no nodes or channels — callers fill in topology and requests.
func DefaultConfig() *NetworkConfig {
	return &NetworkConfig{
		Seed:     1,
		Accuracy: DefaultAccuracy,
		Duration: 10,
		Timing:   TimingConfig{Mode: "async"},
		Controller: ControllerConfig{
			RouterK: 1,
		},
	}
}

// LoadConfig reads and validates a scenario file.
func LoadConfig(path string) (*NetworkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sim: reading scenario file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("sim: parsing scenario file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim: invalid scenario: %w", err)
	}
	return cfg, nil
}

// Validate checks shape invariants the builder assumes: every channel
// references a declared node, capacities are non-negative, and the timing
// mode is one of the three supported.
func (c *NetworkConfig) Validate() error {
	names := make(map[NodeID]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.Name == "" {
			return fmt.Errorf("node with empty name")
		}
		if n.MemoryCapacity <= 0 {
			return fmt.Errorf("node %s: memory_capacity must be > 0", n.Name)
		}
		names[n.Name] = true
	}
	for _, qc := range c.QChannels {
		if !names[qc.Node1] || !names[qc.Node2] {
			return fmt.Errorf("qchannel %s: endpoints must both be declared nodes", qc.ID)
		}
		if qc.Node1Capacity < 0 || qc.Node2Capacity < 0 {
			return fmt.Errorf("qchannel %s: capacities must be >= 0", qc.ID)
		}
	}
	for _, cc := range c.CChannels {
		if cc.Node1 != "" && !names[cc.Node1] {
			return fmt.Errorf("cchannel %s: node1 %s is not a declared node", cc.ID, cc.Node1)
		}
		if !names[cc.Node2] {
			return fmt.Errorf("cchannel %s: node2 %s is not a declared node", cc.ID, cc.Node2)
		}
	}
	switch c.Timing.Mode {
	case "", "async", "lsync", "sync":
	default:
		return fmt.Errorf("timing mode %q not one of async|lsync|sync", c.Timing.Mode)
	}
	return nil
}

func (c *NetworkConfig) timingMode() TimingMode {
	switch c.Timing.Mode {
	case "lsync":
		return TimingLSync
	case "sync":
		return TimingSync
	default:
		return TimingAsync
	}
}
