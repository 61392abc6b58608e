package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// BuildNetwork wires a loaded NetworkConfig into a runnable Simulator,
// Network, and Controller: one QuantumMemory/LinkLayer/Forwarder per node,
// one QuantumChannel/ClassicChannel per declared link, a GraphRouter built
// from the quantum topology, and the controller's configured path requests
// dispatched at time zero. Callers get back a ready-to-Run simulator; no
// further wiring is needed.
func BuildNetwork(cfg *NetworkConfig) (*Simulator, *Network, *Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	sim := NewSimulator(0, cfg.Duration, cfg.Accuracy)
	net := NewNetwork(NewSimulationKey(cfg.Seed))

	capacity := make(map[NodeID]int, len(cfg.Nodes))
	memories := make(map[NodeID]*QuantumMemory, len(cfg.Nodes))
	for _, nc := range cfg.Nodes {
		mem := NewQuantumMemory(nc.Name, nc.MemoryCapacity)
		mux := NewMuxScheme(nc.Mux)

		llCfg := LinkLayerConfig{
			AlphaDBPerKM:    nc.AlphaDBPerKM,
			EtaS:            nc.EtaSource,
			EtaD:            nc.EtaDetector,
			AttemptRate:     nc.AttemptRate,
			Frequency:       nc.Frequency,
			InitFidelity:    nc.InitFidelity,
			LightSpeedKMs:   nc.LightSpeedKMs,
			DecoherenceRate: nc.DecoherenceRate,
		}
		ll := NewLinkLayer(nc.Name, mem, llCfg, net)
		net.AttachLinkLayer(ll)

		fwd := NewForwarder(nc.Name, mem, net, mux, nc.SwapProbability, nc.DecoherenceRate, nc.IsolatePaths, cfg.timingMode())
		net.AttachForwarder(fwd)

		capacity[nc.Name] = nc.MemoryCapacity
		memories[nc.Name] = mem
	}

	router := NewGraphRouter(cfg.Controller.RouterK)
	channels := make([]*QuantumChannel, 0, len(cfg.QChannels))
	for _, qc := range cfg.QChannels {
		channel := NewQuantumChannel(qc.ID, qc.Node1, qc.Node2, qc.LengthKM, qc.Bandwidth, qc.MaxBufferSize, qc.DropRate, qc.DecoherenceRate, nil)
		channel.Node1Capacity = qc.Node1Capacity
		channel.Node2Capacity = qc.Node2Capacity
		if qc.CoherenceWindow > 0 {
			if ll := net.linkLayer(qc.Node1); ll != nil {
				if err := ll.ValidateChannel(channel, qc.CoherenceWindow); err != nil {
					return nil, nil, nil, err
				}
			}
		}
		net.AddQuantumChannel(channel)
		router.AddEdge(string(qc.Node1), string(qc.Node2), qc.LengthKM)
		channels = append(channels, channel)

		assignMemorySlots(memories[qc.Node1], channel, qc.Node1)
		assignMemorySlots(memories[qc.Node2], channel, qc.Node2)
	}

	// Channels only start attempting elementary entanglement once their
	// endpoints' slots are assigned above; activating earlier would find no
	// qubits carrying this channel's ID and schedule nothing.
	for _, channel := range channels {
		if ll := net.linkLayer(channel.Node1); ll != nil {
			ll.HandleManageActiveChannels(sim, channel, true)
		}
		if ll := net.linkLayer(channel.Node2); ll != nil {
			ll.HandleManageActiveChannels(sim, channel, true)
		}
	}

	for _, cc := range cfg.CChannels {
		channel := NewClassicChannel(cc.ID, cc.Node1, cc.Node2, cc.Bandwidth, cc.MaxBufferSize, cc.DropRate, classicDelay(cc.DelaySeconds))
		if cc.Node1 == "" {
			net.AddControllerChannel(cc.Node2, channel)
			continue
		}
		net.AddClassicChannel(channel)
	}

	controller := NewController(net, router, capacity)
	net.SetController(controller)

	net.StartTimingSignals(sim, cfg.timingMode(), cfg.Timing.TSlot, cfg.Timing.TExternal, cfg.Timing.TInternal)

	for _, spec := range cfg.Controller.Requests {
		req := PathRequest{
			ReqID:  spec.ReqID,
			PathID: spec.PathID,
			Src:    spec.Src,
			Dst:    spec.Dst,
			Swap:   spec.Swap,
			Policy: spec.Policy,
			Purif:  spec.Purif,
			Mux:    spec.Mux,
			Alloc:  allocFromString(spec.Alloc),
		}
		if err := controller.InstallPath(sim, req); err != nil {
			return nil, nil, nil, fmt.Errorf("sim: installing path %s: %w", spec.PathID, err)
		}
		logrus.Infof("build: installed path %s (%s -> %s)", spec.PathID, spec.Src, spec.Dst)
	}

	return sim, net, controller, nil
}

// assignMemorySlots gives channel a pool of node's memory slots to generate
// elementary entanglement into, up to its configured per-end capacity (or
// every slot node still has free, when capacity is 0). Buffer-space mux
// depends on this at install time: QuantumMemory.Allocate only ever hands
// out slots already carrying a channel's QChannel, and nothing else sets it.
func assignMemorySlots(mem *QuantumMemory, channel *QuantumChannel, node NodeID) {
	if mem == nil {
		return
	}
	capacity := channel.CapacityFor(node)
	if capacity <= 0 {
		for mem.Assign(channel.ID) != nil {
		}
		return
	}
	for i := 0; i < capacity; i++ {
		if mem.Assign(channel.ID) == nil {
			break
		}
	}
}

func allocFromString(s string) QubitAllocation {
	if s == "min_capacity" {
		return AllocMinCapacity
	}
	return AllocFollowQChannel
}

func classicDelay(seconds float64) DelayModel {
	if seconds <= 0 {
		return nil
	}
	return &ConstantDelay{seconds: seconds}
}
