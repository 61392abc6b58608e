// Package sim is a discrete-event simulator for quantum repeater networks.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - time.go: simulated time, tick/accuracy arithmetic
//   - event.go, event_heap.go: the Event interface and the event heap
//   - simulator.go: the event loop, monitor dispatch, wall-clock timeout
//
// # Architecture
//
// The protocol stack that rides on top of the kernel:
//   - memory.go: per-node QuantumMemory and the MemoryQubit state machine
//   - entanglement.go: the Werner-pair Entanglement abstraction
//   - channel.go: classical and quantum channels (bandwidth, drop, delay)
//   - linklayer.go: elementary entanglement generation (reservation + skip-ahead heralding)
//   - fib.go: the per-node Forwarding Information Base
//   - mux.go: MuxScheme plug-ins (buffer-space, statistical)
//   - forwarder.go: the proactive forwarder protocol state machine
//   - controller.go: the centralized routing controller
//   - network.go: wires nodes/channels/controller together and drives timing modes
//   - router.go, graphrouter.go: the Router interface and a gonum-backed implementation
//   - topology.go: Topology implementations that build a node/channel layout
//   - config.go: YAML scenario loading
//   - build.go: wires a loaded NetworkConfig into a runnable Simulator/Network/Controller
//   - metrics.go: aggregates per-node forwarder counters into a run report
package sim
