package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// swappingSettings reproduces the reference simulator's predefined swap-rank
// vectors, keyed by policy name; the number in a key such as "swap_3_l2r" is
// the count of intermediate repeaters, and each vector holds one rank per
// node along the path, endpoints included.
var swappingSettings = map[string][]int{
	"no_swap": {0, 0, 0},
	"swap_1":  {1, 0, 1},

	"swap_2_asap": {1, 0, 0, 1},
	"swap_2_l2r":  {2, 0, 1, 2},
	"swap_2_r2l":  {2, 1, 0, 2},

	"swap_3_asap": {1, 0, 0, 0, 1},
	"swap_3_baln": {2, 0, 1, 0, 2},
	"swap_3_l2r":  {3, 0, 1, 2, 3},
	"swap_3_r2l":  {3, 2, 1, 0, 3},

	"swap_4_asap": {1, 0, 0, 0, 0, 1},
	"swap_4_baln": {3, 0, 1, 0, 2, 3},
	"swap_4_l2r":  {4, 0, 1, 2, 3, 4},
	"swap_4_r2l":  {4, 3, 2, 1, 0, 4},

	"swap_5_asap": {1, 0, 0, 0, 0, 0, 1},
	"swap_5_baln": {3, 0, 1, 0, 2, 0, 3},
	"swap_5_l2r":  {5, 0, 1, 2, 3, 4, 5},
	"swap_5_r2l":  {5, 4, 3, 2, 1, 0, 5},
}

// swappingOrder resolves a policy name and intermediate-repeater count to a
// swap-rank vector, synthesizing the "asap"/"l2r"/"r2l" families for lengths
// the table doesn't enumerate explicitly.
func swappingOrder(policy string, repeaters int) ([]int, error) {
	if v, ok := swappingSettings[policy]; ok {
		return append([]int{}, v...), nil
	}
	key := fmt.Sprintf("swap_%d_%s", repeaters, policy)
	if v, ok := swappingSettings[key]; ok {
		return append([]int{}, v...), nil
	}
	n := repeaters + 2
	switch policy {
	case "asap":
		v := make([]int, n)
		v[0], v[n-1] = 1, 1
		return v, nil
	case "l2r":
		v := make([]int, n)
		for i := range v {
			v[i] = i
		}
		v[0] = n - 1
		return v, nil
	case "r2l":
		v := make([]int, n)
		for i := range v {
			v[i] = n - 1 - i
		}
		v[n-1] = n - 1
		return v, nil
	default:
		return nil, fmt.Errorf("sim: swap policy %q not configured for %d repeaters", policy, repeaters)
	}
}

// QubitAllocation selects how the controller computes a buffer-space
// multiplexing vector.
type QubitAllocation int

const (
	// AllocFollowQChannel leaves the per-hop capacity at 0, meaning "use
	// every qubit this node has assigned to the qchannel".
	AllocFollowQChannel QubitAllocation = iota
	// AllocMinCapacity splits the minimum per-node memory capacity along
	// the route evenly between its two neighbor-facing halves.
	AllocMinCapacity
)

// PathRequest is one path the controller should install: its endpoints, a
// swap policy or explicit vector, purification plan, and mux scheme.
type PathRequest struct {
	ReqID     ReqID
	PathID    PathID
	Src, Dst  NodeID
	Swap      []int  // explicit vector; takes precedence over Policy
	Policy    string // "asap", "l2r", "r2l", "baln", ...
	Purif     map[string]int
	Mux       MuxKind
	Alloc     QubitAllocation
}

// Controller is the centralized routing control plane: it runs once per
// path request, computes a route via Router, derives the swap sequence and
// multiplexing vector, and dispatches InstallPath to every node on the
// route.
type Controller struct {
	net      *Network
	router   Router
	capacity map[NodeID]int // per-node total memory capacity, for AllocMinCapacity
}

// NewController builds a Controller that resolves routes through router and
// dispatches over net.
func NewController(net *Network, router Router, capacity map[NodeID]int) *Controller {
	return &Controller{net: net, router: router, capacity: capacity}
}

// InstallPath computes a route for req and sends InstallPath to every node
// along it. The router's own configured k decides how many route candidates
// come back; candidate index 0 (the best) is always the one installed.
func (c *Controller) InstallPath(sim *Simulator, req PathRequest) error {
	candidates, err := c.router.Query(string(req.Src), string(req.Dst))
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return fmt.Errorf("sim: no route from %s to %s", req.Src, req.Dst)
	}
	route := make([]NodeID, len(candidates[0].Route))
	for i, n := range candidates[0].Route {
		route[i] = NodeID(n)
	}
	logrus.Debugf("controller: computed route for %s: %v", req.PathID, route)

	swap := req.Swap
	if len(swap) == 0 {
		swap, err = swappingOrder(req.Policy, len(route)-2)
		if err != nil {
			return err
		}
	}

	var mv []MVHop
	if req.Mux == MuxBufferSpace {
		mv = c.computeMV(route, req.Alloc)
	}

	in := PathInstructions{
		ReqID: req.ReqID,
		Route: route,
		Swap:  swap,
		Purif: req.Purif,
		MV:    mv,
		Mux:   req.Mux,
	}
	if err := ValidatePathInstructions(in); err != nil {
		return fmt.Errorf("sim: path %s: %w", req.PathID, err)
	}

	for _, node := range route {
		c.net.SendFromController(sim, node, InstallPathMsg{Dest: node, PathID: req.PathID, Instructions: in})
	}
	return nil
}

func (c *Controller) computeMV(route []NodeID, alloc QubitAllocation) []MVHop {
	mv := make([]MVHop, len(route)-1)
	if alloc == AllocFollowQChannel || c.capacity == nil {
		return mv // every hop defaults to {0, 0}
	}

	min := -1
	for _, node := range route {
		if cap, ok := c.capacity[node]; ok && (min < 0 || cap < min) {
			min = cap
		}
	}
	if min < 0 {
		return mv
	}
	q := min / 2
	for i := range mv {
		mv[i] = MVHop{Left: q, Right: q}
	}
	return mv
}
