package agents

import (
	"sort"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

// UnknownPriority is the rank given to agents outside the hierarchy.
const UnknownPriority = 99

var priorities = map[contracts.AgentID]int{
	contracts.AgentStructural: 1,
	contracts.AgentMetabolic:  2,
	contracts.AgentFueling:    3,
}

// Known lists the recognised agents in hierarchy order.
var Known = []contracts.AgentID{
	contracts.AgentStructural,
	contracts.AgentMetabolic,
	contracts.AgentFueling,
}

// Priority returns the hierarchy rank of id; lower outranks higher.
func Priority(id contracts.AgentID) int {
	if p, ok := priorities[id]; ok {
		return p
	}
	return UnknownPriority
}

// IsKnown reports whether id is part of the hierarchy.
func IsKnown(id contracts.AgentID) bool {
	_, ok := priorities[id]
	return ok
}

// SortByPriority returns a copy of votes ordered by hierarchy. Agents of equal
// rank (only possible for unknown agents) are ordered by id so the result
// never depends on arrival order.
func SortByPriority(votes []contracts.Vote) []contracts.Vote {
	out := append([]contracts.Vote(nil), votes...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := Priority(out[i].AgentID), Priority(out[j].AgentID)
		if pi != pj {
			return pi < pj
		}
		return out[i].AgentID < out[j].AgentID
	})
	return out
}

// Filter returns the votes of the given color in hierarchy order.
func Filter(votes []contracts.Vote, c contracts.Color) []contracts.Vote {
	var out []contracts.Vote
	for _, v := range SortByPriority(votes) {
		if v.Color == c {
			out = append(out, v)
		}
	}
	return out
}

// Find returns the vote cast by id, if any.
func Find(votes []contracts.Vote, id contracts.AgentID) (contracts.Vote, bool) {
	for _, v := range votes {
		if v.AgentID == id {
			return v, true
		}
	}
	return contracts.Vote{}, false
}
