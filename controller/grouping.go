package controller

import (
	"sort"

	"vast/env"

	"golang.org/x/exp/rand"
)

// GroupRandomly shuffles the agents and deals them round-robin into at most
// nrSubteams subteams.
func GroupRandomly(rng *rand.Rand, nrAgents, nrSubteams int) Subteams {
	nrSubteams = clampSubteams(nrAgents, nrSubteams)
	teams := make(Subteams, nrSubteams)
	for i, id := range rng.Perm(nrAgents) {
		teams[i%nrSubteams] = append(teams[i%nrSubteams], id)
	}
	return teams
}

// GroupByPosition orders active agents along the grid and cuts the ordering
// into contiguous chunks, so spatially close agents share a subteam. Inactive
// agents take the last of the nrSubteams slots, or join the only subteam when
// nrSubteams is 1. The result never holds more than nrSubteams subteams.
func GroupByPosition(infos []env.AgentInfo, nrSubteams int) Subteams {
	active := make([]env.AgentInfo, 0, len(infos))
	var inactive []int
	for _, info := range infos {
		if info.Active {
			active = append(active, info)
		} else {
			inactive = append(inactive, info.ID)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i].Position, active[j].Position
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})

	if len(active) == 0 {
		if len(inactive) == 0 {
			return nil
		}
		return Subteams{inactive}
	}

	chunks := nrSubteams
	if len(inactive) > 0 {
		chunks--
	}
	if chunks < 1 {
		team := make([]int, 0, len(infos))
		for _, info := range active {
			team = append(team, info.ID)
		}
		return Subteams{append(team, inactive...)}
	}

	chunks = clampSubteams(len(active), chunks)
	teams := make(Subteams, chunks, chunks+1)
	for i, info := range active {
		team := i * chunks / len(active)
		teams[team] = append(teams[team], info.ID)
	}
	if len(inactive) > 0 {
		teams = append(teams, inactive)
	}
	return teams
}

func clampSubteams(nrAgents, nrSubteams int) int {
	if nrSubteams < 1 {
		return 1
	}
	if nrSubteams > nrAgents {
		return max(nrAgents, 1)
	}
	return nrSubteams
}
