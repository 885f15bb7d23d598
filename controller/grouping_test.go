package controller

import (
	"sort"
	"testing"

	"vast/env"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func members(teams Subteams) []int {
	var ids []int
	for _, team := range teams {
		ids = append(ids, team...)
	}
	sort.Ints(ids)
	return ids
}

func TestGroupRandomly(t *testing.T) {
	t.Run("partitions every agent", func(t *testing.T) {
		teams := GroupRandomly(rand.New(rand.NewSource(1)), 7, 3)

		require.Len(t, teams, 3)
		require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, members(teams))
		require.Equal(t, 3, teams.NonEmpty())
	})

	t.Run("never creates more subteams than agents", func(t *testing.T) {
		teams := GroupRandomly(rand.New(rand.NewSource(1)), 2, 5)

		require.Len(t, teams, 2)
	})
}

func TestGroupByPosition(t *testing.T) {
	t.Run("neighbours share a subteam", func(t *testing.T) {
		infos := []env.AgentInfo{
			{ID: 0, Position: [2]int{4, 4}, Active: true},
			{ID: 1, Position: [2]int{0, 0}, Active: true},
			{ID: 2, Position: [2]int{4, 3}, Active: true},
			{ID: 3, Position: [2]int{0, 1}, Active: true},
		}

		teams := GroupByPosition(infos, 2)

		require.Equal(t, Subteams{{1, 3}, {2, 0}}, teams)
	})

	t.Run("inactive agents take the last subteam", func(t *testing.T) {
		infos := []env.AgentInfo{
			{ID: 0, Position: [2]int{0, 0}, Active: false},
			{ID: 1, Position: [2]int{1, 0}, Active: true},
			{ID: 2, Position: [2]int{2, 0}, Active: true},
		}

		teams := GroupByPosition(infos, 2)

		require.Equal(t, Subteams{{1, 2}, {0}}, teams)
	})

	t.Run("inactive agents join a single subteam", func(t *testing.T) {
		infos := []env.AgentInfo{
			{ID: 0, Position: [2]int{3, 0}, Active: true},
			{ID: 1, Position: [2]int{0, 0}, Active: false},
			{ID: 2, Position: [2]int{1, 0}, Active: true},
		}

		require.Equal(t, Subteams{{2, 0, 1}}, GroupByPosition(infos, 1))
	})

	t.Run("never exceeds the subteam count", func(t *testing.T) {
		infos := []env.AgentInfo{
			{ID: 0, Position: [2]int{0, 0}, Active: true},
			{ID: 1, Position: [2]int{1, 1}, Active: false},
			{ID: 2, Position: [2]int{2, 2}, Active: true},
			{ID: 3, Position: [2]int{3, 3}, Active: false},
			{ID: 4, Position: [2]int{4, 4}, Active: true},
		}
		for nrSubteams := 1; nrSubteams <= 6; nrSubteams++ {
			teams := GroupByPosition(infos, nrSubteams)

			require.LessOrEqual(t, len(teams), nrSubteams)
			require.Equal(t, []int{0, 1, 2, 3, 4}, members(teams))
		}
	})

	t.Run("all inactive", func(t *testing.T) {
		infos := []env.AgentInfo{{ID: 0}, {ID: 1}}

		require.Equal(t, Subteams{{0, 1}}, GroupByPosition(infos, 3))
	})
}

func TestSubteams(t *testing.T) {
	teams := Subteams{{2}, {}, {0, 1}}

	require.Equal(t, 2, teams.NonEmpty())
	require.Equal(t, []int{2, 2, 0, -1}, teams.Of(4))
	require.Equal(t, []int{0, -1}, Subteams{{5, 0}}.Of(2), "Unknown IDs should be skipped")
}
