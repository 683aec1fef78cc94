package tourney

import (
	"cmp"
	"hash/fnv"
	"io"
	"slices"
)

// seedHash is the deterministic tie-break for equally strong players.
// Mixing the tournament ID in makes the order differ between tournaments
// while staying stable within one.
func seedHash(playerID, tournamentID string) uint32 {
	h := fnv.New32a()
	_, _ = io.WriteString(h, playerID)
	_, _ = io.WriteString(h, tournamentID)
	return h.Sum32()
}

// RankPlayers produces the strict total order used for bucketing:
// strength descending, then seedHash ascending, then ID ascending. The
// result depends only on the input multiset, so every caller computing it
// sees the same bucket membership.
func RankPlayers(players []Player, tournamentID string) []Player {
	ranked := slices.Clone(players)
	slices.SortFunc(ranked, func(a, b Player) int {
		sa, sb := clampStrength(a.Strength), clampStrength(b.Strength)
		if sa != sb {
			return cmp.Compare(sb, sa)
		}
		ha, hb := seedHash(a.ID, tournamentID), seedHash(b.ID, tournamentID)
		if ha != hb {
			return cmp.Compare(ha, hb)
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return ranked
}

// BucketOfRank maps a zero-based rank to a skill bucket: ranks [0,8) are
// bucket 1, [8,16) bucket 2, everything past that bucket 3.
func BucketOfRank(rank int) int {
	return min(rank/BucketSize+1, NumBuckets)
}

// BucketMap assigns every player a bucket according to RankPlayers.
func BucketMap(players []Player, tournamentID string) map[string]int {
	ranked := RankPlayers(players, tournamentID)
	buckets := make(map[string]int, len(ranked))
	for i, p := range ranked {
		buckets[p.ID] = BucketOfRank(i)
	}
	return buckets
}
