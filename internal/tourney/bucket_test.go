package tourney

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
)

func makeTestPlayers(n int) []Player {
	players := make([]Player, 0, n)
	for i := 0; i < n; i++ {
		players = append(players, Player{
			ID:       fmt.Sprintf("p%02d", i),
			FullName: fmt.Sprintf("Player %d", i),
			Strength: i%5 + 1,
		})
	}
	return players
}

func TestRankPlayersDeterministic(t *testing.T) {
	players := makeTestPlayers(NumPlayers)
	first := RankPlayers(players, "t1")

	shuffled := slices.Clone(players)
	rnd := rand.New(rand.NewPCG(42, 42))
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	second := RankPlayers(shuffled, "t1")

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("rank %v differs: expected = %v, got = %v", i, first[i].ID, second[i].ID)
		}
	}
}

func TestRankPlayersStrengthFirst(t *testing.T) {
	players := makeTestPlayers(NumPlayers)
	ranked := RankPlayers(players, "t1")
	for i := 1; i < len(ranked); i++ {
		if clampStrength(ranked[i-1].Strength) < clampStrength(ranked[i].Strength) {
			t.Fatalf("rank %v weaker than rank %v", i-1, i)
		}
	}
}

func TestRankPlayersVariesByTournament(t *testing.T) {
	// All strengths equal, so the order is pure tie-break. Two tournaments
	// should almost surely disagree somewhere.
	players := make([]Player, 0, NumPlayers)
	for i := 0; i < NumPlayers; i++ {
		players = append(players, Player{ID: fmt.Sprintf("p%02d", i), Strength: 3})
	}
	a := RankPlayers(players, "tournament-a")
	b := RankPlayers(players, "tournament-b")
	same := true
	for i := range a {
		if a[i].ID != b[i].ID {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("tie-break order identical across tournaments")
	}
}

func TestBucketOfRank(t *testing.T) {
	for _, tc := range []struct {
		rank   int
		bucket int
	}{
		{0, 1}, {7, 1}, {8, 2}, {15, 2}, {16, 3}, {23, 3},
	} {
		if got := BucketOfRank(tc.rank); got != tc.bucket {
			t.Errorf("rank %v: expected = %v, got = %v", tc.rank, tc.bucket, got)
		}
	}
}

func TestBucketMapSizes(t *testing.T) {
	players := makeTestPlayers(NumPlayers)
	buckets := BucketMap(players, "t1")
	counts := make(map[int]int)
	for _, b := range buckets {
		counts[b]++
	}
	for b := 1; b <= NumBuckets; b++ {
		if counts[b] != BucketSize {
			t.Errorf("bucket %v: expected = %v players, got = %v", b, BucketSize, counts[b])
		}
	}
}
