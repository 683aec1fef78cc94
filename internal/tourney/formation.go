package tourney

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Placement assigns one player to one team seat.
type Placement struct {
	TeamOrdinal int
	PlayerID    string
	Slot        int
	Bucket      int
}

// FormationPlan is the full output of team formation: 24 placements and a
// display name per team ordinal.
type FormationPlan struct {
	Placements []Placement
	Names      [NumTeams]string
}

type formationState struct {
	occupied   [NumTeams + 1][TeamSize + 1]bool
	usedBucket [NumTeams + 1][NumBuckets + 1]bool
	placed     map[string]struct{}
	placements []Placement
}

func (f *formationState) firstFreeSlot(team int, preferred *int) (int, bool) {
	if preferred != nil && 1 <= *preferred && *preferred <= TeamSize && !f.occupied[team][*preferred] {
		return *preferred, true
	}
	for slot := 1; slot <= TeamSize; slot++ {
		if !f.occupied[team][slot] {
			return slot, true
		}
	}
	return 0, false
}

func (f *formationState) place(team int, playerID string, slot, bucket int) {
	f.placements = append(f.placements, Placement{
		TeamOrdinal: team,
		PlayerID:    playerID,
		Slot:        slot,
		Bucket:      bucket,
	})
	f.placed[playerID] = struct{}{}
	f.occupied[team][slot] = true
	f.usedBucket[team][bucket] = true
}

// BuildFormation partitions exactly 24 players into 8 teams of 3, one
// player per skill bucket when seeds permit. Bucket membership is fully
// deterministic; rnd only shuffles the draw order inside each bucket.
func BuildFormation(players []Player, tournamentID string, rnd *rand.Rand) (*FormationPlan, error) {
	if len(players) != NumPlayers {
		return nil, Errorf(CodePlayerCount, "need %v players, have %v", NumPlayers, len(players))
	}

	ranked := RankPlayers(players, tournamentID)
	buckets := make(map[string]int, len(ranked))
	for i, p := range ranked {
		buckets[p.ID] = BucketOfRank(i)
	}

	var seeded []Player
	for _, p := range players {
		if p.SeedTeamIndex != nil {
			seeded = append(seeded, p)
		}
	}
	if len(seeded) > MaxSeeds {
		return nil, Errorf(CodeSeedLimit, "at most %v seeded players allowed, have %v", MaxSeeds, len(seeded))
	}
	var seedTargets [NumTeams + 1]bool
	for _, p := range seeded {
		ti := *p.SeedTeamIndex
		if ti < 1 || ti > NumTeams {
			return nil, Errorf(CodeValidation, "seed team index %v out of range for player %v", ti, p.ID)
		}
		if seedTargets[ti] {
			return nil, Errorf(CodeDuplicateSeed, "two players seeded into team %v", ti)
		}
		seedTargets[ti] = true
	}

	st := &formationState{placed: make(map[string]struct{})}

	for _, p := range seeded {
		team := *p.SeedTeamIndex
		slot, ok := st.firstFreeSlot(team, p.SeedSlot)
		if !ok {
			return nil, Errorf(CodeValidation, "no free slot in team %v for seeded player %v", team, p.ID)
		}
		st.place(team, p.ID, slot, buckets[p.ID])
	}

	// Draw pools per bucket, seeded players excluded. Shuffling here is the
	// only source of randomness: it varies team composition between runs
	// without ever moving a player across buckets.
	var pools [NumBuckets + 1][]string
	for i, p := range ranked {
		if _, ok := st.placed[p.ID]; ok {
			continue
		}
		b := BucketOfRank(i)
		pools[b] = append(pools[b], p.ID)
	}
	for b := 1; b <= NumBuckets; b++ {
		rnd.Shuffle(len(pools[b]), func(i, j int) {
			pools[b][i], pools[b][j] = pools[b][j], pools[b][i]
		})
	}
	pop := func(b int) (string, bool) {
		if len(pools[b]) == 0 {
			return "", false
		}
		id := pools[b][len(pools[b])-1]
		pools[b] = pools[b][:len(pools[b])-1]
		return id, true
	}

	for team := 1; team <= NumTeams; team++ {
		// First pass: one seat from each bucket the team has not used yet.
		for b := 1; b <= NumBuckets; b++ {
			if st.usedBucket[team][b] {
				continue
			}
			slot, ok := st.firstFreeSlot(team, nil)
			if !ok {
				break
			}
			id, ok := pop(b)
			if !ok {
				continue
			}
			st.place(team, id, slot, b)
		}
		// Second pass: a bucket ran dry, fill remaining seats from any pool,
		// still preferring buckets the team has not used.
		for {
			slot, ok := st.firstFreeSlot(team, nil)
			if !ok {
				break
			}
			order := make([]int, 0, NumBuckets)
			for b := 1; b <= NumBuckets; b++ {
				if !st.usedBucket[team][b] {
					order = append(order, b)
				}
			}
			if len(order) == 0 {
				order = []int{1, 2, 3}
			}
			placed := false
			for _, b := range order {
				if id, ok := pop(b); ok {
					st.place(team, id, slot, b)
					placed = true
					break
				}
			}
			if !placed {
				break
			}
		}
	}

	if len(st.placements) != NumPlayers {
		return nil, fmt.Errorf("assigned %v of %v players", len(st.placements), NumPlayers)
	}
	for team := 1; team <= NumTeams; team++ {
		cnt := 0
		for slot := 1; slot <= TeamSize; slot++ {
			if st.occupied[team][slot] {
				cnt++
			}
		}
		if cnt != TeamSize {
			return nil, fmt.Errorf("team %v has %v members instead of %v", team, cnt, TeamSize)
		}
	}
	if err := checkBucketCollisions(st.placements); err != nil {
		return nil, err
	}

	plan := &FormationPlan{Placements: st.placements}
	nameByID := make(map[string]string, len(players))
	for _, p := range players {
		nameByID[p.ID] = p.FullName
	}
	var parts [NumTeams][TeamSize]string
	for _, pl := range st.placements {
		parts[pl.TeamOrdinal-1][pl.Slot-1] = nameByID[pl.PlayerID]
	}
	for i := range plan.Names {
		var names []string
		for _, n := range parts[i] {
			if n != "" {
				names = append(names, n)
			}
		}
		plan.Names[i] = strings.Join(names, " / ")
	}
	return plan, nil
}

// checkBucketCollisions rejects plans where a team holds two players from
// one bucket. The fill passes avoid this whenever the seed configuration
// allows it, so a hit means degenerate seeding and must not be repaired
// silently.
func checkBucketCollisions(placements []Placement) error {
	var seen [NumTeams + 1][NumBuckets + 1]int
	for _, p := range placements {
		seen[p.TeamOrdinal][p.Bucket]++
	}
	var bad []string
	for team := 1; team <= NumTeams; team++ {
		for b := 1; b <= NumBuckets; b++ {
			if seen[team][b] > 1 {
				bad = append(bad, fmt.Sprintf("team %v has %v players from bucket %v", team, seen[team][b], b))
			}
		}
	}
	if len(bad) != 0 {
		return Errorf(CodeBucketCollision, "%v", strings.Join(bad, "; "))
	}
	return nil
}
