package tourney

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// GamePlan is one court pairing for a stage about to be created.
type GamePlan struct {
	Court   int
	TeamAID string
	TeamBID string
}

// PairInitial seats the 8 teams for the first stage: strength descending,
// strongest pair on court 4, weakest on court 1. Ties in strength are
// broken by shuffling inside each equal-strength group only, so the draw is
// fair but never reorders teams across strength levels.
func PairInitial(teams []Team, strength map[string]int, rnd *rand.Rand) ([]GamePlan, error) {
	if len(teams) != NumTeams {
		return nil, Errorf(CodeTeamCount, "need %v teams, have %v", NumTeams, len(teams))
	}

	groups := make(map[int][]string)
	for _, t := range teams {
		s := strength[t.ID]
		groups[s] = append(groups[s], t.ID)
	}
	levels := make([]int, 0, len(groups))
	for s := range groups {
		levels = append(levels, s)
	}
	slices.SortFunc(levels, func(a, b int) int { return cmp.Compare(b, a) })

	ordered := make([]string, 0, NumTeams)
	for _, s := range levels {
		group := groups[s]
		slices.Sort(group)
		rnd.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})
		ordered = append(ordered, group...)
	}

	plans := make([]GamePlan, 0, NumCourts)
	for i := 0; i < NumCourts; i++ {
		plans = append(plans, GamePlan{
			Court:   NumCourts - i,
			TeamAID: ordered[2*i],
			TeamBID: ordered[2*i+1],
		})
	}
	return plans, nil
}

// PairByCourts pairs the two teams currently standing on each court. Any
// court without exactly two teams means an earlier movement corrupted the
// ladder, which must stop the operation.
func PairByCourts(states []TeamState) ([]GamePlan, error) {
	byCourt := make(map[int][]string)
	for _, s := range states {
		byCourt[s.CurrentCourt] = append(byCourt[s.CurrentCourt], s.TeamID)
	}
	plans := make([]GamePlan, 0, NumCourts)
	for court := 1; court <= NumCourts; court++ {
		ts := byCourt[court]
		if len(ts) != 2 {
			return nil, Errorf(CodeCourtImbalance, "court %v has %v teams instead of 2", court, len(ts))
		}
		slices.Sort(ts)
		plans = append(plans, GamePlan{Court: court, TeamAID: ts[0], TeamBID: ts[1]})
	}
	return plans, nil
}

// WinnerCourt moves a winner one court toward court 1; court 1 absorbs.
func WinnerCourt(court int) int {
	return max(court-1, 1)
}

// LoserCourt moves a loser one court toward the last court, which absorbs.
func LoserCourt(court int) int {
	return min(court+1, NumCourts)
}

// StageComplete reports whether every game of a stage has a recorded
// winner. An empty stage is never complete.
func StageComplete(games []Game) bool {
	if len(games) == 0 {
		return false
	}
	for _, g := range games {
		if g.WinnerTeamID == nil {
			return false
		}
	}
	return true
}
