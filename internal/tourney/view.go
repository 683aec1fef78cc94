package tourney

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

// RankedPlayer is a player together with its deterministic rank and bucket,
// as the formation algorithm would see it.
type RankedPlayer struct {
	Player
	Rank   int
	Bucket int
}

// ListPlayers returns the tournament's players in bucket order. Because the
// rank is a pure function of the player set, this listing and team
// formation always agree on bucket membership.
func (m *Manager) ListPlayers(ctx context.Context, tournamentID string) ([]RankedPlayer, error) {
	if _, err := m.db.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	players, err := m.db.ListPlayers(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	ranked := RankPlayers(players, tournamentID)
	res := make([]RankedPlayer, 0, len(ranked))
	for i, p := range ranked {
		res = append(res, RankedPlayer{Player: p, Rank: i + 1, Bucket: BucketOfRank(i)})
	}
	return res, nil
}

// TeamStanding is one team's row in the live table.
type TeamStanding struct {
	Team
	CurrentCourt int
}

// StageView is one stage with its games.
type StageView struct {
	Stage
	Games []Game
}

// Snapshot is the public view of a tournament: standings ordered by points,
// then by current court, then by team ordinal, plus the full stage history.
type Snapshot struct {
	Tournament Tournament
	Teams      []TeamStanding
	Stages     []StageView
}

func (m *Manager) State(ctx context.Context, tournamentID string) (*Snapshot, error) {
	t, err := m.db.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	teams, err := m.db.ListTeams(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	states, err := m.db.ListTeamStates(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list team states: %w", err)
	}
	courts := make(map[string]int, len(states))
	for _, s := range states {
		courts[s.TeamID] = s.CurrentCourt
	}
	standings := make([]TeamStanding, 0, len(teams))
	for _, team := range teams {
		standings = append(standings, TeamStanding{Team: team, CurrentCourt: courts[team.ID]})
	}
	slices.SortFunc(standings, func(a, b TeamStanding) int {
		if a.Points != b.Points {
			return cmp.Compare(b.Points, a.Points)
		}
		if a.CurrentCourt != b.CurrentCourt {
			return cmp.Compare(a.CurrentCourt, b.CurrentCourt)
		}
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})

	stages, err := m.db.ListStages(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	slices.SortFunc(stages, func(a, b Stage) int { return cmp.Compare(a.Number, b.Number) })
	views := make([]StageView, 0, len(stages))
	for _, stage := range stages {
		games, err := m.db.ListGamesByStage(ctx, stage.ID)
		if err != nil {
			return nil, fmt.Errorf("list games: %w", err)
		}
		slices.SortFunc(games, func(a, b Game) int { return cmp.Compare(a.Court, b.Court) })
		views = append(views, StageView{Stage: stage, Games: games})
	}

	return &Snapshot{
		Tournament: *t,
		Teams:      standings,
		Stages:     views,
	}, nil
}
