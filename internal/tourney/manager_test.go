package tourney

import (
	"context"
	"fmt"
	"testing"

	"github.com/vgurov/americano/internal/util/slogx"
)

type fixture struct {
	mgr *Manager
	db  *memDB
	t   *Tournament
}

func newFixture(t *testing.T, mode Mode) *fixture {
	t.Helper()
	db := newMemDB()
	mgr := NewManager(slogx.DiscardLogger(), db)
	tournament, err := mgr.CreateTournament(context.Background(), "test open", mode, nil)
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}
	return &fixture{mgr: mgr, db: db, t: tournament}
}

// fillSoloRoster applies, accepts and pays 24 solo registrations.
func (f *fixture) fillSoloRoster(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < NumPlayers; i++ {
		reg, err := f.mgr.Apply(ctx, f.t.ID, ApplyForm{
			SoloPlayer: fmt.Sprintf("Player %02d", i),
			Strength:   i%5 + 1,
		})
		if err != nil {
			t.Fatalf("apply %v: %v", i, err)
		}
		if err := f.mgr.DecideRegistration(ctx, reg.ID, DecideAccept); err != nil {
			t.Fatalf("accept %v: %v", i, err)
		}
		if err := f.mgr.SetPaid(ctx, reg.ID, 1, true); err != nil {
			t.Fatalf("pay %v: %v", i, err)
		}
	}
}

func (f *fixture) startLadder(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	f.fillSoloRoster(t)
	if err := f.mgr.FormTeams(ctx, f.t.ID); err != nil {
		t.Fatalf("form teams: %v", err)
	}
	number, err := f.mgr.StartNextStage(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("start stage: %v", err)
	}
	if number != 1 {
		t.Fatalf("first stage number: expected = 1, got = %v", number)
	}
}

func (f *fixture) stageGames(t *testing.T, number int) []Game {
	t.Helper()
	ctx := context.Background()
	snap, err := f.mgr.State(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	for _, sv := range snap.Stages {
		if sv.Number == number {
			return sv.Games
		}
	}
	t.Fatalf("no stage %v", number)
	return nil
}

func TestSoloFlowFirstStage(t *testing.T) {
	f := newFixture(t, ModeSolo)
	f.startLadder(t)
	ctx := context.Background()

	games := f.stageGames(t, 1)
	if len(games) != NumCourts {
		t.Fatalf("stage 1 games: expected = %v, got = %v", NumCourts, len(games))
	}
	courts := make(map[int]bool)
	teams := make(map[string]bool)
	for _, g := range games {
		courts[g.Court] = true
		teams[g.TeamAID] = true
		teams[g.TeamBID] = true
	}
	for c := 1; c <= NumCourts; c++ {
		if !courts[c] {
			t.Errorf("no game on court %v", c)
		}
	}
	if len(teams) != NumTeams {
		t.Errorf("teams playing: expected = %v, got = %v", NumTeams, len(teams))
	}

	snap, err := f.mgr.State(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if snap.Tournament.Lifecycle != LifecycleLive {
		t.Errorf("lifecycle: expected = %v, got = %v", LifecycleLive, snap.Tournament.Lifecycle)
	}
}

func TestRecordResultPointsAndMovement(t *testing.T) {
	f := newFixture(t, ModeSolo)
	f.startLadder(t)
	ctx := context.Background()

	var court3 Game
	for _, g := range f.stageGames(t, 1) {
		if g.Court == 3 {
			court3 = g
		}
	}
	complete, err := f.mgr.RecordResult(ctx, court3.ID, court3.TeamAID, nil)
	if err != nil {
		t.Fatalf("record result: %v", err)
	}
	if complete {
		t.Errorf("stage complete after one of four games")
	}

	snap, err := f.mgr.State(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	courts := make(map[string]int)
	points := make(map[string]int)
	for _, team := range snap.Teams {
		courts[team.ID] = team.CurrentCourt
		points[team.ID] = team.Points
	}
	// Default schedule awards 3 points on court 3; winner climbs to court
	// 2, loser drops to court 4.
	if points[court3.TeamAID] != 3 {
		t.Errorf("winner points: expected = 3, got = %v", points[court3.TeamAID])
	}
	if points[court3.TeamBID] != 0 {
		t.Errorf("loser points: expected = 0, got = %v", points[court3.TeamBID])
	}
	if courts[court3.TeamAID] != 2 {
		t.Errorf("winner court: expected = 2, got = %v", courts[court3.TeamAID])
	}
	if courts[court3.TeamBID] != 4 {
		t.Errorf("loser court: expected = 4, got = %v", courts[court3.TeamBID])
	}
}

func TestRecordResultCourtClamps(t *testing.T) {
	f := newFixture(t, ModeSolo)
	f.startLadder(t)
	ctx := context.Background()

	var court1, court4 Game
	for _, g := range f.stageGames(t, 1) {
		switch g.Court {
		case 1:
			court1 = g
		case 4:
			court4 = g
		}
	}
	if _, err := f.mgr.RecordResult(ctx, court1.ID, court1.TeamAID, nil); err != nil {
		t.Fatalf("record court 1: %v", err)
	}
	if _, err := f.mgr.RecordResult(ctx, court4.ID, court4.TeamBID, nil); err != nil {
		t.Fatalf("record court 4: %v", err)
	}
	snap, err := f.mgr.State(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	courts := make(map[string]int)
	for _, team := range snap.Teams {
		courts[team.ID] = team.CurrentCourt
	}
	if courts[court1.TeamAID] != 1 {
		t.Errorf("court 1 winner stays: expected = 1, got = %v", courts[court1.TeamAID])
	}
	if courts[court4.TeamAID] != 4 {
		t.Errorf("court 4 loser stays: expected = 4, got = %v", courts[court4.TeamAID])
	}
}

func TestRecordResultWriteOnce(t *testing.T) {
	f := newFixture(t, ModeSolo)
	f.startLadder(t)
	ctx := context.Background()

	game := f.stageGames(t, 1)[0]
	if _, err := f.mgr.RecordResult(ctx, game.ID, game.TeamAID, nil); err != nil {
		t.Fatalf("record result: %v", err)
	}
	before, err := f.mgr.State(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}

	_, err = f.mgr.RecordResult(ctx, game.ID, game.TeamBID, nil)
	if !MatchesError(err, CodeAlreadyScored) {
		t.Fatalf("expected = %v, got = %v", CodeAlreadyScored, err)
	}

	after, err := f.mgr.State(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	for i := range before.Teams {
		if before.Teams[i] != after.Teams[i] {
			t.Errorf("standing %v changed by rejected result: %+v vs %+v",
				i, before.Teams[i], after.Teams[i])
		}
	}
}

func TestRecordResultInvalidWinner(t *testing.T) {
	f := newFixture(t, ModeSolo)
	f.startLadder(t)
	game := f.stageGames(t, 1)[0]
	_, err := f.mgr.RecordResult(context.Background(), game.ID, "not-a-team", nil)
	if !MatchesError(err, CodeInvalidWinner) {
		t.Fatalf("expected = %v, got = %v", CodeInvalidWinner, err)
	}
}

func TestStartNextStagePairsByCourts(t *testing.T) {
	f := newFixture(t, ModeSolo)
	f.startLadder(t)
	ctx := context.Background()

	for _, g := range f.stageGames(t, 1) {
		if _, err := f.mgr.RecordResult(ctx, g.ID, g.TeamAID, nil); err != nil {
			t.Fatalf("record result: %v", err)
		}
	}
	number, err := f.mgr.StartNextStage(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("start stage 2: %v", err)
	}
	if number != 2 {
		t.Fatalf("stage number: expected = 2, got = %v", number)
	}

	snap, err := f.mgr.State(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	courts := make(map[string]int)
	for _, team := range snap.Teams {
		courts[team.ID] = team.CurrentCourt
	}
	for _, g := range f.stageGames(t, 2) {
		if courts[g.TeamAID] != g.Court || courts[g.TeamBID] != g.Court {
			t.Errorf("stage 2 court %v pairs teams standing on %v and %v",
				g.Court, courts[g.TeamAID], courts[g.TeamBID])
		}
	}
}

func TestStartNextStageIncompletePrevious(t *testing.T) {
	f := newFixture(t, ModeSolo)
	f.startLadder(t)
	ctx := context.Background()

	games := f.stageGames(t, 1)
	for _, g := range games[:NumCourts-1] {
		if _, err := f.mgr.RecordResult(ctx, g.ID, g.TeamAID, nil); err != nil {
			t.Fatalf("record result: %v", err)
		}
	}
	_, err := f.mgr.StartNextStage(ctx, f.t.ID)
	if !MatchesError(err, CodePreviousStageIncomplete) {
		t.Fatalf("expected = %v, got = %v", CodePreviousStageIncomplete, err)
	}
}

func TestFormTeamsTwice(t *testing.T) {
	f := newFixture(t, ModeSolo)
	f.fillSoloRoster(t)
	ctx := context.Background()

	if err := f.mgr.FormTeams(ctx, f.t.ID); err != nil {
		t.Fatalf("form teams: %v", err)
	}
	err := f.mgr.FormTeams(ctx, f.t.ID)
	if !MatchesError(err, CodeTeamsAlreadyExist) {
		t.Fatalf("expected = %v, got = %v", CodeTeamsAlreadyExist, err)
	}

	if err := f.mgr.ResetTeams(ctx, f.t.ID); err != nil {
		t.Fatalf("reset teams: %v", err)
	}
	if err := f.mgr.FormTeams(ctx, f.t.ID); err != nil {
		t.Fatalf("form teams after reset: %v", err)
	}
}

func TestFormTeamsUnpaid(t *testing.T) {
	f := newFixture(t, ModeSolo)
	ctx := context.Background()
	for i := 0; i < NumPlayers; i++ {
		reg, err := f.mgr.Apply(ctx, f.t.ID, ApplyForm{SoloPlayer: fmt.Sprintf("P%v", i)})
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if err := f.mgr.DecideRegistration(ctx, reg.ID, DecideAccept); err != nil {
			t.Fatalf("accept: %v", err)
		}
		if i != 10 {
			if err := f.mgr.SetPaid(ctx, reg.ID, 1, true); err != nil {
				t.Fatalf("pay: %v", err)
			}
		}
	}
	err := f.mgr.FormTeams(ctx, f.t.ID)
	if !MatchesError(err, CodePaymentIncomplete) {
		t.Fatalf("expected = %v, got = %v", CodePaymentIncomplete, err)
	}
}

func TestFormTeamsWrongCount(t *testing.T) {
	f := newFixture(t, ModeSolo)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		reg, err := f.mgr.Apply(ctx, f.t.ID, ApplyForm{SoloPlayer: fmt.Sprintf("P%v", i)})
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if err := f.mgr.DecideRegistration(ctx, reg.ID, DecideAccept); err != nil {
			t.Fatalf("accept: %v", err)
		}
		if err := f.mgr.SetPaid(ctx, reg.ID, 1, true); err != nil {
			t.Fatalf("pay: %v", err)
		}
	}
	err := f.mgr.FormTeams(ctx, f.t.ID)
	if !MatchesError(err, CodePlayerCount) {
		t.Fatalf("expected = %v, got = %v", CodePlayerCount, err)
	}
}

func TestSetSeedRules(t *testing.T) {
	f := newFixture(t, ModeSolo)
	f.fillSoloRoster(t)
	ctx := context.Background()

	players, err := f.mgr.ListPlayers(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("list players: %v", err)
	}

	for i := 0; i < MaxSeeds; i++ {
		target := i + 1
		if err := f.mgr.SetSeed(ctx, players[i].ID, &target); err != nil {
			t.Fatalf("seed %v: %v", i, err)
		}
	}

	target := 1
	err = f.mgr.SetSeed(ctx, players[MaxSeeds].ID, &target)
	if !MatchesError(err, CodeDuplicateSeed) {
		t.Fatalf("duplicate target: expected = %v, got = %v", CodeDuplicateSeed, err)
	}

	// Free team 1 by re-seeding its player elsewhere is impossible: all 8
	// teams are taken, so any new seed trips the limit or a duplicate.
	if err := f.mgr.SetSeed(ctx, players[0].ID, nil); err != nil {
		t.Fatalf("clear seed: %v", err)
	}
	if err := f.mgr.SetSeed(ctx, players[MaxSeeds].ID, &target); err != nil {
		t.Fatalf("seed into freed team: %v", err)
	}
	target2 := 1
	err = f.mgr.SetSeed(ctx, players[MaxSeeds+1].ID, &target2)
	if !MatchesError(err, CodeDuplicateSeed) {
		t.Fatalf("expected = %v, got = %v", CodeDuplicateSeed, err)
	}

	out := NumTeams + 1
	err = f.mgr.SetSeed(ctx, players[0].ID, &out)
	if !MatchesError(err, CodeValidation) {
		t.Fatalf("out of range: expected = %v, got = %v", CodeValidation, err)
	}
}

func TestSeededFormation(t *testing.T) {
	f := newFixture(t, ModeSolo)
	f.fillSoloRoster(t)
	ctx := context.Background()

	players, err := f.mgr.ListPlayers(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	target := 7
	if err := f.mgr.SetSeed(ctx, players[0].ID, &target); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := f.mgr.FormTeams(ctx, f.t.ID); err != nil {
		t.Fatalf("form teams: %v", err)
	}

	teams, err := f.db.ListTeams(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	ordinalByID := make(map[string]int)
	for _, team := range teams {
		ordinalByID[team.ID] = team.Ordinal
	}
	members, err := f.db.ListTeamMembers(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	for _, m := range members {
		if m.PlayerID == players[0].ID {
			if ordinalByID[m.TeamID] != target {
				t.Fatalf("seeded team: expected = %v, got = %v", target, ordinalByID[m.TeamID])
			}
			return
		}
	}
	t.Fatalf("seeded player not placed")
}

func TestOverridesFlow(t *testing.T) {
	f := newFixture(t, ModeSolo)
	ctx := context.Background()

	rows := []PointsOverride{{StageNumber: 1, PointsC1: 1, PointsC2: 1, PointsC3: 1, PointsC4: 1}}
	if err := f.mgr.SaveOverrides(ctx, f.t.ID, rows); err != nil {
		t.Fatalf("save overrides: %v", err)
	}
	got, err := f.mgr.GetOverrides(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("get overrides: %v", err)
	}
	if len(got) != 1 || got[0].StageNumber != 1 {
		t.Fatalf("stored overrides wrong: %+v", got)
	}

	f.startLadder(t)

	// Stage 1 has an override: every court pays 1 point.
	game := f.stageGames(t, 1)[0]
	if _, err := f.mgr.RecordResult(ctx, game.ID, game.TeamAID, nil); err != nil {
		t.Fatalf("record result: %v", err)
	}
	snap, err := f.mgr.State(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	for _, team := range snap.Teams {
		if team.ID == game.TeamAID && team.Points != 1 {
			t.Errorf("override points: expected = 1, got = %v", team.Points)
		}
	}

	err = f.mgr.SaveOverrides(ctx, f.t.ID, nil)
	if !MatchesError(err, CodeOverridesLocked) {
		t.Fatalf("expected = %v, got = %v", CodeOverridesLocked, err)
	}
}

func TestFinish(t *testing.T) {
	f := newFixture(t, ModeSolo)
	ctx := context.Background()

	err := f.mgr.Finish(ctx, f.t.ID)
	if !MatchesError(err, CodeNoStages) {
		t.Fatalf("expected = %v, got = %v", CodeNoStages, err)
	}

	f.startLadder(t)
	err = f.mgr.Finish(ctx, f.t.ID)
	if !MatchesError(err, CodeStageIncomplete) {
		t.Fatalf("expected = %v, got = %v", CodeStageIncomplete, err)
	}

	for _, g := range f.stageGames(t, 1) {
		if _, err := f.mgr.RecordResult(ctx, g.ID, g.TeamAID, nil); err != nil {
			t.Fatalf("record result: %v", err)
		}
	}
	if err := f.mgr.Finish(ctx, f.t.ID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	for _, g := range f.stageGames(t, 1) {
		if !g.IsFinal {
			t.Errorf("game %v not marked final", g.ID)
		}
	}
	// Idempotent.
	if err := f.mgr.Finish(ctx, f.t.ID); err != nil {
		t.Fatalf("finish twice: %v", err)
	}

	err = f.mgr.Cancel(ctx, f.t.ID)
	if !MatchesError(err, CodeBadLifecycle) {
		t.Fatalf("cancel finished: expected = %v, got = %v", CodeBadLifecycle, err)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t, ModeSolo)
	ctx := context.Background()

	reg, err := f.mgr.Apply(ctx, f.t.ID, ApplyForm{SoloPlayer: "Ann"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := f.mgr.Cancel(ctx, f.t.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	// Idempotent.
	if err := f.mgr.Cancel(ctx, f.t.ID); err != nil {
		t.Fatalf("cancel twice: %v", err)
	}

	got, err := f.db.GetRegistration(ctx, reg.ID)
	if err != nil {
		t.Fatalf("get registration: %v", err)
	}
	if got.Status != RegCanceled {
		t.Errorf("registration status: expected = %v, got = %v", RegCanceled, got.Status)
	}

	_, err = f.mgr.Apply(ctx, f.t.ID, ApplyForm{SoloPlayer: "Bob"})
	if !MatchesError(err, CodeBadLifecycle) {
		t.Errorf("apply after cancel: expected = %v, got = %v", CodeBadLifecycle, err)
	}
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t, ModeSolo)
	ctx := context.Background()

	reg, err := f.mgr.Apply(ctx, f.t.ID, ApplyForm{SoloPlayer: "Ann"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := f.mgr.DecideRegistration(ctx, reg.ID, DecideAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}
	players, err := f.db.ListPlayers(ctx, f.t.ID)
	if err != nil || len(players) != 1 {
		t.Fatalf("players after accept: %v, err %v", len(players), err)
	}

	if err := f.mgr.Withdraw(ctx, f.t.ID, reg.ConfirmationCode); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	players, err = f.db.ListPlayers(ctx, f.t.ID)
	if err != nil || len(players) != 0 {
		t.Fatalf("players after withdraw: %v, err %v", len(players), err)
	}
	// Idempotent.
	if err := f.mgr.Withdraw(ctx, f.t.ID, reg.ConfirmationCode); err != nil {
		t.Fatalf("withdraw twice: %v", err)
	}

	err = f.mgr.Withdraw(ctx, f.t.ID, "WRONGCODE1")
	if !MatchesError(err, CodeNotFound) {
		t.Fatalf("bad code: expected = %v, got = %v", CodeNotFound, err)
	}
}

func TestTeamModeFlow(t *testing.T) {
	f := newFixture(t, ModeTeam)
	ctx := context.Background()

	for i := 0; i < NumTeams; i++ {
		reg, err := f.mgr.Apply(ctx, f.t.ID, ApplyForm{
			TeamPlayer1: fmt.Sprintf("A%v", i),
			TeamPlayer2: fmt.Sprintf("B%v", i),
			TeamPlayer3: fmt.Sprintf("C%v", i),
			Strength:    i%5 + 1,
		})
		if err != nil {
			t.Fatalf("apply %v: %v", i, err)
		}
		if err := f.mgr.DecideRegistration(ctx, reg.ID, DecideAccept); err != nil {
			t.Fatalf("accept %v: %v", i, err)
		}
		for slot := 1; slot <= TeamSize; slot++ {
			if err := f.mgr.SetPaid(ctx, reg.ID, slot, true); err != nil {
				t.Fatalf("pay %v slot %v: %v", i, slot, err)
			}
		}
	}

	teams, err := f.db.ListTeams(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(teams) != NumTeams {
		t.Fatalf("teams: expected = %v, got = %v", NumTeams, len(teams))
	}

	err = f.mgr.FormTeams(ctx, f.t.ID)
	if !MatchesError(err, CodeBadMode) {
		t.Fatalf("form teams in team mode: expected = %v, got = %v", CodeBadMode, err)
	}

	number, err := f.mgr.StartNextStage(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("start stage: %v", err)
	}
	if number != 1 {
		t.Fatalf("stage number: expected = 1, got = %v", number)
	}
	if len(f.stageGames(t, 1)) != NumCourts {
		t.Fatalf("stage games: expected = %v, got = %v", NumCourts, len(f.stageGames(t, 1)))
	}
}

func TestTeamModePaySlots(t *testing.T) {
	f := newFixture(t, ModeTeam)
	ctx := context.Background()
	reg, err := f.mgr.Apply(ctx, f.t.ID, ApplyForm{
		TeamPlayer1: "A", TeamPlayer2: "B", TeamPlayer3: "C",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := f.mgr.SetPaid(ctx, reg.ID, 3, true); err != nil {
		t.Fatalf("pay slot 3: %v", err)
	}
	err = f.mgr.SetPaid(ctx, reg.ID, 4, true)
	if !MatchesError(err, CodeValidation) {
		t.Fatalf("slot 4: expected = %v, got = %v", CodeValidation, err)
	}
}

func TestUnacceptRemovesTeam(t *testing.T) {
	f := newFixture(t, ModeTeam)
	ctx := context.Background()
	reg, err := f.mgr.Apply(ctx, f.t.ID, ApplyForm{
		TeamPlayer1: "A", TeamPlayer2: "B", TeamPlayer3: "C",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := f.mgr.DecideRegistration(ctx, reg.ID, DecideAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := f.mgr.DecideRegistration(ctx, reg.ID, DecideUnaccept); err != nil {
		t.Fatalf("unaccept: %v", err)
	}
	teams, err := f.db.ListTeams(ctx, f.t.ID)
	if err != nil || len(teams) != 0 {
		t.Fatalf("teams after unaccept: %v, err %v", len(teams), err)
	}
	players, err := f.db.ListPlayers(ctx, f.t.ID)
	if err != nil || len(players) != 0 {
		t.Fatalf("players after unaccept: %v, err %v", len(players), err)
	}
	got, err := f.db.GetRegistration(ctx, reg.ID)
	if err != nil {
		t.Fatalf("get registration: %v", err)
	}
	if got.Status != RegPending {
		t.Errorf("status after unaccept: expected = %v, got = %v", RegPending, got.Status)
	}

	err = f.mgr.DecideRegistration(ctx, reg.ID, DecideUnaccept)
	if !MatchesError(err, CodeValidation) {
		t.Errorf("unaccept pending: expected = %v, got = %v", CodeValidation, err)
	}
}

func TestSetModeOnlyInDraft(t *testing.T) {
	f := newFixture(t, ModeSolo)
	ctx := context.Background()
	if err := f.mgr.SetMode(ctx, f.t.ID, ModeTeam); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if err := f.mgr.SetMode(ctx, f.t.ID, ModeSolo); err != nil {
		t.Fatalf("set mode back: %v", err)
	}
	f.startLadder(t)
	err := f.mgr.SetMode(ctx, f.t.ID, ModeTeam)
	if !MatchesError(err, CodeBadLifecycle) {
		t.Fatalf("expected = %v, got = %v", CodeBadLifecycle, err)
	}
}

func TestSetStrengthValidation(t *testing.T) {
	f := newFixture(t, ModeSolo)
	f.fillSoloRoster(t)
	ctx := context.Background()
	players, err := f.mgr.ListPlayers(ctx, f.t.ID)
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if err := f.mgr.SetStrength(ctx, players[0].ID, MaxStrength); err != nil {
		t.Fatalf("set strength: %v", err)
	}
	err = f.mgr.SetStrength(ctx, players[0].ID, MaxStrength+1)
	if !MatchesError(err, CodeValidation) {
		t.Fatalf("expected = %v, got = %v", CodeValidation, err)
	}
}
