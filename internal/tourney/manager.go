package tourney

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	petname "github.com/dustinkirkland/golang-petname"

	"github.com/vgurov/americano/internal/util/idgen"
	"github.com/vgurov/americano/internal/util/slogx"
	"github.com/vgurov/americano/internal/util/timeutil"
)

// Manager is the tournament engine. All mutating operations on one
// tournament are serialized through a per-tournament lock; every multi-row
// write goes to the store as a single transactional call.
type Manager struct {
	log   *slog.Logger
	db    DB
	locks *keyedMutex
}

func NewManager(log *slog.Logger, db DB) *Manager {
	return &Manager{
		log:   log,
		db:    db,
		locks: newKeyedMutex(),
	}
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (m *Manager) fail(err error) error {
	if code, ok := ErrorCode(err); ok && code.IsAnomaly() {
		m.log.Error("ladder state anomaly", slogx.Err(err))
	}
	return err
}

func (m *Manager) CreateTournament(ctx context.Context, name string, mode Mode, schedule *PointsSchedule) (*Tournament, error) {
	if name == "" {
		name = petname.Generate(2, "-")
	}
	s := DefaultPointsSchedule()
	if schedule != nil {
		s = *schedule
	}
	t := &Tournament{
		ID:        idgen.ID(),
		Name:      name,
		Mode:      mode,
		Lifecycle: LifecycleDraft,
		PointsC1:  s[0],
		PointsC2:  s[1],
		PointsC3:  s[2],
		PointsC4:  s[3],
		CreatedAt: timeutil.NowUTC(),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := m.db.CreateTournament(ctx, t); err != nil {
		return nil, fmt.Errorf("create tournament: %w", err)
	}
	m.log.Info("created tournament",
		slog.String("tournament_id", t.ID),
		slog.String("mode", t.Mode.String()),
	)
	return t, nil
}

func (m *Manager) ListTournaments(ctx context.Context) ([]Tournament, error) {
	return m.db.ListTournaments(ctx)
}

func (m *Manager) GetTournament(ctx context.Context, id string) (*Tournament, error) {
	return m.db.GetTournament(ctx, id)
}

func (m *Manager) SetMode(ctx context.Context, tournamentID string, mode Mode) error {
	if mode != ModeSolo && mode != ModeTeam {
		return Errorf(CodeValidation, "bad mode")
	}
	unlock := m.locks.Lock(tournamentID)
	defer unlock()
	t, err := m.db.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.Lifecycle != LifecycleDraft {
		return Errorf(CodeBadLifecycle, "mode can change only in draft, tournament is %v", t.Lifecycle)
	}
	return m.db.SetMode(ctx, tournamentID, mode)
}

// FormTeams partitions the 24 accepted solo players into 8 balanced teams.
// Refused, not merged, when teams already exist: the caller must reset
// first.
func (m *Manager) FormTeams(ctx context.Context, tournamentID string) error {
	unlock := m.locks.Lock(tournamentID)
	defer unlock()

	t, err := m.db.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.Lifecycle != LifecycleDraft {
		return Errorf(CodeBadLifecycle, "teams can be formed only in draft, tournament is %v", t.Lifecycle)
	}
	if t.Mode != ModeSolo {
		return Errorf(CodeBadMode, "team formation applies to solo tournaments only")
	}
	if err := m.requireAllAcceptedPaid(ctx, tournamentID); err != nil {
		return err
	}

	existing, err := m.db.ListTeams(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("list teams: %w", err)
	}
	if len(existing) > 0 {
		return Errorf(CodeTeamsAlreadyExist, "%v teams already exist, reset them first", len(existing))
	}

	players, err := m.db.ListPlayers(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	plan, err := BuildFormation(players, tournamentID, newRand())
	if err != nil {
		return m.fail(err)
	}

	teams := make([]Team, NumTeams)
	teamIDByOrdinal := make(map[int]string, NumTeams)
	for i := range teams {
		name := plan.Names[i]
		if name == "" {
			name = petname.Generate(2, "-")
		}
		teams[i] = Team{
			ID:           idgen.ID(),
			TournamentID: tournamentID,
			Ordinal:      i + 1,
			Name:         name,
		}
		teamIDByOrdinal[i+1] = teams[i].ID
	}
	members := make([]TeamMember, 0, len(plan.Placements))
	for _, p := range plan.Placements {
		members = append(members, TeamMember{
			TeamID:   teamIDByOrdinal[p.TeamOrdinal],
			Slot:     p.Slot,
			PlayerID: p.PlayerID,
			Bucket:   p.Bucket,
		})
	}

	if err := m.db.CreateTeams(ctx, tournamentID, teams, members); err != nil {
		return err
	}
	m.log.Info("formed teams", slog.String("tournament_id", tournamentID))
	return nil
}

func (m *Manager) ResetTeams(ctx context.Context, tournamentID string) error {
	unlock := m.locks.Lock(tournamentID)
	defer unlock()

	t, err := m.db.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.Lifecycle != LifecycleDraft {
		return Errorf(CodeBadLifecycle, "teams can be reset only in draft, tournament is %v", t.Lifecycle)
	}
	if t.Mode != ModeSolo {
		return Errorf(CodeBadMode, "team reset applies to solo tournaments only")
	}
	if err := m.db.DeleteTeams(ctx, tournamentID); err != nil {
		return fmt.Errorf("delete teams: %w", err)
	}
	m.log.Info("reset teams", slog.String("tournament_id", tournamentID))
	return nil
}

func (m *Manager) SetStrength(ctx context.Context, playerID string, strength int) error {
	if !validStrength(strength) {
		return Errorf(CodeValidation, "strength %v out of range [%v, %v]", strength, MinStrength, MaxStrength)
	}
	p, err := m.db.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	unlock := m.locks.Lock(p.TournamentID)
	defer unlock()
	t, err := m.db.GetTournament(ctx, p.TournamentID)
	if err != nil {
		return err
	}
	if t.Lifecycle != LifecycleDraft {
		return Errorf(CodeBadLifecycle, "strength can change only in draft, tournament is %v", t.Lifecycle)
	}
	return m.db.UpdatePlayerStrength(ctx, playerID, strength)
}

// SetSeed pins a player to a team before formation, or clears the pin when
// seedTeamIndex is nil. At most 8 players may be seeded and no two may
// target the same team.
func (m *Manager) SetSeed(ctx context.Context, playerID string, seedTeamIndex *int) error {
	p, err := m.db.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	unlock := m.locks.Lock(p.TournamentID)
	defer unlock()
	t, err := m.db.GetTournament(ctx, p.TournamentID)
	if err != nil {
		return err
	}
	if t.Lifecycle != LifecycleDraft {
		return Errorf(CodeBadLifecycle, "seeds can change only in draft, tournament is %v", t.Lifecycle)
	}
	if t.Mode != ModeSolo {
		return Errorf(CodeBadMode, "seeding applies to solo tournaments only")
	}

	if seedTeamIndex == nil {
		return m.db.UpdatePlayerSeed(ctx, playerID, nil, nil)
	}
	if *seedTeamIndex < 1 || *seedTeamIndex > NumTeams {
		return Errorf(CodeValidation, "seed team index %v out of range [1, %v]", *seedTeamIndex, NumTeams)
	}
	players, err := m.db.ListPlayers(ctx, p.TournamentID)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	seeds := 0
	for _, q := range players {
		if q.ID == playerID || q.SeedTeamIndex == nil {
			continue
		}
		seeds++
		if *q.SeedTeamIndex == *seedTeamIndex {
			return Errorf(CodeDuplicateSeed, "team %v is already taken by player %v", *seedTeamIndex, q.ID)
		}
	}
	if seeds >= MaxSeeds {
		return Errorf(CodeSeedLimit, "at most %v players can be seeded", MaxSeeds)
	}
	slot := 1
	return m.db.UpdatePlayerSeed(ctx, playerID, seedTeamIndex, &slot)
}

// StartNextStage creates the next stage: by team strength for the first
// one, by current court standing afterwards.
func (m *Manager) StartNextStage(ctx context.Context, tournamentID string) (int, error) {
	unlock := m.locks.Lock(tournamentID)
	defer unlock()

	t, err := m.db.GetTournament(ctx, tournamentID)
	if err != nil {
		return 0, err
	}
	if t.Lifecycle.IsTerminal() {
		return 0, Errorf(CodeBadLifecycle, "tournament is %v", t.Lifecycle)
	}
	if err := m.requireAllAcceptedPaid(ctx, tournamentID); err != nil {
		return 0, err
	}

	teams, err := m.db.ListTeams(ctx, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("list teams: %w", err)
	}
	if len(teams) != NumTeams {
		return 0, Errorf(CodeTeamCount, "need %v teams, have %v", NumTeams, len(teams))
	}

	last, err := m.db.LastStage(ctx, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("last stage: %w", err)
	}

	var plans []GamePlan
	number := 1
	if last != nil {
		games, err := m.db.ListGamesByStage(ctx, last.ID)
		if err != nil {
			return 0, fmt.Errorf("list games: %w", err)
		}
		if !StageComplete(games) {
			return 0, Errorf(CodePreviousStageIncomplete, "stage %v still has unscored games", last.Number)
		}
		states, err := m.db.ListTeamStates(ctx, tournamentID)
		if err != nil {
			return 0, fmt.Errorf("list team states: %w", err)
		}
		plans, err = PairByCourts(states)
		if err != nil {
			return 0, m.fail(err)
		}
		number = last.Number + 1
	} else {
		strength, err := m.teamStrengths(ctx, t, teams)
		if err != nil {
			return 0, err
		}
		plans, err = PairInitial(teams, strength, newRand())
		if err != nil {
			return 0, err
		}
	}

	stage := &Stage{
		ID:           idgen.ID(),
		TournamentID: tournamentID,
		Number:       number,
	}
	games := make([]Game, 0, len(plans))
	states := make([]TeamState, 0, 2*len(plans))
	for _, p := range plans {
		games = append(games, Game{
			ID:           idgen.ID(),
			TournamentID: tournamentID,
			StageID:      stage.ID,
			Court:        p.Court,
			TeamAID:      p.TeamAID,
			TeamBID:      p.TeamBID,
		})
		states = append(states,
			TeamState{TournamentID: tournamentID, TeamID: p.TeamAID, CurrentCourt: p.Court},
			TeamState{TournamentID: tournamentID, TeamID: p.TeamBID, CurrentCourt: p.Court},
		)
	}
	if err := m.db.CreateStage(ctx, stage, games, states, LifecycleLive); err != nil {
		return 0, fmt.Errorf("create stage: %w", err)
	}
	m.log.Info("started stage",
		slog.String("tournament_id", tournamentID),
		slog.Int("stage", number),
	)
	return number, nil
}

// teamStrengths computes the first-stage seeding strength per team: the
// declared registration strength in team mode, the sum of the members'
// strengths in solo mode.
func (m *Manager) teamStrengths(ctx context.Context, t *Tournament, teams []Team) (map[string]int, error) {
	res := make(map[string]int, len(teams))
	if t.Mode == ModeTeam {
		regs, err := m.db.ListRegistrations(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("list registrations: %w", err)
		}
		byReg := make(map[string]int, len(regs))
		for _, r := range regs {
			byReg[r.ID] = clampStrength(r.Strength)
		}
		for _, team := range teams {
			s := DefaultStrength
			if team.RegistrationID != nil {
				if v, ok := byReg[*team.RegistrationID]; ok {
					s = v
				}
			}
			res[team.ID] = s
		}
		return res, nil
	}

	members, err := m.db.ListTeamMembers(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	players, err := m.db.ListPlayers(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	byPlayer := make(map[string]int, len(players))
	for _, p := range players {
		byPlayer[p.ID] = clampStrength(p.Strength)
	}
	for _, mem := range members {
		res[mem.TeamID] += byPlayer[mem.PlayerID]
	}
	return res, nil
}

// RecordResult scores one game and moves both teams on the ladder. Results
// are write-once: scoring an already scored game fails and changes nothing.
// The returned flag tells whether the whole stage is now complete.
func (m *Manager) RecordResult(ctx context.Context, gameID, winnerTeamID string, scoreText *string) (bool, error) {
	game, err := m.db.GetGame(ctx, gameID)
	if err != nil {
		return false, err
	}

	unlock := m.locks.Lock(game.TournamentID)
	defer unlock()

	t, err := m.db.GetTournament(ctx, game.TournamentID)
	if err != nil {
		return false, err
	}
	if t.Lifecycle.IsTerminal() {
		return false, Errorf(CodeBadLifecycle, "tournament is %v", t.Lifecycle)
	}
	if game.WinnerTeamID != nil {
		return false, Errorf(CodeAlreadyScored, "game %v already has a winner", gameID)
	}
	if !game.HasTeam(winnerTeamID) {
		return false, Errorf(CodeInvalidWinner, "team %v does not play in game %v", winnerTeamID, gameID)
	}

	stage, err := m.db.GetStage(ctx, game.StageID)
	if err != nil {
		return false, err
	}
	override, err := m.db.GetOverride(ctx, t.ID, stage.Number)
	if err != nil {
		return false, fmt.Errorf("get override: %w", err)
	}
	points := ResolveSchedule(t, override).Court(game.Court)

	complete, err := m.db.ApplyResult(ctx, GameResult{
		GameID:        gameID,
		StageID:       game.StageID,
		TournamentID:  t.ID,
		WinnerTeamID:  winnerTeamID,
		LoserTeamID:   game.OtherTeam(winnerTeamID),
		ScoreText:     scoreText,
		PointsAwarded: points,
		WinnerCourt:   WinnerCourt(game.Court),
		LoserCourt:    LoserCourt(game.Court),
	})
	if err != nil {
		return false, err
	}
	m.log.Info("recorded result",
		slog.String("tournament_id", t.ID),
		slog.String("game_id", gameID),
		slog.Int("court", game.Court),
		slog.Int("points", points),
		slog.Bool("stage_complete", complete),
	)
	return complete, nil
}

// SaveOverrides replaces the whole per-stage point schedule set. Allowed
// only while the tournament has no stages; a partial submission clears
// everything not resubmitted.
func (m *Manager) SaveOverrides(ctx context.Context, tournamentID string, rows []PointsOverride) error {
	unlock := m.locks.Lock(tournamentID)
	defer unlock()

	t, err := m.db.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.Lifecycle == LifecycleCanceled {
		return Errorf(CodeBadLifecycle, "tournament is canceled")
	}
	stages, err := m.db.CountStages(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("count stages: %w", err)
	}
	if stages > 0 {
		return Errorf(CodeOverridesLocked, "overrides are frozen once the first stage exists")
	}
	if err := ValidateOverrides(rows); err != nil {
		return err
	}
	for i := range rows {
		rows[i].TournamentID = tournamentID
	}
	if err := m.db.ReplaceOverrides(ctx, tournamentID, rows); err != nil {
		return fmt.Errorf("replace overrides: %w", err)
	}
	return nil
}

func (m *Manager) GetOverrides(ctx context.Context, tournamentID string) ([]PointsOverride, error) {
	if _, err := m.db.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	return m.db.ListOverrides(ctx, tournamentID)
}

// Finish freezes the latest complete stage and ends the tournament.
// Finishing an already finished tournament is a no-op.
func (m *Manager) Finish(ctx context.Context, tournamentID string) error {
	unlock := m.locks.Lock(tournamentID)
	defer unlock()

	t, err := m.db.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.Lifecycle == LifecycleCanceled {
		return Errorf(CodeBadLifecycle, "tournament is canceled")
	}
	if t.Lifecycle == LifecycleFinished {
		return nil
	}
	last, err := m.db.LastStage(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("last stage: %w", err)
	}
	if last == nil {
		return Errorf(CodeNoStages, "no stage has been played yet")
	}
	games, err := m.db.ListGamesByStage(ctx, last.ID)
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}
	if !StageComplete(games) {
		return Errorf(CodeStageIncomplete, "stage %v still has unscored games", last.Number)
	}
	if err := m.db.FinishStage(ctx, last.ID, tournamentID, LifecycleFinished); err != nil {
		return fmt.Errorf("finish stage: %w", err)
	}
	m.log.Info("finished tournament", slog.String("tournament_id", tournamentID))
	return nil
}

// Cancel ends the tournament and every open registration with it.
// Idempotent when already canceled; a finished tournament cannot be
// canceled.
func (m *Manager) Cancel(ctx context.Context, tournamentID string) error {
	unlock := m.locks.Lock(tournamentID)
	defer unlock()

	t, err := m.db.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.Lifecycle == LifecycleCanceled {
		return nil
	}
	if !t.Lifecycle.CanTransition(LifecycleCanceled) {
		return Errorf(CodeBadLifecycle, "tournament is %v", t.Lifecycle)
	}
	if err := m.db.CancelTournament(ctx, tournamentID); err != nil {
		return fmt.Errorf("cancel tournament: %w", err)
	}
	m.log.Info("canceled tournament", slog.String("tournament_id", tournamentID))
	return nil
}
