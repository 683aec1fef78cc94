package tourney

import (
	"context"
)

// GameResult carries one fully resolved scoring event. The storage layer
// applies it in a single transaction and re-checks that the game is still
// unscored, so two racing calls cannot both succeed.
type GameResult struct {
	GameID        string
	StageID       string
	TournamentID  string
	WinnerTeamID  string
	LoserTeamID   string
	ScoreText     *string
	PointsAwarded int
	WinnerCourt   int
	LoserCourt    int
}

// AcceptData is everything a registration acceptance creates atomically.
// Team and Members are set only for team-mode registrations.
type AcceptData struct {
	Players []Player
	Team    *Team
	Members []TeamMember
}

// DB is the roster store. Methods that write more than one row must be
// all-or-nothing; reads never assume a particular iteration order.
type DB interface {
	CreateTournament(ctx context.Context, t *Tournament) error
	GetTournament(ctx context.Context, id string) (*Tournament, error)
	ListTournaments(ctx context.Context) ([]Tournament, error)
	SetMode(ctx context.Context, tournamentID string, m Mode) error
	UpdateLifecycle(ctx context.Context, tournamentID string, l Lifecycle) error
	CancelTournament(ctx context.Context, tournamentID string) error

	CreateRegistration(ctx context.Context, r *Registration, payments []RegistrationPayment) error
	GetRegistration(ctx context.Context, id string) (*Registration, error)
	GetRegistrationByCode(ctx context.Context, tournamentID, code string) (*Registration, error)
	ListRegistrations(ctx context.Context, tournamentID string) ([]Registration, error)
	SetRegistrationStatus(ctx context.Context, id string, status RegStatus) error
	AcceptRegistration(ctx context.Context, registrationID string, data AcceptData) error
	RollbackRegistration(ctx context.Context, registrationID string) error
	ListPayments(ctx context.Context, tournamentID string) ([]RegistrationPayment, error)
	SetPaid(ctx context.Context, registrationID string, slot int, paid bool) error
	ClearPayments(ctx context.Context, registrationID string) error

	ListPlayers(ctx context.Context, tournamentID string) ([]Player, error)
	GetPlayer(ctx context.Context, id string) (*Player, error)
	UpdatePlayerStrength(ctx context.Context, id string, strength int) error
	UpdatePlayerSeed(ctx context.Context, id string, seedTeamIndex, seedSlot *int) error

	ListTeams(ctx context.Context, tournamentID string) ([]Team, error)
	ListTeamMembers(ctx context.Context, tournamentID string) ([]TeamMember, error)
	CreateTeams(ctx context.Context, tournamentID string, teams []Team, members []TeamMember) error
	DeleteTeams(ctx context.Context, tournamentID string) error

	LastStage(ctx context.Context, tournamentID string) (*Stage, error)
	GetStage(ctx context.Context, id string) (*Stage, error)
	ListStages(ctx context.Context, tournamentID string) ([]Stage, error)
	CountStages(ctx context.Context, tournamentID string) (int64, error)
	CreateStage(ctx context.Context, stage *Stage, games []Game, states []TeamState, lifecycle Lifecycle) error

	GetGame(ctx context.Context, id string) (*Game, error)
	ListGamesByStage(ctx context.Context, stageID string) ([]Game, error)
	ApplyResult(ctx context.Context, res GameResult) (stageComplete bool, err error)
	FinishStage(ctx context.Context, stageID, tournamentID string, lifecycle Lifecycle) error

	ListTeamStates(ctx context.Context, tournamentID string) ([]TeamState, error)

	ListOverrides(ctx context.Context, tournamentID string) ([]PointsOverride, error)
	GetOverride(ctx context.Context, tournamentID string, stageNumber int) (*PointsOverride, error)
	ReplaceOverrides(ctx context.Context, tournamentID string, rows []PointsOverride) error
}
