package tourneyapi

import (
	"github.com/vgurov/americano/internal/tourney"
	"github.com/vgurov/americano/internal/util/sliceutil"
)

// Wire views. The engine types stay wire-agnostic; everything crossing the
// API is converted into the structs below.

type TournamentView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Mode      string `json:"mode"`
	Lifecycle string `json:"lifecycle"`
	PointsC1  int    `json:"points_c1"`
	PointsC2  int    `json:"points_c2"`
	PointsC3  int    `json:"points_c3"`
	PointsC4  int    `json:"points_c4"`
}

func NewTournamentView(t *tourney.Tournament) TournamentView {
	return TournamentView{
		ID:        t.ID,
		Name:      t.Name,
		Mode:      t.Mode.String(),
		Lifecycle: t.Lifecycle.String(),
		PointsC1:  t.PointsC1,
		PointsC2:  t.PointsC2,
		PointsC3:  t.PointsC3,
		PointsC4:  t.PointsC4,
	}
}

type PlayerView struct {
	ID            string `json:"id"`
	FullName      string `json:"full_name"`
	Strength      int    `json:"strength"`
	SeedTeamIndex *int   `json:"seed_team_index,omitempty"`
	SeedSlot      *int   `json:"seed_slot,omitempty"`
	Rank          int    `json:"rank"`
	Bucket        int    `json:"bucket"`
}

type TeamView struct {
	ID           string `json:"id"`
	Ordinal      int    `json:"ordinal"`
	Name         string `json:"name"`
	Points       int    `json:"points"`
	CurrentCourt int    `json:"current_court,omitempty"`
}

type GameView struct {
	ID            string  `json:"id"`
	Court         int     `json:"court"`
	TeamAID       string  `json:"team_a_id"`
	TeamBID       string  `json:"team_b_id"`
	WinnerTeamID  *string `json:"winner_team_id,omitempty"`
	ScoreText     *string `json:"score_text,omitempty"`
	PointsAwarded *int    `json:"points_awarded,omitempty"`
	IsFinal       bool    `json:"is_final,omitempty"`
}

func NewGameView(g tourney.Game) GameView {
	return GameView{
		ID:            g.ID,
		Court:         g.Court,
		TeamAID:       g.TeamAID,
		TeamBID:       g.TeamBID,
		WinnerTeamID:  g.WinnerTeamID,
		ScoreText:     g.ScoreText,
		PointsAwarded: g.PointsAwarded,
		IsFinal:       g.IsFinal,
	}
}

type StageView struct {
	ID     string     `json:"id"`
	Number int        `json:"number"`
	Games  []GameView `json:"games"`
}

type RegistrationView struct {
	ID               string `json:"id"`
	Mode             string `json:"mode"`
	Status           string `json:"status"`
	SoloPlayer       string `json:"solo_player,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Strength         int    `json:"strength"`
	TeamPlayer1      string `json:"team_player1,omitempty"`
	TeamPlayer2      string `json:"team_player2,omitempty"`
	TeamPlayer3      string `json:"team_player3,omitempty"`
	ConfirmationCode string `json:"confirmation_code,omitempty"`
}

func NewRegistrationView(r tourney.Registration) RegistrationView {
	return RegistrationView{
		ID:               r.ID,
		Mode:             r.Mode.String(),
		Status:           r.Status.String(),
		SoloPlayer:       r.SoloPlayer,
		Phone:            r.Phone,
		Strength:         r.Strength,
		TeamPlayer1:      r.TeamPlayer1,
		TeamPlayer2:      r.TeamPlayer2,
		TeamPlayer3:      r.TeamPlayer3,
		ConfirmationCode: r.ConfirmationCode,
	}
}

type PaymentView struct {
	RegistrationID string `json:"registration_id"`
	Slot           int    `json:"slot"`
	Paid           bool   `json:"paid"`
}

type OverrideRow struct {
	StageNumber int `json:"stage_number"`
	PointsC1    int `json:"points_c1"`
	PointsC2    int `json:"points_c2"`
	PointsC3    int `json:"points_c3"`
	PointsC4    int `json:"points_c4"`
}

// Requests and responses, one pair per endpoint.

type CreateTournamentRequest struct {
	Name   string  `json:"name"`
	Mode   string  `json:"mode"`
	Points *[4]int `json:"points,omitempty"`
}

type CreateTournamentResponse struct {
	Tournament TournamentView `json:"tournament"`
}

type ListTournamentsRequest struct{}

type ListTournamentsResponse struct {
	Tournaments []TournamentView `json:"tournaments"`
}

type SetModeRequest struct {
	TournamentID string `json:"tournament_id"`
	Mode         string `json:"mode"`
}

type SetModeResponse struct{}

type ListRegistrationsRequest struct {
	TournamentID string `json:"tournament_id"`
}

type ListRegistrationsResponse struct {
	Registrations []RegistrationView `json:"registrations"`
	Payments      []PaymentView      `json:"payments"`
}

type DecideRegistrationRequest struct {
	RegistrationID string `json:"registration_id"`
	Action         string `json:"action"`
}

type DecideRegistrationResponse struct{}

type SetPaidRequest struct {
	RegistrationID string `json:"registration_id"`
	Slot           int    `json:"slot"`
	Paid           bool   `json:"paid"`
}

type SetPaidResponse struct{}

type ListPlayersRequest struct {
	TournamentID string `json:"tournament_id"`
}

type ListPlayersResponse struct {
	Players []PlayerView `json:"players"`
}

type SetStrengthRequest struct {
	PlayerID string `json:"player_id"`
	Strength int    `json:"strength"`
}

type SetStrengthResponse struct{}

type SetSeedRequest struct {
	PlayerID      string `json:"player_id"`
	SeedTeamIndex *int   `json:"seed_team_index,omitempty"`
}

type SetSeedResponse struct{}

type FormTeamsRequest struct {
	TournamentID string `json:"tournament_id"`
}

type FormTeamsResponse struct{}

type ResetTeamsRequest struct {
	TournamentID string `json:"tournament_id"`
}

type ResetTeamsResponse struct{}

type StartStageRequest struct {
	TournamentID string `json:"tournament_id"`
}

type StartStageResponse struct {
	StageNumber int `json:"stage_number"`
}

type RecordResultRequest struct {
	GameID       string  `json:"game_id"`
	WinnerTeamID string  `json:"winner_team_id"`
	ScoreText    *string `json:"score_text,omitempty"`
}

type RecordResultResponse struct {
	StageComplete bool `json:"stage_complete"`
}

type GetOverridesRequest struct {
	TournamentID string `json:"tournament_id"`
}

type GetOverridesResponse struct {
	Overrides []OverrideRow `json:"overrides"`
}

type SaveOverridesRequest struct {
	TournamentID string        `json:"tournament_id"`
	Overrides    []OverrideRow `json:"overrides"`
}

type SaveOverridesResponse struct{}

type FinishRequest struct {
	TournamentID string `json:"tournament_id"`
}

type FinishResponse struct{}

type CancelRequest struct {
	TournamentID string `json:"tournament_id"`
}

type CancelResponse struct{}

type StateRequest struct {
	TournamentID string `json:"tournament_id"`
}

type StateResponse struct {
	Tournament TournamentView `json:"tournament"`
	Teams      []TeamView     `json:"teams"`
	Stages     []StageView    `json:"stages"`
}

func NewStateResponse(s *tourney.Snapshot) *StateResponse {
	return &StateResponse{
		Tournament: NewTournamentView(&s.Tournament),
		Teams: sliceutil.Map(s.Teams, func(t tourney.TeamStanding) TeamView {
			return TeamView{
				ID:           t.ID,
				Ordinal:      t.Ordinal,
				Name:         t.Name,
				Points:       t.Points,
				CurrentCourt: t.CurrentCourt,
			}
		}),
		Stages: sliceutil.Map(s.Stages, func(v tourney.StageView) StageView {
			return StageView{
				ID:     v.ID,
				Number: v.Number,
				Games:  sliceutil.Map(v.Games, NewGameView),
			}
		}),
	}
}

type ApplyRequest struct {
	TournamentID string `json:"tournament_id"`
	SoloPlayer   string `json:"solo_player,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Strength     int    `json:"strength,omitempty"`
	TeamPlayer1  string `json:"team_player1,omitempty"`
	TeamPlayer2  string `json:"team_player2,omitempty"`
	TeamPlayer3  string `json:"team_player3,omitempty"`
}

type ApplyResponse struct {
	RegistrationID   string `json:"registration_id"`
	ConfirmationCode string `json:"confirmation_code"`
}

type WithdrawRequest struct {
	TournamentID     string `json:"tournament_id"`
	ConfirmationCode string `json:"confirmation_code"`
}

type WithdrawResponse struct{}
