package tourneyapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/vgurov/americano/internal/tourney"
	"github.com/vgurov/americano/internal/util/httputil"
	"github.com/vgurov/americano/internal/util/idgen"
	"github.com/vgurov/americano/internal/util/sliceutil"
	"github.com/vgurov/americano/internal/util/slogx"
)

type TokenChecker func(token string) error

type ServerOptions struct {
	TokenChecker TokenChecker
	PublicRate   rate.Limit
	PublicBurst  int
}

func (o *ServerOptions) FillDefaults() {
	if o.PublicRate == 0 {
		o.PublicRate = 10
	}
	if o.PublicBurst == 0 {
		o.PublicBurst = 30
	}
}

func httpStatus(code tourney.Code) int {
	switch code {
	case tourney.CodeNotFound:
		return http.StatusNotFound
	case tourney.CodeValidation, tourney.CodeBadMode:
		return http.StatusBadRequest
	case tourney.CodeBucketCollision, tourney.CodeCourtImbalance:
		return http.StatusInternalServerError
	default:
		return http.StatusConflict
	}
}

func makeHandler[Req any, Rsp any](
	log *slog.Logger,
	o *ServerOptions,
	limiter *rate.Limiter,
	fn func(context.Context, *slog.Logger, *Req) (*Rsp, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, hReq *http.Request) {
		log := log.With(
			slog.String("addr", hReq.RemoteAddr),
			slog.String("rid", idgen.ID()),
		)

		if err := func() error {
			log.Info("handle api request")

			if hReq.Method != http.MethodPost {
				log.Warn("unsupported method")
				return httputil.MakeError(http.StatusMethodNotAllowed, "method not allowed")
			}

			if limiter != nil {
				if !limiter.Allow() {
					log.Warn("rate limit exceeded")
					return httputil.MakeError(http.StatusTooManyRequests, "too many requests")
				}
			} else {
				if err := o.TokenChecker(hReq.Header.Get("X-Token")); err != nil {
					log.Warn("token auth failed", slogx.Err(err))
					return httputil.MakeError(http.StatusForbidden, "bad token auth")
				}
			}

			reqBytes, err := io.ReadAll(hReq.Body)
			if err != nil {
				log.Info("error reading request", slogx.Err(err))
				return nil
			}
			var req Req
			if err := json.Unmarshal(reqBytes, &req); err != nil {
				log.Warn("error unmarshalling json", slogx.Err(err))
				return httputil.MakeError(http.StatusBadRequest, "unmarshal json request")
			}

			rsp, err := fn(hReq.Context(), log, &req)
			if err != nil {
				if apiErr := (*tourney.Error)(nil); errors.As(err, &apiErr) {
					return err
				}
				log.Warn("handler failed", slogx.Err(err))
				return httputil.MakeError(http.StatusInternalServerError, "internal server error")
			}

			rspBytes, err := json.Marshal(rsp)
			if err != nil {
				log.Warn("error marshalling json", slogx.Err(err))
				return httputil.MakeError(http.StatusInternalServerError, "marshal json response")
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write(rspBytes); err != nil {
				log.Info("error writing response", slogx.Err(err))
			}
			return nil
		}(); err != nil {
			var apiError *tourney.Error
			if errors.As(err, &apiError) {
				data, err := json.Marshal(apiError)
				if err != nil {
					log.Warn("error marshalling error json", slogx.Err(err))
					if err := httputil.WriteErrorResponse(fmt.Errorf("marshal error json"), w); err != nil {
						log.Info("error writing error response", slogx.Err(err))
					}
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(httpStatus(apiError.Code))
				if _, err := w.Write(data); err != nil {
					log.Info("error writing error response", slogx.Err(err))
				}
				return
			}
			if err := httputil.WriteErrorResponse(err, w); err != nil {
				log.Info("error writing error response", slogx.Err(err))
			}
		}
	}
}

type server struct {
	mgr *tourney.Manager
}

func (s *server) createTournament(ctx context.Context, log *slog.Logger, req *CreateTournamentRequest) (*CreateTournamentResponse, error) {
	mode, err := tourney.ModeFromString(req.Mode)
	if err != nil {
		return nil, tourney.Errorf(tourney.CodeValidation, "%v", err)
	}
	var schedule *tourney.PointsSchedule
	if req.Points != nil {
		s := tourney.PointsSchedule(*req.Points)
		schedule = &s
	}
	t, err := s.mgr.CreateTournament(ctx, req.Name, mode, schedule)
	if err != nil {
		return nil, err
	}
	return &CreateTournamentResponse{Tournament: NewTournamentView(t)}, nil
}

func (s *server) listTournaments(ctx context.Context, log *slog.Logger, req *ListTournamentsRequest) (*ListTournamentsResponse, error) {
	ts, err := s.mgr.ListTournaments(ctx)
	if err != nil {
		return nil, err
	}
	return &ListTournamentsResponse{
		Tournaments: sliceutil.Map(ts, func(t tourney.Tournament) TournamentView { return NewTournamentView(&t) }),
	}, nil
}

func (s *server) setMode(ctx context.Context, log *slog.Logger, req *SetModeRequest) (*SetModeResponse, error) {
	mode, err := tourney.ModeFromString(req.Mode)
	if err != nil {
		return nil, tourney.Errorf(tourney.CodeValidation, "%v", err)
	}
	if err := s.mgr.SetMode(ctx, req.TournamentID, mode); err != nil {
		return nil, err
	}
	return &SetModeResponse{}, nil
}

func (s *server) listRegistrations(ctx context.Context, log *slog.Logger, req *ListRegistrationsRequest) (*ListRegistrationsResponse, error) {
	regs, pays, err := s.mgr.ListRegistrations(ctx, req.TournamentID)
	if err != nil {
		return nil, err
	}
	return &ListRegistrationsResponse{
		Registrations: sliceutil.Map(regs, NewRegistrationView),
		Payments: sliceutil.Map(pays, func(p tourney.RegistrationPayment) PaymentView {
			return PaymentView{RegistrationID: p.RegistrationID, Slot: p.Slot, Paid: p.Paid}
		}),
	}, nil
}

func (s *server) decideRegistration(ctx context.Context, log *slog.Logger, req *DecideRegistrationRequest) (*DecideRegistrationResponse, error) {
	action, err := tourney.DecideActionFromString(req.Action)
	if err != nil {
		return nil, tourney.Errorf(tourney.CodeValidation, "%v", err)
	}
	if err := s.mgr.DecideRegistration(ctx, req.RegistrationID, action); err != nil {
		return nil, err
	}
	return &DecideRegistrationResponse{}, nil
}

func (s *server) setPaid(ctx context.Context, log *slog.Logger, req *SetPaidRequest) (*SetPaidResponse, error) {
	if err := s.mgr.SetPaid(ctx, req.RegistrationID, req.Slot, req.Paid); err != nil {
		return nil, err
	}
	return &SetPaidResponse{}, nil
}

func (s *server) listPlayers(ctx context.Context, log *slog.Logger, req *ListPlayersRequest) (*ListPlayersResponse, error) {
	players, err := s.mgr.ListPlayers(ctx, req.TournamentID)
	if err != nil {
		return nil, err
	}
	return &ListPlayersResponse{
		Players: sliceutil.Map(players, func(p tourney.RankedPlayer) PlayerView {
			return PlayerView{
				ID:            p.ID,
				FullName:      p.FullName,
				Strength:      p.Strength,
				SeedTeamIndex: p.SeedTeamIndex,
				SeedSlot:      p.SeedSlot,
				Rank:          p.Rank,
				Bucket:        p.Bucket,
			}
		}),
	}, nil
}

func (s *server) setStrength(ctx context.Context, log *slog.Logger, req *SetStrengthRequest) (*SetStrengthResponse, error) {
	if err := s.mgr.SetStrength(ctx, req.PlayerID, req.Strength); err != nil {
		return nil, err
	}
	return &SetStrengthResponse{}, nil
}

func (s *server) setSeed(ctx context.Context, log *slog.Logger, req *SetSeedRequest) (*SetSeedResponse, error) {
	if err := s.mgr.SetSeed(ctx, req.PlayerID, req.SeedTeamIndex); err != nil {
		return nil, err
	}
	return &SetSeedResponse{}, nil
}

func (s *server) formTeams(ctx context.Context, log *slog.Logger, req *FormTeamsRequest) (*FormTeamsResponse, error) {
	if err := s.mgr.FormTeams(ctx, req.TournamentID); err != nil {
		return nil, err
	}
	return &FormTeamsResponse{}, nil
}

func (s *server) resetTeams(ctx context.Context, log *slog.Logger, req *ResetTeamsRequest) (*ResetTeamsResponse, error) {
	if err := s.mgr.ResetTeams(ctx, req.TournamentID); err != nil {
		return nil, err
	}
	return &ResetTeamsResponse{}, nil
}

func (s *server) startStage(ctx context.Context, log *slog.Logger, req *StartStageRequest) (*StartStageResponse, error) {
	number, err := s.mgr.StartNextStage(ctx, req.TournamentID)
	if err != nil {
		return nil, err
	}
	return &StartStageResponse{StageNumber: number}, nil
}

func (s *server) recordResult(ctx context.Context, log *slog.Logger, req *RecordResultRequest) (*RecordResultResponse, error) {
	complete, err := s.mgr.RecordResult(ctx, req.GameID, req.WinnerTeamID, req.ScoreText)
	if err != nil {
		return nil, err
	}
	return &RecordResultResponse{StageComplete: complete}, nil
}

func (s *server) getOverrides(ctx context.Context, log *slog.Logger, req *GetOverridesRequest) (*GetOverridesResponse, error) {
	rows, err := s.mgr.GetOverrides(ctx, req.TournamentID)
	if err != nil {
		return nil, err
	}
	return &GetOverridesResponse{
		Overrides: sliceutil.Map(rows, func(o tourney.PointsOverride) OverrideRow {
			return OverrideRow{
				StageNumber: o.StageNumber,
				PointsC1:    o.PointsC1,
				PointsC2:    o.PointsC2,
				PointsC3:    o.PointsC3,
				PointsC4:    o.PointsC4,
			}
		}),
	}, nil
}

func (s *server) saveOverrides(ctx context.Context, log *slog.Logger, req *SaveOverridesRequest) (*SaveOverridesResponse, error) {
	rows := sliceutil.Map(req.Overrides, func(o OverrideRow) tourney.PointsOverride {
		return tourney.PointsOverride{
			TournamentID: req.TournamentID,
			StageNumber:  o.StageNumber,
			PointsC1:     o.PointsC1,
			PointsC2:     o.PointsC2,
			PointsC3:     o.PointsC3,
			PointsC4:     o.PointsC4,
		}
	})
	if err := s.mgr.SaveOverrides(ctx, req.TournamentID, rows); err != nil {
		return nil, err
	}
	return &SaveOverridesResponse{}, nil
}

func (s *server) finish(ctx context.Context, log *slog.Logger, req *FinishRequest) (*FinishResponse, error) {
	if err := s.mgr.Finish(ctx, req.TournamentID); err != nil {
		return nil, err
	}
	return &FinishResponse{}, nil
}

func (s *server) cancel(ctx context.Context, log *slog.Logger, req *CancelRequest) (*CancelResponse, error) {
	if err := s.mgr.Cancel(ctx, req.TournamentID); err != nil {
		return nil, err
	}
	return &CancelResponse{}, nil
}

func (s *server) state(ctx context.Context, log *slog.Logger, req *StateRequest) (*StateResponse, error) {
	snap, err := s.mgr.State(ctx, req.TournamentID)
	if err != nil {
		return nil, err
	}
	return NewStateResponse(snap), nil
}

func (s *server) apply(ctx context.Context, log *slog.Logger, req *ApplyRequest) (*ApplyResponse, error) {
	reg, err := s.mgr.Apply(ctx, req.TournamentID, tourney.ApplyForm{
		SoloPlayer:  req.SoloPlayer,
		Phone:       req.Phone,
		Strength:    req.Strength,
		TeamPlayer1: req.TeamPlayer1,
		TeamPlayer2: req.TeamPlayer2,
		TeamPlayer3: req.TeamPlayer3,
	})
	if err != nil {
		return nil, err
	}
	return &ApplyResponse{RegistrationID: reg.ID, ConfirmationCode: reg.ConfirmationCode}, nil
}

func (s *server) withdraw(ctx context.Context, log *slog.Logger, req *WithdrawRequest) (*WithdrawResponse, error) {
	if err := s.mgr.Withdraw(ctx, req.TournamentID, req.ConfirmationCode); err != nil {
		return nil, err
	}
	return &WithdrawResponse{}, nil
}

// RegisterServer mounts the API onto mux. Endpoints under prefix+"/admin"
// require token auth, endpoints under prefix+"/pub" are open but rate-limited.
func RegisterServer(mgr *tourney.Manager, mux *http.ServeMux, o ServerOptions, prefix string, log *slog.Logger) error {
	if o.TokenChecker == nil {
		return fmt.Errorf("no token checker")
	}
	o.FillDefaults()
	s := &server{mgr: mgr}
	limiter := rate.NewLimiter(o.PublicRate, o.PublicBurst)

	method := func(name string) *slog.Logger { return log.With(slog.String("method", name)) }
	mux.HandleFunc(prefix+"/admin/tournament/create",
		makeHandler(method("createTournament"), &o, nil, s.createTournament))
	mux.HandleFunc(prefix+"/admin/tournament/list",
		makeHandler(method("listTournaments"), &o, nil, s.listTournaments))
	mux.HandleFunc(prefix+"/admin/tournament/mode",
		makeHandler(method("setMode"), &o, nil, s.setMode))
	mux.HandleFunc(prefix+"/admin/registration/create",
		makeHandler(method("createRegistration"), &o, nil, s.apply))
	mux.HandleFunc(prefix+"/admin/registration/list",
		makeHandler(method("listRegistrations"), &o, nil, s.listRegistrations))
	mux.HandleFunc(prefix+"/admin/registration/decide",
		makeHandler(method("decideRegistration"), &o, nil, s.decideRegistration))
	mux.HandleFunc(prefix+"/admin/registration/pay",
		makeHandler(method("setPaid"), &o, nil, s.setPaid))
	mux.HandleFunc(prefix+"/admin/player/list",
		makeHandler(method("listPlayers"), &o, nil, s.listPlayers))
	mux.HandleFunc(prefix+"/admin/player/strength",
		makeHandler(method("setStrength"), &o, nil, s.setStrength))
	mux.HandleFunc(prefix+"/admin/player/seed",
		makeHandler(method("setSeed"), &o, nil, s.setSeed))
	mux.HandleFunc(prefix+"/admin/teams/form",
		makeHandler(method("formTeams"), &o, nil, s.formTeams))
	mux.HandleFunc(prefix+"/admin/teams/reset",
		makeHandler(method("resetTeams"), &o, nil, s.resetTeams))
	mux.HandleFunc(prefix+"/admin/stage/start",
		makeHandler(method("startStage"), &o, nil, s.startStage))
	mux.HandleFunc(prefix+"/admin/game/result",
		makeHandler(method("recordResult"), &o, nil, s.recordResult))
	mux.HandleFunc(prefix+"/admin/overrides/get",
		makeHandler(method("getOverrides"), &o, nil, s.getOverrides))
	mux.HandleFunc(prefix+"/admin/overrides/save",
		makeHandler(method("saveOverrides"), &o, nil, s.saveOverrides))
	mux.HandleFunc(prefix+"/admin/finish",
		makeHandler(method("finish"), &o, nil, s.finish))
	mux.HandleFunc(prefix+"/admin/cancel",
		makeHandler(method("cancel"), &o, nil, s.cancel))

	mux.HandleFunc(prefix+"/pub/state",
		makeHandler(method("state"), &o, limiter, s.state))
	mux.HandleFunc(prefix+"/pub/apply",
		makeHandler(method("apply"), &o, limiter, s.apply))
	mux.HandleFunc(prefix+"/pub/withdraw",
		makeHandler(method("withdraw"), &o, limiter, s.withdraw))
	return nil
}
