package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vgurov/americano/internal/tourney"
	"github.com/vgurov/americano/internal/util/slogx"
	"github.com/vgurov/americano/internal/util/timeutil"
)

type Options struct {
	Path          string        `toml:"path"`
	Debug         bool          `toml:"debug"`
	SlowThreshold time.Duration `toml:"slow-threshold"`
	BusyTimeout   time.Duration `toml:"busy-timeout"`
	UseWAL        bool          `toml:"use-wal"`
}

func (o *Options) FillDefaults() {
	if o.SlowThreshold == 0 {
		o.SlowThreshold = 200 * time.Millisecond
	}
	if o.BusyTimeout == 0 {
		o.BusyTimeout = 1 * time.Minute
	}
}

type DB struct {
	db  *gorm.DB
	log *slog.Logger
}

var _ tourney.DB = (*DB)(nil)

func buildPath(o Options) string {
	var params []string
	if o.UseWAL {
		params = append(params, "_journal_mode=WAL")
		params = append(params, "_synchronous=NORMAL")
	}
	params = append(params, fmt.Sprintf("_busy_timeout=%v", o.BusyTimeout.Milliseconds()))
	params = append(params, "_foreign_keys=1")
	paramStr := strings.Join(params, "&")
	if paramStr == "" {
		return o.Path
	}
	return o.Path + "?" + paramStr
}

func New(log *slog.Logger, o Options) (*DB, error) {
	o.FillDefaults()

	log.Info("opening db")
	db, err := gorm.Open(sqlite.Open(buildPath(o)), &gorm.Config{
		Logger: Logger(log, o),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	d := &DB{db: db, log: log}

	log.Info("migrating db")
	if err := db.AutoMigrate(models...); err != nil {
		d.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	log.Info("db opened")
	return d, nil
}

func (d *DB) Close() {
	db, err := d.db.DB()
	if err != nil {
		d.log.Error("could not get underlying db", slogx.Err(err))
		return
	}
	if err := db.Close(); err != nil {
		d.log.Error("could not close db", slogx.Err(err))
	}
}

func notFound(err error, code tourney.Code, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tourney.Errorf(code, format, args...)
	}
	return err
}

func (d *DB) CreateTournament(ctx context.Context, t *tourney.Tournament) error {
	err := d.db.WithContext(ctx).Create(t).Error
	if err != nil {
		return fmt.Errorf("create tournament: %w", err)
	}
	return nil
}

func (d *DB) GetTournament(ctx context.Context, id string) (*tourney.Tournament, error) {
	var t tourney.Tournament
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		return nil, notFound(err, tourney.CodeNotFound, "no such tournament %v", id)
	}
	return &t, nil
}

func (d *DB) ListTournaments(ctx context.Context) ([]tourney.Tournament, error) {
	var res []tourney.Tournament
	err := d.db.WithContext(ctx).Order("created_at DESC").Find(&res).Error
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	return res, nil
}

func (d *DB) SetMode(ctx context.Context, tournamentID string, m tourney.Mode) error {
	err := d.db.WithContext(ctx).Model(&tourney.Tournament{}).
		Where("id = ?", tournamentID).
		Update("mode", m).Error
	if err != nil {
		return fmt.Errorf("set mode: %w", err)
	}
	return nil
}

func (d *DB) UpdateLifecycle(ctx context.Context, tournamentID string, l tourney.Lifecycle) error {
	err := d.db.WithContext(ctx).Model(&tourney.Tournament{}).
		Where("id = ?", tournamentID).
		Update("lifecycle", l).Error
	if err != nil {
		return fmt.Errorf("update lifecycle: %w", err)
	}
	return nil
}

func (d *DB) CancelTournament(ctx context.Context, tournamentID string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&tourney.Tournament{}).
			Where("id = ?", tournamentID).
			Update("lifecycle", tourney.LifecycleCanceled).Error
		if err != nil {
			return fmt.Errorf("update lifecycle: %w", err)
		}
		err = tx.Model(&tourney.Registration{}).
			Where("tournament_id = ? AND status IN ?", tournamentID,
				[]tourney.RegStatus{tourney.RegPending, tourney.RegAccepted}).
			Update("status", tourney.RegCanceled).Error
		if err != nil {
			return fmt.Errorf("cancel registrations: %w", err)
		}
		return nil
	})
}

func (d *DB) CreateRegistration(ctx context.Context, r *tourney.Registration, payments []tourney.RegistrationPayment) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("create registration: %w", err)
		}
		if len(payments) != 0 {
			if err := tx.Create(&payments).Error; err != nil {
				return fmt.Errorf("create payments: %w", err)
			}
		}
		return nil
	})
}

func (d *DB) GetRegistration(ctx context.Context, id string) (*tourney.Registration, error) {
	var r tourney.Registration
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if err != nil {
		return nil, notFound(err, tourney.CodeNotFound, "no such registration %v", id)
	}
	return &r, nil
}

func (d *DB) GetRegistrationByCode(ctx context.Context, tournamentID, code string) (*tourney.Registration, error) {
	var r tourney.Registration
	err := d.db.WithContext(ctx).
		Where("tournament_id = ? AND confirmation_code = ?", tournamentID, code).
		First(&r).Error
	if err != nil {
		return nil, notFound(err, tourney.CodeNotFound, "no registration with this confirmation code")
	}
	return &r, nil
}

func (d *DB) ListRegistrations(ctx context.Context, tournamentID string) ([]tourney.Registration, error) {
	var res []tourney.Registration
	err := d.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("created_at ASC").
		Find(&res).Error
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return res, nil
}

func (d *DB) SetRegistrationStatus(ctx context.Context, id string, status tourney.RegStatus) error {
	err := d.db.WithContext(ctx).Model(&tourney.Registration{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("set registration status: %w", err)
	}
	return nil
}

func (d *DB) AcceptRegistration(ctx context.Context, registrationID string, data tourney.AcceptData) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&tourney.Registration{}).
			Where("id = ?", registrationID).
			Update("status", tourney.RegAccepted).Error
		if err != nil {
			return fmt.Errorf("mark accepted: %w", err)
		}
		if len(data.Players) != 0 {
			if err := tx.Create(&data.Players).Error; err != nil {
				return fmt.Errorf("create players: %w", err)
			}
		}
		if data.Team != nil {
			if err := tx.Create(data.Team).Error; err != nil {
				return fmt.Errorf("create team: %w", err)
			}
		}
		if len(data.Members) != 0 {
			if err := tx.Create(&data.Members).Error; err != nil {
				return fmt.Errorf("create team members: %w", err)
			}
		}
		return nil
	})
}

func (d *DB) RollbackRegistration(ctx context.Context, registrationID string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var teamIDs []string
		err := tx.Model(&tourney.Team{}).
			Where("registration_id = ?", registrationID).
			Pluck("id", &teamIDs).Error
		if err != nil {
			return fmt.Errorf("find teams: %w", err)
		}
		if len(teamIDs) != 0 {
			if err := tx.Where("team_id IN ?", teamIDs).Delete(&tourney.TeamMember{}).Error; err != nil {
				return fmt.Errorf("delete team members: %w", err)
			}
			if err := tx.Where("id IN ?", teamIDs).Delete(&tourney.Team{}).Error; err != nil {
				return fmt.Errorf("delete teams: %w", err)
			}
		}
		err = tx.Where("registration_id = ?", registrationID).Delete(&tourney.Player{}).Error
		if err != nil {
			return fmt.Errorf("delete players: %w", err)
		}
		err = tx.Model(&tourney.Registration{}).
			Where("id = ?", registrationID).
			Update("status", tourney.RegPending).Error
		if err != nil {
			return fmt.Errorf("mark pending: %w", err)
		}
		return nil
	})
}

func (d *DB) ListPayments(ctx context.Context, tournamentID string) ([]tourney.RegistrationPayment, error) {
	var res []tourney.RegistrationPayment
	err := d.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Find(&res).Error
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return res, nil
}

func (d *DB) SetPaid(ctx context.Context, registrationID string, slot int, paid bool) error {
	values := map[string]any{"paid": paid, "paid_at": nil}
	if paid {
		values["paid_at"] = timeutil.NowUTC()
	}
	err := d.db.WithContext(ctx).Model(&tourney.RegistrationPayment{}).
		Where("registration_id = ? AND slot = ?", registrationID, slot).
		Updates(values).Error
	if err != nil {
		return fmt.Errorf("set paid: %w", err)
	}
	return nil
}

func (d *DB) ClearPayments(ctx context.Context, registrationID string) error {
	err := d.db.WithContext(ctx).Model(&tourney.RegistrationPayment{}).
		Where("registration_id = ?", registrationID).
		Updates(map[string]any{"paid": false, "paid_at": nil}).Error
	if err != nil {
		return fmt.Errorf("clear payments: %w", err)
	}
	return nil
}

func (d *DB) ListPlayers(ctx context.Context, tournamentID string) ([]tourney.Player, error) {
	var res []tourney.Player
	err := d.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Find(&res).Error
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return res, nil
}

func (d *DB) GetPlayer(ctx context.Context, id string) (*tourney.Player, error) {
	var p tourney.Player
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, notFound(err, tourney.CodeNotFound, "no such player %v", id)
	}
	return &p, nil
}

func (d *DB) UpdatePlayerStrength(ctx context.Context, id string, strength int) error {
	err := d.db.WithContext(ctx).Model(&tourney.Player{}).
		Where("id = ?", id).
		Update("strength", strength).Error
	if err != nil {
		return fmt.Errorf("update player strength: %w", err)
	}
	return nil
}

func (d *DB) UpdatePlayerSeed(ctx context.Context, id string, seedTeamIndex, seedSlot *int) error {
	err := d.db.WithContext(ctx).Model(&tourney.Player{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"seed_team_index": seedTeamIndex,
			"seed_slot":       seedSlot,
		}).Error
	if err != nil {
		return fmt.Errorf("update player seed: %w", err)
	}
	return nil
}

func (d *DB) ListTeams(ctx context.Context, tournamentID string) ([]tourney.Team, error) {
	var res []tourney.Team
	err := d.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("ordinal ASC").
		Find(&res).Error
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return res, nil
}

func (d *DB) ListTeamMembers(ctx context.Context, tournamentID string) ([]tourney.TeamMember, error) {
	var res []tourney.TeamMember
	err := d.db.WithContext(ctx).
		Joins("JOIN teams ON teams.id = team_members.team_id").
		Where("teams.tournament_id = ?", tournamentID).
		Find(&res).Error
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return res, nil
}

// CreateTeams re-checks inside the transaction that no teams exist yet, so
// two concurrent formation attempts cannot both insert.
func (d *DB) CreateTeams(ctx context.Context, tournamentID string, teams []tourney.Team, members []tourney.TeamMember) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		err := tx.Model(&tourney.Team{}).
			Where("tournament_id = ?", tournamentID).
			Count(&cnt).Error
		if err != nil {
			return fmt.Errorf("count teams: %w", err)
		}
		if cnt > 0 {
			return tourney.Errorf(tourney.CodeTeamsAlreadyExist, "%v teams already exist, reset them first", cnt)
		}
		if err := tx.Create(&teams).Error; err != nil {
			return fmt.Errorf("create teams: %w", err)
		}
		if err := tx.Create(&members).Error; err != nil {
			return fmt.Errorf("create team members: %w", err)
		}
		return nil
	})
}

func (d *DB) DeleteTeams(ctx context.Context, tournamentID string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var teamIDs []string
		err := tx.Model(&tourney.Team{}).
			Where("tournament_id = ?", tournamentID).
			Pluck("id", &teamIDs).Error
		if err != nil {
			return fmt.Errorf("find teams: %w", err)
		}
		if len(teamIDs) == 0 {
			return nil
		}
		if err := tx.Where("team_id IN ?", teamIDs).Delete(&tourney.TeamMember{}).Error; err != nil {
			return fmt.Errorf("delete team members: %w", err)
		}
		if err := tx.Where("id IN ?", teamIDs).Delete(&tourney.Team{}).Error; err != nil {
			return fmt.Errorf("delete teams: %w", err)
		}
		return nil
	})
}

func (d *DB) LastStage(ctx context.Context, tournamentID string) (*tourney.Stage, error) {
	var s tourney.Stage
	err := d.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("number DESC").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("last stage: %w", err)
	}
	return &s, nil
}

func (d *DB) GetStage(ctx context.Context, id string) (*tourney.Stage, error) {
	var s tourney.Stage
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		return nil, notFound(err, tourney.CodeNotFound, "no such stage %v", id)
	}
	return &s, nil
}

func (d *DB) ListStages(ctx context.Context, tournamentID string) ([]tourney.Stage, error) {
	var res []tourney.Stage
	err := d.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("number ASC").
		Find(&res).Error
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	return res, nil
}

func (d *DB) CountStages(ctx context.Context, tournamentID string) (int64, error) {
	var cnt int64
	err := d.db.WithContext(ctx).Model(&tourney.Stage{}).
		Where("tournament_id = ?", tournamentID).
		Count(&cnt).Error
	if err != nil {
		return 0, fmt.Errorf("count stages: %w", err)
	}
	return cnt, nil
}

func (d *DB) CreateStage(ctx context.Context, stage *tourney.Stage, games []tourney.Game, states []tourney.TeamState, lifecycle tourney.Lifecycle) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(stage).Error; err != nil {
			return fmt.Errorf("create stage: %w", err)
		}
		if err := tx.Create(&games).Error; err != nil {
			return fmt.Errorf("create games: %w", err)
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tournament_id"}, {Name: "team_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"current_court"}),
		}).Create(&states).Error
		if err != nil {
			return fmt.Errorf("upsert team states: %w", err)
		}
		err = tx.Model(&tourney.Tournament{}).
			Where("id = ?", stage.TournamentID).
			Update("lifecycle", lifecycle).Error
		if err != nil {
			return fmt.Errorf("update lifecycle: %w", err)
		}
		return nil
	})
}

func (d *DB) GetGame(ctx context.Context, id string) (*tourney.Game, error) {
	var g tourney.Game
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&g).Error
	if err != nil {
		return nil, notFound(err, tourney.CodeNotFound, "no such game %v", id)
	}
	return &g, nil
}

func (d *DB) ListGamesByStage(ctx context.Context, stageID string) ([]tourney.Game, error) {
	var res []tourney.Game
	err := d.db.WithContext(ctx).
		Where("stage_id = ?", stageID).
		Order("court ASC").
		Find(&res).Error
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return res, nil
}

// ApplyResult persists one scoring event atomically: the game row, the
// winner's points and both teams' courts. The winner check is repeated
// here so a result cannot be overwritten by a racing call.
func (d *DB) ApplyResult(ctx context.Context, res tourney.GameResult) (bool, error) {
	complete := false
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g tourney.Game
		if err := tx.Where("id = ?", res.GameID).First(&g).Error; err != nil {
			return notFound(err, tourney.CodeNotFound, "no such game %v", res.GameID)
		}
		if g.WinnerTeamID != nil {
			return tourney.Errorf(tourney.CodeAlreadyScored, "game %v already has a winner", res.GameID)
		}
		err := tx.Model(&tourney.Game{}).
			Where("id = ?", res.GameID).
			Updates(map[string]any{
				"winner_team_id": res.WinnerTeamID,
				"score_text":     res.ScoreText,
				"points_awarded": res.PointsAwarded,
			}).Error
		if err != nil {
			return fmt.Errorf("update game: %w", err)
		}
		err = tx.Model(&tourney.Team{}).
			Where("id = ?", res.WinnerTeamID).
			Update("points", gorm.Expr("points + ?", res.PointsAwarded)).Error
		if err != nil {
			return fmt.Errorf("increment points: %w", err)
		}
		for _, move := range []struct {
			teamID string
			court  int
		}{
			{res.WinnerTeamID, res.WinnerCourt},
			{res.LoserTeamID, res.LoserCourt},
		} {
			err = tx.Model(&tourney.TeamState{}).
				Where("tournament_id = ? AND team_id = ?", res.TournamentID, move.teamID).
				Update("current_court", move.court).Error
			if err != nil {
				return fmt.Errorf("move team: %w", err)
			}
		}
		var total, unscored int64
		err = tx.Model(&tourney.Game{}).
			Where("stage_id = ?", res.StageID).
			Count(&total).Error
		if err != nil {
			return fmt.Errorf("count games: %w", err)
		}
		err = tx.Model(&tourney.Game{}).
			Where("stage_id = ? AND winner_team_id IS NULL", res.StageID).
			Count(&unscored).Error
		if err != nil {
			return fmt.Errorf("count unscored games: %w", err)
		}
		complete = total > 0 && unscored == 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return complete, nil
}

func (d *DB) FinishStage(ctx context.Context, stageID, tournamentID string, lifecycle tourney.Lifecycle) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&tourney.Game{}).
			Where("stage_id = ?", stageID).
			Update("is_final", true).Error
		if err != nil {
			return fmt.Errorf("mark games final: %w", err)
		}
		err = tx.Model(&tourney.Tournament{}).
			Where("id = ?", tournamentID).
			Update("lifecycle", lifecycle).Error
		if err != nil {
			return fmt.Errorf("update lifecycle: %w", err)
		}
		return nil
	})
}

func (d *DB) ListTeamStates(ctx context.Context, tournamentID string) ([]tourney.TeamState, error) {
	var res []tourney.TeamState
	err := d.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Find(&res).Error
	if err != nil {
		return nil, fmt.Errorf("list team states: %w", err)
	}
	return res, nil
}

func (d *DB) ListOverrides(ctx context.Context, tournamentID string) ([]tourney.PointsOverride, error) {
	var res []tourney.PointsOverride
	err := d.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("stage_number ASC").
		Find(&res).Error
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	return res, nil
}

func (d *DB) GetOverride(ctx context.Context, tournamentID string, stageNumber int) (*tourney.PointsOverride, error) {
	var o tourney.PointsOverride
	err := d.db.WithContext(ctx).
		Where("tournament_id = ? AND stage_number = ?", tournamentID, stageNumber).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get override: %w", err)
	}
	return &o, nil
}

func (d *DB) ReplaceOverrides(ctx context.Context, tournamentID string, rows []tourney.PointsOverride) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("tournament_id = ?", tournamentID).Delete(&tourney.PointsOverride{}).Error
		if err != nil {
			return fmt.Errorf("delete overrides: %w", err)
		}
		if len(rows) != 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("create overrides: %w", err)
			}
		}
		return nil
	})
}
