package tourney

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/vgurov/americano/internal/util/idgen"
	"github.com/vgurov/americano/internal/util/timeutil"
)

// ApplyForm is a public registration submission.
type ApplyForm struct {
	SoloPlayer  string
	Phone       string
	Strength    int
	TeamPlayer1 string
	TeamPlayer2 string
	TeamPlayer3 string
}

func (f *ApplyForm) validate(mode Mode) error {
	names := []string{f.SoloPlayer, f.TeamPlayer1, f.TeamPlayer2, f.TeamPlayer3}
	for _, n := range names {
		if utf8.RuneCountInString(n) > PlayerNameMaxLen {
			return Errorf(CodeValidation, "player name exceeds %v runes", PlayerNameMaxLen)
		}
	}
	switch mode {
	case ModeSolo:
		if strings.TrimSpace(f.SoloPlayer) == "" {
			return Errorf(CodeValidation, "player name required")
		}
	case ModeTeam:
		for _, n := range []string{f.TeamPlayer1, f.TeamPlayer2, f.TeamPlayer3} {
			if strings.TrimSpace(n) == "" {
				return Errorf(CodeValidation, "a team registration needs %v player names", TeamSize)
			}
		}
	default:
		panic("must not happen")
	}
	return nil
}

// Apply files a pending registration. Allowed only while the tournament is
// still in draft.
func (m *Manager) Apply(ctx context.Context, tournamentID string, form ApplyForm) (*Registration, error) {
	unlock := m.locks.Lock(tournamentID)
	defer unlock()

	t, err := m.db.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Lifecycle != LifecycleDraft {
		return nil, Errorf(CodeBadLifecycle, "registration is closed, tournament is %v", t.Lifecycle)
	}
	if err := form.validate(t.Mode); err != nil {
		return nil, err
	}

	code, err := idgen.ConfirmationCode()
	if err != nil {
		return nil, fmt.Errorf("generate confirmation code: %w", err)
	}
	reg := &Registration{
		ID:               idgen.ID(),
		TournamentID:     tournamentID,
		Mode:             t.Mode,
		Status:           RegPending,
		SoloPlayer:       strings.TrimSpace(form.SoloPlayer),
		Phone:            strings.TrimSpace(form.Phone),
		Strength:         clampStrength(form.Strength),
		TeamPlayer1:      strings.TrimSpace(form.TeamPlayer1),
		TeamPlayer2:      strings.TrimSpace(form.TeamPlayer2),
		TeamPlayer3:      strings.TrimSpace(form.TeamPlayer3),
		ConfirmationCode: code,
		CreatedAt:        timeutil.NowUTC(),
	}
	payments := make([]RegistrationPayment, 0, reg.PaySlots())
	for slot := 1; slot <= reg.PaySlots(); slot++ {
		payments = append(payments, RegistrationPayment{
			TournamentID:   tournamentID,
			RegistrationID: reg.ID,
			Slot:           slot,
		})
	}
	if err := m.db.CreateRegistration(ctx, reg, payments); err != nil {
		return nil, fmt.Errorf("create registration: %w", err)
	}
	m.log.Info("new registration",
		slog.String("tournament_id", tournamentID),
		slog.String("registration_id", reg.ID),
	)
	return reg, nil
}

// Withdraw cancels the registration matching the confirmation code.
func (m *Manager) Withdraw(ctx context.Context, tournamentID, confirmationCode string) error {
	unlock := m.locks.Lock(tournamentID)
	defer unlock()

	t, err := m.db.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.Lifecycle != LifecycleDraft {
		return Errorf(CodeBadLifecycle, "withdrawal is closed, tournament is %v", t.Lifecycle)
	}
	reg, err := m.db.GetRegistrationByCode(ctx, tournamentID, confirmationCode)
	if err != nil {
		return err
	}
	if reg.Status == RegCanceled {
		return nil
	}
	if reg.Status == RegAccepted {
		if err := m.db.RollbackRegistration(ctx, reg.ID); err != nil {
			return fmt.Errorf("rollback registration: %w", err)
		}
	}
	return m.db.SetRegistrationStatus(ctx, reg.ID, RegCanceled)
}

type DecideAction int

const (
	DecideAccept DecideAction = iota + 1
	DecideReject
	DecideUnaccept
)

func DecideActionFromString(s string) (DecideAction, error) {
	switch strings.ToLower(s) {
	case "accept":
		return DecideAccept, nil
	case "reject":
		return DecideReject, nil
	case "unaccept":
		return DecideUnaccept, nil
	default:
		return 0, fmt.Errorf("unknown action %q", s)
	}
}

// DecideRegistration accepts, rejects or rolls back one registration.
// Acceptance is what materializes players (and, in team mode, the team
// itself); unaccept deletes them again and returns the registration to
// pending.
func (m *Manager) DecideRegistration(ctx context.Context, registrationID string, action DecideAction) error {
	reg, err := m.db.GetRegistration(ctx, registrationID)
	if err != nil {
		return err
	}

	unlock := m.locks.Lock(reg.TournamentID)
	defer unlock()

	t, err := m.db.GetTournament(ctx, reg.TournamentID)
	if err != nil {
		return err
	}
	if t.Lifecycle != LifecycleDraft {
		return Errorf(CodeBadLifecycle, "registrations are frozen, tournament is %v", t.Lifecycle)
	}

	switch action {
	case DecideReject:
		if err := m.db.ClearPayments(ctx, registrationID); err != nil {
			return fmt.Errorf("clear payments: %w", err)
		}
		return m.db.SetRegistrationStatus(ctx, registrationID, RegRejected)
	case DecideUnaccept:
		if reg.Status != RegAccepted {
			return Errorf(CodeValidation, "registration %v is not accepted", registrationID)
		}
		if err := m.db.RollbackRegistration(ctx, registrationID); err != nil {
			return fmt.Errorf("rollback registration: %w", err)
		}
		return nil
	case DecideAccept:
		if reg.Status == RegAccepted {
			return nil
		}
		data, err := m.acceptData(ctx, t, reg)
		if err != nil {
			return err
		}
		if err := m.db.AcceptRegistration(ctx, registrationID, data); err != nil {
			return fmt.Errorf("accept registration: %w", err)
		}
		m.log.Info("accepted registration",
			slog.String("tournament_id", t.ID),
			slog.String("registration_id", registrationID),
		)
		return nil
	default:
		return Errorf(CodeValidation, "bad action")
	}
}

func (m *Manager) acceptData(ctx context.Context, t *Tournament, reg *Registration) (AcceptData, error) {
	if reg.Mode == ModeSolo {
		return AcceptData{
			Players: []Player{{
				ID:             idgen.ID(),
				TournamentID:   t.ID,
				RegistrationID: reg.ID,
				FullName:       reg.SoloPlayer,
				Strength:       clampStrength(reg.Strength),
			}},
		}, nil
	}

	names := reg.TeamNames()
	if len(names) != TeamSize {
		return AcceptData{}, Errorf(CodeValidation, "a team registration needs %v player names", TeamSize)
	}
	teams, err := m.db.ListTeams(ctx, t.ID)
	if err != nil {
		return AcceptData{}, fmt.Errorf("list teams: %w", err)
	}
	if len(teams) >= NumTeams {
		return AcceptData{}, Errorf(CodeTeamCount, "all %v team slots are taken", NumTeams)
	}
	var taken [NumTeams + 1]bool
	for _, team := range teams {
		if team.Ordinal >= 1 && team.Ordinal <= NumTeams {
			taken[team.Ordinal] = true
		}
	}
	ordinal := 0
	for i := 1; i <= NumTeams; i++ {
		if !taken[i] {
			ordinal = i
			break
		}
	}
	if ordinal == 0 {
		panic("must not happen")
	}

	regID := reg.ID
	team := &Team{
		ID:             idgen.ID(),
		TournamentID:   t.ID,
		RegistrationID: &regID,
		Ordinal:        ordinal,
		Name:           strings.Join(names, " / "),
	}
	data := AcceptData{Team: team}
	for i, name := range names {
		p := Player{
			ID:             idgen.ID(),
			TournamentID:   t.ID,
			RegistrationID: reg.ID,
			FullName:       name,
			Strength:       clampStrength(reg.Strength),
		}
		data.Players = append(data.Players, p)
		data.Members = append(data.Members, TeamMember{
			TeamID:   team.ID,
			Slot:     i + 1,
			PlayerID: p.ID,
		})
	}
	return data, nil
}

func (m *Manager) SetPaid(ctx context.Context, registrationID string, slot int, paid bool) error {
	reg, err := m.db.GetRegistration(ctx, registrationID)
	if err != nil {
		return err
	}
	if slot < 1 || slot > reg.PaySlots() {
		return Errorf(CodeValidation, "payment slot %v out of range [1, %v]", slot, reg.PaySlots())
	}
	unlock := m.locks.Lock(reg.TournamentID)
	defer unlock()
	t, err := m.db.GetTournament(ctx, reg.TournamentID)
	if err != nil {
		return err
	}
	if t.Lifecycle == LifecycleCanceled || t.Lifecycle == LifecycleFinished {
		return Errorf(CodeBadLifecycle, "tournament is %v", t.Lifecycle)
	}
	return m.db.SetPaid(ctx, registrationID, slot, paid)
}

func (m *Manager) ListRegistrations(ctx context.Context, tournamentID string) ([]Registration, []RegistrationPayment, error) {
	if _, err := m.db.GetTournament(ctx, tournamentID); err != nil {
		return nil, nil, err
	}
	regs, err := m.db.ListRegistrations(ctx, tournamentID)
	if err != nil {
		return nil, nil, fmt.Errorf("list registrations: %w", err)
	}
	pays, err := m.db.ListPayments(ctx, tournamentID)
	if err != nil {
		return nil, nil, fmt.Errorf("list payments: %w", err)
	}
	return regs, pays, nil
}

// requireAllAcceptedPaid is the payment predicate: every accepted
// registration must have all of its slots paid before teams can be formed
// or a stage started.
func (m *Manager) requireAllAcceptedPaid(ctx context.Context, tournamentID string) error {
	regs, err := m.db.ListRegistrations(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("list registrations: %w", err)
	}
	pays, err := m.db.ListPayments(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("list payments: %w", err)
	}
	paid := make(map[string]map[int]bool)
	for _, p := range pays {
		if paid[p.RegistrationID] == nil {
			paid[p.RegistrationID] = make(map[int]bool)
		}
		paid[p.RegistrationID][p.Slot] = p.Paid
	}
	for _, r := range regs {
		if r.Status != RegAccepted {
			continue
		}
		for slot := 1; slot <= r.PaySlots(); slot++ {
			if !paid[r.ID][slot] {
				return Errorf(CodePaymentIncomplete, "registration %v has an unpaid slot %v", r.ID, slot)
			}
		}
	}
	return nil
}
