package tourney

import (
	"context"
	"slices"
	"sync"
)

// memDB is an in-memory DB for manager tests. It mirrors the transactional
// guarantees of the real store: multi-row writes happen under one lock and
// ApplyResult re-checks that the game is still unscored.
type memDB struct {
	mu          sync.Mutex
	tournaments map[string]*Tournament
	regs        map[string]*Registration
	payments    []RegistrationPayment
	players     map[string]*Player
	teams       map[string]*Team
	members     []TeamMember
	stages      map[string]*Stage
	games       map[string]*Game
	states      map[string]map[string]int
	overrides   map[string][]PointsOverride
}

var _ DB = (*memDB)(nil)

func newMemDB() *memDB {
	return &memDB{
		tournaments: make(map[string]*Tournament),
		regs:        make(map[string]*Registration),
		players:     make(map[string]*Player),
		teams:       make(map[string]*Team),
		stages:      make(map[string]*Stage),
		games:       make(map[string]*Game),
		states:      make(map[string]map[string]int),
		overrides:   make(map[string][]PointsOverride),
	}
}

func (d *memDB) CreateTournament(ctx context.Context, t *Tournament) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *t
	d.tournaments[t.ID] = &cp
	return nil
}

func (d *memDB) GetTournament(ctx context.Context, id string) (*Tournament, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tournaments[id]
	if !ok {
		return nil, Errorf(CodeNotFound, "no such tournament %v", id)
	}
	cp := *t
	return &cp, nil
}

func (d *memDB) ListTournaments(ctx context.Context) ([]Tournament, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var res []Tournament
	for _, t := range d.tournaments {
		res = append(res, *t)
	}
	return res, nil
}

func (d *memDB) SetMode(ctx context.Context, tournamentID string, m Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.tournaments[tournamentID]; ok {
		t.Mode = m
	}
	return nil
}

func (d *memDB) UpdateLifecycle(ctx context.Context, tournamentID string, l Lifecycle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.tournaments[tournamentID]; ok {
		t.Lifecycle = l
	}
	return nil
}

func (d *memDB) CancelTournament(ctx context.Context, tournamentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.tournaments[tournamentID]; ok {
		t.Lifecycle = LifecycleCanceled
	}
	for _, r := range d.regs {
		if r.TournamentID == tournamentID && (r.Status == RegPending || r.Status == RegAccepted) {
			r.Status = RegCanceled
		}
	}
	return nil
}

func (d *memDB) CreateRegistration(ctx context.Context, r *Registration, payments []RegistrationPayment) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *r
	d.regs[r.ID] = &cp
	d.payments = append(d.payments, payments...)
	return nil
}

func (d *memDB) GetRegistration(ctx context.Context, id string) (*Registration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.regs[id]
	if !ok {
		return nil, Errorf(CodeNotFound, "no such registration %v", id)
	}
	cp := *r
	return &cp, nil
}

func (d *memDB) GetRegistrationByCode(ctx context.Context, tournamentID, code string) (*Registration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.regs {
		if r.TournamentID == tournamentID && r.ConfirmationCode == code {
			cp := *r
			return &cp, nil
		}
	}
	return nil, Errorf(CodeNotFound, "no registration with this code")
}

func (d *memDB) ListRegistrations(ctx context.Context, tournamentID string) ([]Registration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var res []Registration
	for _, r := range d.regs {
		if r.TournamentID == tournamentID {
			res = append(res, *r)
		}
	}
	return res, nil
}

func (d *memDB) SetRegistrationStatus(ctx context.Context, id string, status RegStatus) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.regs[id]; ok {
		r.Status = status
	}
	return nil
}

func (d *memDB) AcceptRegistration(ctx context.Context, registrationID string, data AcceptData) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.regs[registrationID]; ok {
		r.Status = RegAccepted
	}
	for _, p := range data.Players {
		cp := p
		d.players[p.ID] = &cp
	}
	if data.Team != nil {
		cp := *data.Team
		d.teams[cp.ID] = &cp
	}
	d.members = append(d.members, data.Members...)
	return nil
}

func (d *memDB) RollbackRegistration(ctx context.Context, registrationID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var teamIDs []string
	for id, team := range d.teams {
		if team.RegistrationID != nil && *team.RegistrationID == registrationID {
			teamIDs = append(teamIDs, id)
		}
	}
	for _, id := range teamIDs {
		delete(d.teams, id)
	}
	d.members = slices.DeleteFunc(d.members, func(m TeamMember) bool {
		return slices.Contains(teamIDs, m.TeamID)
	})
	for id, p := range d.players {
		if p.RegistrationID == registrationID {
			delete(d.players, id)
		}
	}
	if r, ok := d.regs[registrationID]; ok {
		r.Status = RegPending
	}
	return nil
}

func (d *memDB) ListPayments(ctx context.Context, tournamentID string) ([]RegistrationPayment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var res []RegistrationPayment
	for _, p := range d.payments {
		if p.TournamentID == tournamentID {
			res = append(res, p)
		}
	}
	return res, nil
}

func (d *memDB) SetPaid(ctx context.Context, registrationID string, slot int, paid bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.payments {
		if d.payments[i].RegistrationID == registrationID && d.payments[i].Slot == slot {
			d.payments[i].Paid = paid
		}
	}
	return nil
}

func (d *memDB) ClearPayments(ctx context.Context, registrationID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.payments {
		if d.payments[i].RegistrationID == registrationID {
			d.payments[i].Paid = false
			d.payments[i].PaidAt = nil
		}
	}
	return nil
}

func (d *memDB) ListPlayers(ctx context.Context, tournamentID string) ([]Player, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var res []Player
	for _, p := range d.players {
		if p.TournamentID == tournamentID {
			res = append(res, *p)
		}
	}
	return res, nil
}

func (d *memDB) GetPlayer(ctx context.Context, id string) (*Player, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.players[id]
	if !ok {
		return nil, Errorf(CodeNotFound, "no such player %v", id)
	}
	cp := *p
	return &cp, nil
}

func (d *memDB) UpdatePlayerStrength(ctx context.Context, id string, strength int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.players[id]; ok {
		p.Strength = strength
	}
	return nil
}

func (d *memDB) UpdatePlayerSeed(ctx context.Context, id string, seedTeamIndex, seedSlot *int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.players[id]; ok {
		p.SeedTeamIndex = seedTeamIndex
		p.SeedSlot = seedSlot
	}
	return nil
}

func (d *memDB) ListTeams(ctx context.Context, tournamentID string) ([]Team, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var res []Team
	for _, t := range d.teams {
		if t.TournamentID == tournamentID {
			res = append(res, *t)
		}
	}
	return res, nil
}

func (d *memDB) ListTeamMembers(ctx context.Context, tournamentID string) ([]TeamMember, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var res []TeamMember
	for _, m := range d.members {
		if t, ok := d.teams[m.TeamID]; ok && t.TournamentID == tournamentID {
			res = append(res, m)
		}
	}
	return res, nil
}

func (d *memDB) CreateTeams(ctx context.Context, tournamentID string, teams []Team, members []TeamMember) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.teams {
		if t.TournamentID == tournamentID {
			return Errorf(CodeTeamsAlreadyExist, "teams already exist")
		}
	}
	for _, t := range teams {
		cp := t
		d.teams[t.ID] = &cp
	}
	d.members = append(d.members, members...)
	return nil
}

func (d *memDB) DeleteTeams(ctx context.Context, tournamentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var teamIDs []string
	for id, t := range d.teams {
		if t.TournamentID == tournamentID {
			teamIDs = append(teamIDs, id)
		}
	}
	for _, id := range teamIDs {
		delete(d.teams, id)
	}
	d.members = slices.DeleteFunc(d.members, func(m TeamMember) bool {
		return slices.Contains(teamIDs, m.TeamID)
	})
	delete(d.states, tournamentID)
	return nil
}

func (d *memDB) LastStage(ctx context.Context, tournamentID string) (*Stage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var last *Stage
	for _, s := range d.stages {
		if s.TournamentID != tournamentID {
			continue
		}
		if last == nil || s.Number > last.Number {
			last = s
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (d *memDB) GetStage(ctx context.Context, id string) (*Stage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.stages[id]
	if !ok {
		return nil, Errorf(CodeNotFound, "no such stage %v", id)
	}
	cp := *s
	return &cp, nil
}

func (d *memDB) ListStages(ctx context.Context, tournamentID string) ([]Stage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var res []Stage
	for _, s := range d.stages {
		if s.TournamentID == tournamentID {
			res = append(res, *s)
		}
	}
	return res, nil
}

func (d *memDB) CountStages(ctx context.Context, tournamentID string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var cnt int64
	for _, s := range d.stages {
		if s.TournamentID == tournamentID {
			cnt++
		}
	}
	return cnt, nil
}

func (d *memDB) CreateStage(ctx context.Context, stage *Stage, games []Game, states []TeamState, lifecycle Lifecycle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *stage
	d.stages[stage.ID] = &cp
	for _, g := range games {
		gcp := g
		d.games[g.ID] = &gcp
	}
	if d.states[stage.TournamentID] == nil {
		d.states[stage.TournamentID] = make(map[string]int)
	}
	for _, s := range states {
		d.states[stage.TournamentID][s.TeamID] = s.CurrentCourt
	}
	if t, ok := d.tournaments[stage.TournamentID]; ok {
		t.Lifecycle = lifecycle
	}
	return nil
}

func (d *memDB) GetGame(ctx context.Context, id string) (*Game, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.games[id]
	if !ok {
		return nil, Errorf(CodeNotFound, "no such game %v", id)
	}
	cp := *g
	return &cp, nil
}

func (d *memDB) ListGamesByStage(ctx context.Context, stageID string) ([]Game, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var res []Game
	for _, g := range d.games {
		if g.StageID == stageID {
			res = append(res, *g)
		}
	}
	return res, nil
}

func (d *memDB) ApplyResult(ctx context.Context, res GameResult) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.games[res.GameID]
	if !ok {
		return false, Errorf(CodeNotFound, "no such game %v", res.GameID)
	}
	if g.WinnerTeamID != nil {
		return false, Errorf(CodeAlreadyScored, "game %v already has a winner", res.GameID)
	}
	winner := res.WinnerTeamID
	points := res.PointsAwarded
	g.WinnerTeamID = &winner
	g.ScoreText = res.ScoreText
	g.PointsAwarded = &points
	if t, ok := d.teams[winner]; ok {
		t.Points += points
	}
	if d.states[res.TournamentID] == nil {
		d.states[res.TournamentID] = make(map[string]int)
	}
	d.states[res.TournamentID][res.WinnerTeamID] = res.WinnerCourt
	d.states[res.TournamentID][res.LoserTeamID] = res.LoserCourt
	for _, other := range d.games {
		if other.StageID == res.StageID && other.WinnerTeamID == nil {
			return false, nil
		}
	}
	return true, nil
}

func (d *memDB) FinishStage(ctx context.Context, stageID, tournamentID string, lifecycle Lifecycle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, g := range d.games {
		if g.StageID == stageID {
			g.IsFinal = true
		}
	}
	if t, ok := d.tournaments[tournamentID]; ok {
		t.Lifecycle = lifecycle
	}
	return nil
}

func (d *memDB) ListTeamStates(ctx context.Context, tournamentID string) ([]TeamState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var res []TeamState
	for teamID, court := range d.states[tournamentID] {
		res = append(res, TeamState{TournamentID: tournamentID, TeamID: teamID, CurrentCourt: court})
	}
	return res, nil
}

func (d *memDB) ListOverrides(ctx context.Context, tournamentID string) ([]PointsOverride, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.overrides[tournamentID]), nil
}

func (d *memDB) GetOverride(ctx context.Context, tournamentID string, stageNumber int) (*PointsOverride, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, o := range d.overrides[tournamentID] {
		if o.StageNumber == stageNumber {
			cp := o
			return &cp, nil
		}
	}
	return nil, nil
}

func (d *memDB) ReplaceOverrides(ctx context.Context, tournamentID string, rows []PointsOverride) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.overrides[tournamentID] = slices.Clone(rows)
	return nil
}
