package tourney

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vgurov/americano/internal/util/timeutil"
)

const (
	NumTeams   = 8
	NumCourts  = 4
	TeamSize   = 3
	NumPlayers = NumTeams * TeamSize
	NumBuckets = 3
	BucketSize = NumPlayers / NumBuckets
	MaxSeeds   = NumTeams

	MinStrength     = 1
	MaxStrength     = 5
	DefaultStrength = 3

	TournamentNameMaxLen = 128
	PlayerNameMaxLen     = 128
)

type Mode int

const (
	ModeUnknown Mode = iota
	ModeSolo
	ModeTeam
)

func (m Mode) String() string {
	switch m {
	case ModeSolo:
		return "solo"
	case ModeTeam:
		return "team"
	default:
		return "?"
	}
}

func (m Mode) PrettyString() string {
	switch m {
	case ModeSolo:
		return "Solo"
	case ModeTeam:
		return "Team"
	default:
		return "?"
	}
}

func ModeFromString(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "solo":
		return ModeSolo, nil
	case "team":
		return ModeTeam, nil
	default:
		return ModeUnknown, fmt.Errorf("unknown mode %q", s)
	}
}

type Lifecycle int

const (
	LifecycleUnknown Lifecycle = iota
	LifecycleDraft
	LifecycleLive
	LifecycleFinished
	LifecycleCanceled
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleDraft:
		return "draft"
	case LifecycleLive:
		return "live"
	case LifecycleFinished:
		return "finished"
	case LifecycleCanceled:
		return "canceled"
	default:
		return "?"
	}
}

func (l Lifecycle) PrettyString() string {
	switch l {
	case LifecycleDraft:
		return "Draft"
	case LifecycleLive:
		return "Live"
	case LifecycleFinished:
		return "Finished"
	case LifecycleCanceled:
		return "Canceled"
	default:
		return "?"
	}
}

func (l Lifecycle) IsTerminal() bool {
	return l == LifecycleFinished || l == LifecycleCanceled
}

// CanTransition is the lifecycle transition table. Canceled is reachable
// from any non-finished state, finished only from live.
func (l Lifecycle) CanTransition(to Lifecycle) bool {
	switch to {
	case LifecycleLive:
		return l == LifecycleDraft || l == LifecycleLive
	case LifecycleFinished:
		return l == LifecycleLive
	case LifecycleCanceled:
		return l != LifecycleFinished
	default:
		return false
	}
}

type RegStatus int

const (
	RegUnknown RegStatus = iota
	RegPending
	RegAccepted
	RegRejected
	RegCanceled
)

func (s RegStatus) String() string {
	switch s {
	case RegPending:
		return "pending"
	case RegAccepted:
		return "accepted"
	case RegRejected:
		return "rejected"
	case RegCanceled:
		return "canceled"
	default:
		return "?"
	}
}

// PointsSchedule holds per-court points, index 0 is court 1.
type PointsSchedule [NumCourts]int

func (s PointsSchedule) Court(court int) int {
	if !validCourt(court) {
		panic("must not happen")
	}
	return s[court-1]
}

func DefaultPointsSchedule() PointsSchedule {
	return PointsSchedule{5, 4, 3, 2}
}

type Tournament struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"index"`
	Mode      Mode      `gorm:"index"`
	Lifecycle Lifecycle `gorm:"index"`
	PointsC1  int
	PointsC2  int
	PointsC3  int
	PointsC4  int
	CreatedAt timeutil.UTCTime
}

func (t *Tournament) PointsSchedule() PointsSchedule {
	return PointsSchedule{t.PointsC1, t.PointsC2, t.PointsC3, t.PointsC4}
}

func (t *Tournament) Validate() error {
	if t.Name == "" {
		return Errorf(CodeValidation, "no tournament name")
	}
	if utf8.RuneCountInString(t.Name) > TournamentNameMaxLen {
		return Errorf(CodeValidation, "tournament name exceeds %v runes", TournamentNameMaxLen)
	}
	if t.Mode != ModeSolo && t.Mode != ModeTeam {
		return Errorf(CodeValidation, "bad tournament mode")
	}
	for _, p := range t.PointsSchedule() {
		if p < 0 {
			return Errorf(CodeValidation, "negative court points")
		}
	}
	return nil
}

type Registration struct {
	ID               string `gorm:"primaryKey"`
	TournamentID     string `gorm:"index"`
	Mode             Mode
	Status           RegStatus `gorm:"index"`
	SoloPlayer       string
	Phone            string
	Strength         int
	TeamPlayer1      string
	TeamPlayer2      string
	TeamPlayer3      string
	ConfirmationCode string `gorm:"index"`
	CreatedAt        timeutil.UTCTime
}

// PaySlots is the number of per-person payment slots the registration
// carries: one for a solo entrant, three for a pre-formed team.
func (r *Registration) PaySlots() int {
	if r.Mode == ModeTeam {
		return TeamSize
	}
	return 1
}

func (r *Registration) TeamNames() []string {
	var names []string
	for _, n := range []string{r.TeamPlayer1, r.TeamPlayer2, r.TeamPlayer3} {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

type RegistrationPayment struct {
	TournamentID   string `gorm:"index"`
	RegistrationID string `gorm:"primaryKey"`
	Slot           int    `gorm:"primaryKey"`
	Paid           bool
	PaidAt         *timeutil.UTCTime
}

type Player struct {
	ID             string `gorm:"primaryKey"`
	TournamentID   string `gorm:"index"`
	RegistrationID string `gorm:"index"`
	FullName       string
	Strength       int
	SeedTeamIndex  *int
	SeedSlot       *int
}

type Team struct {
	ID             string  `gorm:"primaryKey"`
	TournamentID   string  `gorm:"index"`
	RegistrationID *string `gorm:"index"`
	Ordinal        int
	Name           string
	Points         int
}

type TeamMember struct {
	TeamID   string `gorm:"primaryKey"`
	Slot     int    `gorm:"primaryKey"`
	PlayerID string `gorm:"uniqueIndex"`
	Bucket   int
}

type Stage struct {
	ID           string `gorm:"primaryKey"`
	TournamentID string `gorm:"index"`
	Number       int
}

type Game struct {
	ID            string `gorm:"primaryKey"`
	TournamentID  string `gorm:"index"`
	StageID       string `gorm:"index"`
	Court         int
	TeamAID       string
	TeamBID       string
	WinnerTeamID  *string
	ScoreText     *string
	PointsAwarded *int
	IsFinal       bool
}

func (g *Game) HasTeam(teamID string) bool {
	return teamID == g.TeamAID || teamID == g.TeamBID
}

func (g *Game) OtherTeam(teamID string) string {
	if teamID == g.TeamAID {
		return g.TeamBID
	}
	return g.TeamAID
}

type TeamState struct {
	TournamentID string `gorm:"primaryKey"`
	TeamID       string `gorm:"primaryKey"`
	CurrentCourt int
}

type PointsOverride struct {
	TournamentID string `gorm:"primaryKey"`
	StageNumber  int    `gorm:"primaryKey"`
	PointsC1     int
	PointsC2     int
	PointsC3     int
	PointsC4     int
}

func (o *PointsOverride) PointsSchedule() PointsSchedule {
	return PointsSchedule{o.PointsC1, o.PointsC2, o.PointsC3, o.PointsC4}
}

func clampStrength(v int) int {
	return min(max(v, MinStrength), MaxStrength)
}

func validStrength(v int) bool {
	return MinStrength <= v && v <= MaxStrength
}

func validCourt(v int) bool {
	return 1 <= v && v <= NumCourts
}
