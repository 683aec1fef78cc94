package tourney

import (
	"errors"
	"fmt"
)

// Code classifies expected failures so that callers can react to the
// blocking condition instead of parsing messages.
type Code string

const (
	CodeValidation              Code = "VALIDATION"
	CodeNotFound                Code = "NOT_FOUND"
	CodeBadLifecycle            Code = "BAD_LIFECYCLE"
	CodeBadMode                 Code = "BAD_MODE"
	CodeSeedLimit               Code = "SEED_LIMIT"
	CodeDuplicateSeed           Code = "DUPLICATE_SEED"
	CodeTeamsAlreadyExist       Code = "TEAMS_ALREADY_EXIST"
	CodeBucketCollision         Code = "BUCKET_COLLISION"
	CodePaymentIncomplete       Code = "PAYMENT_INCOMPLETE"
	CodePlayerCount             Code = "PLAYER_COUNT"
	CodeTeamCount               Code = "TEAM_COUNT"
	CodePreviousStageIncomplete Code = "PREVIOUS_STAGE_INCOMPLETE"
	CodeCourtImbalance          Code = "COURT_IMBALANCE"
	CodeAlreadyScored           Code = "ALREADY_SCORED"
	CodeInvalidWinner           Code = "INVALID_WINNER"
	CodeNoStages                Code = "NO_STAGES"
	CodeStageIncomplete         Code = "STAGE_INCOMPLETE"
	CodeOverridesLocked         Code = "OVERRIDES_LOCKED_AFTER_START"
	CodeDuplicateStageNumber    Code = "DUPLICATE_STAGE_NUMBER"
)

// IsAnomaly reports whether the code indicates corrupted state left behind
// by an earlier bug rather than a recoverable precondition failure.
func (c Code) IsAnomaly() bool {
	return c == CodeBucketCollision || c == CodeCourtImbalance
}

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Code, e.Message)
}

var _ error = (*Error)(nil)

func Errorf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func MatchesError(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func ErrorCode(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
