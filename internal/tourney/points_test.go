package tourney

import "testing"

func TestResolveSchedule(t *testing.T) {
	tournament := &Tournament{PointsC1: 5, PointsC2: 4, PointsC3: 3, PointsC4: 2}
	if got := ResolveSchedule(tournament, nil); got != (PointsSchedule{5, 4, 3, 2}) {
		t.Errorf("default schedule: got = %v", got)
	}
	override := &PointsOverride{PointsC1: 1, PointsC2: 1, PointsC3: 1, PointsC4: 1}
	if got := ResolveSchedule(tournament, override); got != (PointsSchedule{1, 1, 1, 1}) {
		t.Errorf("override schedule: got = %v", got)
	}
	if got := ResolveSchedule(tournament, nil).Court(3); got != 3 {
		t.Errorf("court 3 points: expected = 3, got = %v", got)
	}
}

func TestValidateOverrides(t *testing.T) {
	ok := []PointsOverride{
		{StageNumber: 1, PointsC1: 1, PointsC2: 1, PointsC3: 1, PointsC4: 1},
		{StageNumber: 3, PointsC1: 10, PointsC2: 8, PointsC3: 6, PointsC4: 4},
	}
	if err := ValidateOverrides(ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateOverrides([]PointsOverride{{StageNumber: 0}}); !MatchesError(err, CodeValidation) {
		t.Errorf("zero stage: expected = %v, got = %v", CodeValidation, err)
	}
	dup := []PointsOverride{{StageNumber: 2}, {StageNumber: 2}}
	if err := ValidateOverrides(dup); !MatchesError(err, CodeDuplicateStageNumber) {
		t.Errorf("duplicate stage: expected = %v, got = %v", CodeDuplicateStageNumber, err)
	}
	neg := []PointsOverride{{StageNumber: 1, PointsC1: -1}}
	if err := ValidateOverrides(neg); !MatchesError(err, CodeValidation) {
		t.Errorf("negative points: expected = %v, got = %v", CodeValidation, err)
	}
}
