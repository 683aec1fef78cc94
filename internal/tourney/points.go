package tourney

// ResolveSchedule picks the point schedule for one scoring event: the
// stage's override row if present, otherwise the tournament defaults.
// Resolution happens at scoring time, so an override edited after the stage
// was created but before its games are scored still takes effect.
func ResolveSchedule(t *Tournament, override *PointsOverride) PointsSchedule {
	if override != nil {
		return override.PointsSchedule()
	}
	return t.PointsSchedule()
}

// ValidateOverrides checks one full override submission.
func ValidateOverrides(rows []PointsOverride) error {
	seen := make(map[int]struct{}, len(rows))
	for _, row := range rows {
		if row.StageNumber < 1 {
			return Errorf(CodeValidation, "stage number %v out of range", row.StageNumber)
		}
		if _, ok := seen[row.StageNumber]; ok {
			return Errorf(CodeDuplicateStageNumber, "stage %v listed twice", row.StageNumber)
		}
		seen[row.StageNumber] = struct{}{}
		for _, p := range row.PointsSchedule() {
			if p < 0 {
				return Errorf(CodeValidation, "negative points for stage %v", row.StageNumber)
			}
		}
	}
	return nil
}
