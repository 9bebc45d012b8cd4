package logging

import "strings"

// FormatSubject builds the run/stage/shot subject string used in console output.
func FormatSubject(runID, stage, shotID string) string {
	runID = strings.TrimSpace(runID)
	stage = strings.TrimSpace(stage)
	shotID = strings.TrimSpace(shotID)
	parts := make([]string, 0, 3)
	if runID != "" {
		parts = append(parts, runID)
	}
	if stage != "" {
		parts = append(parts, stage)
	}
	if shotID != "" {
		parts = append(parts, "shot "+shotID)
	}
	return strings.Join(parts, " · ")
}
