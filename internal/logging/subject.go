package logging

import "strings"

// FormatSubject builds the subject/session/stage prefix used in console output.
func FormatSubject(subject, sessionID, stage string) string {
	subject = strings.TrimSpace(subject)
	sessionID = strings.TrimSpace(sessionID)
	stage = strings.TrimSpace(stage)
	parts := make([]string, 0, 3)
	switch {
	case subject != "" && sessionID != "":
		parts = append(parts, "sub-"+subject+"/ses-"+sessionID)
	case subject != "":
		parts = append(parts, "sub-"+subject)
	case sessionID != "":
		parts = append(parts, "ses-"+sessionID)
	}
	if stage != "" {
		parts = append(parts, "("+stage+")")
	}
	return strings.Join(parts, " ")
}
