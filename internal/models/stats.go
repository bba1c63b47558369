package models

// Achievement is a streak milestone and whether it has been reached
type Achievement struct {
	ID     string `json:"id"`
	Days   int    `json:"days"`
	Earned bool   `json:"earned"`
}

// Stats is the profile statistics record derived from habits, logs and reactions
type Stats struct {
	CheckinConsistency  int           `json:"checkinConsistency"` // 0..100
	MaxStreak           int           `json:"maxStreak"`
	TotalConsistentDays int           `json:"totalConsistentDays"`
	TotalCheers         int           `json:"totalCheers"`
	TotalPushes         int           `json:"totalPushes"`
	Achievements        []Achievement `json:"achievements"`
}
