package database

// Attempt is one persisted release attempt. Credentials are never part of
// the record.
type Attempt struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Tag         string `gorm:"not null;index" json:"tag"`
	Repository  string `json:"repository,omitempty"`
	CommitSHA   string `json:"commit_sha,omitempty"`
	PackageName string `gorm:"index" json:"package,omitempty"`
	Version     string `json:"version,omitempty"`
	Published   bool   `gorm:"default:false" json:"published"`
	Status      string `gorm:"not null;index" json:"status"`
	Stage       string `json:"stage"`
	Kind        string `json:"kind,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Note        string `json:"note,omitempty"`
	StartedAt   int64  `gorm:"not null;index" json:"started_at"`
	FinishedAt  int64  `json:"finished_at,omitempty"`
}

type AttemptStage struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	AttemptID  string `gorm:"not null;index"`
	Position   int    `gorm:"not null"`
	Stage      string `gorm:"not null"`
	Outcome    string `gorm:"not null"`
	DurationMs int64
	Message    string
}
