package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/user/tagrelease/pkg/release"
)

// Store keeps the history of release attempts.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

type ListFilter struct {
	Package string
	Status  string
	Limit   int
}

func (s *Store) SaveResult(ctx context.Context, r *release.Result) error {
	return s.SaveResults(ctx, []*release.Result{r})
}

func (s *Store) SaveResults(ctx context.Context, results []*release.Result) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range results {
			if r == nil || r.Attempt == nil {
				continue
			}
			att := attemptFromResult(r)
			if err := tx.Create(&att).Error; err != nil {
				return fmt.Errorf("saving attempt %s: %w", att.ID, err)
			}

			for i, st := range r.Attempt.Stages {
				stage := AttemptStage{
					AttemptID:  att.ID,
					Position:   i,
					Stage:      string(st.Stage),
					Outcome:    string(st.Outcome),
					DurationMs: st.DurationMs,
					Message:    st.Message,
				}
				if err := tx.Create(&stage).Error; err != nil {
					return fmt.Errorf("saving stage for attempt %s: %w", att.ID, err)
				}
			}
		}
		return nil
	})
}

func (s *Store) ListAttempts(ctx context.Context, f ListFilter) ([]Attempt, error) {
	var attempts []Attempt
	query := s.db.WithContext(ctx).Order("started_at DESC").Order("id")
	if f.Package != "" {
		query = query.Where("package_name = ?", f.Package)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if err := query.Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	return attempts, nil
}

func (s *Store) GetStages(ctx context.Context, attemptID string) ([]AttemptStage, error) {
	var stages []AttemptStage
	if err := s.db.WithContext(ctx).Where("attempt_id = ?", attemptID).Order("position").Find(&stages).Error; err != nil {
		return nil, fmt.Errorf("getting stages: %w", err)
	}
	return stages, nil
}

func attemptFromResult(r *release.Result) Attempt {
	a := r.Attempt
	att := Attempt{
		ID:          a.ID,
		Tag:         a.Event.TagName(),
		Repository:  a.Event.Repository,
		CommitSHA:   a.Event.CommitSHA,
		PackageName: a.PackageName(),
		Version:     r.Version,
		Published:   r.Status == release.StatusSucceeded && r.Stage == release.StatePublishing && r.Kind != release.KindAlreadyPublished,
		Status:      string(r.Status),
		Stage:       string(r.Stage),
		Kind:        string(r.Kind),
		Reason:      r.Reason,
		Note:        r.Note,
		StartedAt:   a.StartedAt.Unix(),
	}
	if !a.FinishedAt.IsZero() {
		att.FinishedAt = a.FinishedAt.Unix()
	}
	return att
}
