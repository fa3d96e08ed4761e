package job

import (
	"context"
	"log"
	"time"

	"github.com/example/dts-backend/internal/model"
	"github.com/example/dts-backend/internal/store"
)

// EventName is the single event broadcast for every job mutation.
const EventName = "jobs-changed"

// Event is the broadcast payload: the mutation kind plus the full,
// freshly re-read job record.
type Event struct {
	Type string    `json:"type"`
	Job  model.Job `json:"job"`
}

// Notifier receives one Emit per job mutation. The hub implements it
// in production; tests substitute a recording or no-op notifier.
type Notifier interface {
	Emit(event string, payload any)
}

// Service owns the job lifecycle: intake, technician updates and the
// report-completion step. Every successful mutation re-reads the row
// and pushes it through the notifier.
type Service struct {
	store    *store.SQLite
	notifier Notifier
}

func NewService(st *store.SQLite, n Notifier) *Service {
	return &Service{store: st, notifier: n}
}

func (s *Service) Create(ctx context.Context, in model.Intake) (int64, error) {
	id, err := s.store.CreateJob(ctx, in)
	if err != nil {
		return 0, err
	}
	s.emit(ctx, "created", id)
	return id, nil
}

func (s *Service) List(ctx context.Context) ([]model.Job, error) {
	return s.store.ListJobs(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (model.Job, error) {
	return s.store.GetJob(ctx, id)
}

// UpdateTechnicianFields applies an allow-listed patch. A patch with
// zero recognized keys fails with ErrNoFields; a job_status value
// outside the closed status set fails with ErrInvalidStatus. Neither
// writes anything.
func (s *Service) UpdateTechnicianFields(ctx context.Context, id int64, patch map[string]string) error {
	if v, ok := patch["job_status"]; ok && !model.Status(v).Valid() {
		return model.ErrInvalidStatus
	}
	if err := s.store.UpdateFields(ctx, id, patch); err != nil {
		return err
	}
	s.emit(ctx, "updated", id)
	return nil
}

// CompleteWithReport persists the report sections, stamps the dispatch
// date and forces the job to COMPLETED, then returns the updated row.
// This is the only path that mutates report fields.
func (s *Service) CompleteWithReport(ctx context.Context, id int64, sec model.Sections) (model.Job, error) {
	dispatch := time.Now().Format("2006-01-02")
	if err := s.store.SaveReport(ctx, id, sec, dispatch); err != nil {
		return model.Job{}, err
	}
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return model.Job{}, err
	}
	s.notifier.Emit(EventName, Event{Type: "updated", Job: job})
	return job, nil
}

// emit re-reads the row so the event carries the persisted state at
// emission time. A failed re-read skips the event but does not fail
// the mutation.
func (s *Service) emit(ctx context.Context, typ string, id int64) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		log.Printf("skip %s event for job %d: %v", typ, id, err)
		return
	}
	s.notifier.Emit(EventName, Event{Type: typ, Job: job})
}
