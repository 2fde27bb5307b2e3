package application

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/app"
	"github.com/oggyb/hire-match/internal/db"
	svcErr "github.com/oggyb/hire-match/internal/errors"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/metrics"
	"github.com/oggyb/hire-match/internal/repository"
)

// Patch is a partial update of an application. Nil Text leaves the text
// untouched; Links are appended, never replaced.
type Patch struct {
	Text  *string
	Links []string
}

func (p Patch) empty() bool {
	return p.Text == nil && len(p.Links) == 0
}

// Service drives applications through Pending → Submitted → Accepted/Dismissed.
type Service struct {
	appCtx  *app.AppContext
	appRepo *repository.ApplicationRepository
	jobRepo *repository.JobRepository
}

// NewApplicationService creates a new Application service with dependencies from AppContext.
func NewApplicationService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		appRepo: repository.NewApplicationRepository(appCtx.DB),
		jobRepo: repository.NewJobRepository(appCtx.DB),
	}
}

// CreatePending makes sure userID holds an application for jobID.
//
// Behavior:
//   - Runs on tx; used by match provisioning for job-type matches.
//   - Returns the existing row untouched when one is already there, so a
//     candidate who applied before the match keeps their progress.
//
// Example:
//
//	svc.CreatePending(ctx, tx, candidateID, jobID)
func (s *Service) CreatePending(ctx context.Context, tx *gorm.DB, userID, jobID uint64) (*db.Application, error) {
	apps := s.appRepo.WithTx(tx)

	existing, err := apps.FindByUserJob(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	a := &db.Application{UserID: userID, JobID: jobID, Status: db.StatusPending}
	if err := apps.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// PostApplication creates a Pending application of the caller for jobID.
//
// Behavior:
//   - Job missing → NotFound.
//   - A second application for the same job → Conflict.
func (s *Service) PostApplication(ctx context.Context, caller identity.Identity, jobID uint64) (*db.Application, error) {
	s.appCtx.Logger.Debug("PostApplication called", "user", caller.UserID, "job", jobID)

	if _, err := s.loadJob(ctx, jobID); err != nil {
		return nil, err
	}

	a := &db.Application{UserID: caller.UserID, JobID: jobID, Status: db.StatusPending}
	if err := s.appRepo.Create(ctx, a); errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, svcErr.Conflict("an application for this job already exists")
	} else if err != nil {
		return nil, svcErr.Persistence("failed to create application", err)
	}
	return a, nil
}

// PutApplication applies a partial update to one of the caller's applications.
//
// Behavior:
//   - Empty patch → InvalidArgument.
//   - Application missing or owned by someone else → NotFound.
//   - Links are appended while Pending or Submitted; otherwise Conflict and nothing is written.
//   - Text may change only while Pending. A rejected text change returns Conflict, but
//     links carried by the same patch are still committed.
//
// Example:
//
//	text := "Hello"
//	svc.PutApplication(ctx, caller, 7, Patch{Text: &text, Links: []string{"https://example.com/cv"}})
func (s *Service) PutApplication(ctx context.Context, caller identity.Identity, appID uint64, patch Patch) (*db.Application, error) {
	s.appCtx.Logger.Debug("PutApplication called", "application", appID, "user", caller.UserID)

	if patch.empty() {
		return nil, svcErr.Invalid("nothing to update")
	}
	for _, l := range patch.Links {
		if strings.TrimSpace(l) == "" {
			return nil, svcErr.Invalid("links must not be empty")
		}
	}

	var textErr error
	err := s.appCtx.InTx(ctx, func(tx *gorm.DB) error {
		apps := s.appRepo.WithTx(tx)

		current, err := apps.GetOwned(ctx, appID, caller.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.NotFound("Application", appID)
		}
		if err != nil {
			return svcErr.Persistence("failed to load application", err)
		}

		if len(patch.Links) > 0 {
			if !current.Status.AcceptsLinks() {
				return svcErr.Conflict("links can only be added while Pending or Submitted")
			}
			if err := apps.AddLinks(ctx, appID, patch.Links); err != nil {
				return svcErr.Persistence("failed to add links", err)
			}
		}

		if patch.Text == nil {
			return nil
		}
		if !current.Status.TextEditable() {
			textErr = svcErr.Conflict("application text can only be changed while Pending")
			return nil
		}
		rows, err := apps.Update(ctx, s.ownedIn(appID, caller.UserID, db.StatusPending),
			map[string]any{"application_text": *patch.Text})
		if err != nil {
			return svcErr.Persistence("failed to update application", err)
		}
		if rows == 0 {
			textErr = svcErr.Conflict("application changed state concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if textErr != nil {
		return nil, textErr
	}
	return s.reload(ctx, appID)
}

// SubmitApplication moves one of the caller's applications from Pending to Submitted.
func (s *Service) SubmitApplication(ctx context.Context, caller identity.Identity, appID uint64) (*db.Application, error) {
	current, err := s.appRepo.GetOwned(ctx, appID, caller.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Application", appID)
	}
	if err != nil {
		return nil, svcErr.Persistence("failed to load application", err)
	}
	return s.transition(ctx, current, s.ownedIn(appID, caller.UserID, current.Status), db.StatusSubmitted)
}

// AcceptApplication is the employer's positive verdict on a Submitted application.
func (s *Service) AcceptApplication(ctx context.Context, caller identity.Identity, appID uint64) (*db.Application, error) {
	return s.decide(ctx, caller, appID, db.StatusAccepted)
}

// DismissApplication is the employer's negative verdict on a Submitted application.
func (s *Service) DismissApplication(ctx context.Context, caller identity.Identity, appID uint64) (*db.Application, error) {
	return s.decide(ctx, caller, appID, db.StatusDismissed)
}

// DeleteApplication withdraws one of the caller's Pending applications and its links.
func (s *Service) DeleteApplication(ctx context.Context, caller identity.Identity, appID uint64) error {
	s.appCtx.Logger.Debug("DeleteApplication called", "application", appID, "user", caller.UserID)

	return s.appCtx.InTx(ctx, func(tx *gorm.DB) error {
		apps := s.appRepo.WithTx(tx)

		current, err := apps.GetOwned(ctx, appID, caller.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.NotFound("Application", appID)
		}
		if err != nil {
			return svcErr.Persistence("failed to load application", err)
		}
		if current.Status != db.StatusPending {
			return svcErr.Conflict("only Pending applications can be deleted")
		}

		if err := apps.DeleteLinks(ctx, appID); err != nil {
			return svcErr.Persistence("failed to delete application links", err)
		}
		rows, err := apps.Delete(ctx, s.ownedIn(appID, caller.UserID, db.StatusPending))
		if err != nil {
			return svcErr.Persistence("failed to delete application", err)
		}
		if rows == 0 {
			return svcErr.Conflict("application changed state concurrently")
		}
		return nil
	})
}

// GetApplication returns one application with its links. Visible to its owner,
// the employer owning the job and admins; anyone else gets NotFound.
func (s *Service) GetApplication(ctx context.Context, caller identity.Identity, appID uint64) (*db.Application, error) {
	a, err := s.appRepo.Get(ctx, appID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Application", appID)
	}
	if err != nil {
		return nil, svcErr.Persistence("failed to load application", err)
	}
	if a.UserID == caller.UserID || caller.IsAdmin() {
		return a, nil
	}
	if job, err := s.jobRepo.Get(ctx, a.JobID); err == nil && job.UserID == caller.UserID {
		return a, nil
	}
	return nil, svcErr.NotFound("Application", appID)
}

// GetSent lists the caller's Submitted applications.
func (s *Service) GetSent(ctx context.Context, caller identity.Identity) ([]db.Application, error) {
	return s.listByUser(ctx, caller.UserID, db.StatusSubmitted)
}

// GetSaved lists the caller's Pending applications.
func (s *Service) GetSaved(ctx context.Context, caller identity.Identity) ([]db.Application, error) {
	return s.listByUser(ctx, caller.UserID, db.StatusPending)
}

// GetByJob lists the Submitted applications of a job. Only the employer
// owning the job (or an admin) may see them.
func (s *Service) GetByJob(ctx context.Context, caller identity.Identity, jobID uint64) ([]db.Application, error) {
	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !caller.CanActFor(job.UserID) {
		return nil, svcErr.Forbidden("only the job owner can list its applications")
	}
	apps, err := s.appRepo.ListByJob(ctx, jobID, db.StatusSubmitted)
	if err != nil {
		return nil, svcErr.Persistence("failed to list applications", err)
	}
	return apps, nil
}

func (s *Service) decide(ctx context.Context, caller identity.Identity, appID uint64, to db.ApplicationStatus) (*db.Application, error) {
	s.appCtx.Logger.Debug("decide called", "application", appID, "to", to, "user", caller.UserID)

	current, err := s.appRepo.Get(ctx, appID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Application", appID)
	}
	if err != nil {
		return nil, svcErr.Persistence("failed to load application", err)
	}

	job, err := s.loadJob(ctx, current.JobID)
	if err != nil {
		return nil, err
	}
	if !caller.CanActFor(job.UserID) {
		return nil, svcErr.Forbidden("only the job owner can decide on its applications")
	}

	return s.transition(ctx, current, repository.ApplicationFilter{
		ID:       appID,
		Statuses: []db.ApplicationStatus{current.Status},
	}, to)
}

// transition moves current to next if the lifecycle allows it. The status
// read earlier is part of the update's WHERE clause, so a concurrent change
// makes the update miss and surfaces as Conflict.
func (s *Service) transition(
	ctx context.Context,
	current *db.Application,
	scope repository.ApplicationFilter,
	next db.ApplicationStatus,
) (*db.Application, error) {
	if !current.Status.CanTransitionTo(next) {
		return nil, svcErr.Conflict("application is " + string(current.Status) + ", cannot move to " + string(next))
	}

	rows, err := s.appRepo.Update(ctx, scope, map[string]any{"status": next})
	if err != nil {
		return nil, svcErr.Persistence("failed to update application status", err)
	}
	if rows == 0 {
		return nil, svcErr.Conflict("application changed state concurrently")
	}

	metrics.ApplicationTransitions.WithLabelValues(string(next)).Inc()
	return s.reload(ctx, current.ID)
}

func (s *Service) ownedIn(appID, userID uint64, statuses ...db.ApplicationStatus) repository.ApplicationFilter {
	return repository.ApplicationFilter{ID: appID, UserID: &userID, Statuses: statuses}
}

func (s *Service) listByUser(ctx context.Context, userID uint64, status db.ApplicationStatus) ([]db.Application, error) {
	apps, err := s.appRepo.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, svcErr.Persistence("failed to list applications", err)
	}
	return apps, nil
}

func (s *Service) loadJob(ctx context.Context, jobID uint64) (*db.JobAd, error) {
	job, err := s.jobRepo.Get(ctx, jobID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Job", jobID)
	}
	if err != nil {
		return nil, svcErr.Persistence("failed to load job", err)
	}
	return job, nil
}

func (s *Service) reload(ctx context.Context, appID uint64) (*db.Application, error) {
	a, err := s.appRepo.Get(ctx, appID)
	if err != nil {
		return nil, svcErr.Persistence("failed to read application back", err)
	}
	return a, nil
}
