package report

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/app"
	"github.com/oggyb/hire-match/internal/db"
	svcErr "github.com/oggyb/hire-match/internal/errors"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/repository"
)

// Input is a report as filed by a user.
type Input struct {
	Type     db.ReportTarget
	TargetID uint64
	Reason   string
}

// Service files and moderates reports on users, jobs and messages.
type Service struct {
	appCtx     *app.AppContext
	reportRepo *repository.ReportRepository
}

func NewReportService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		reportRepo: repository.NewReportRepository(appCtx.DB),
	}
}

// PostReport files a report by the caller. The same caller reporting the same
// item twice gets Conflict.
func (s *Service) PostReport(ctx context.Context, caller identity.Identity, in Input) (*db.Report, error) {
	if _, err := db.ParseReportTarget(string(in.Type)); err != nil {
		return nil, svcErr.Invalid(err.Error())
	}
	if in.Type == db.ReportUser && in.TargetID == caller.UserID {
		return nil, svcErr.Invalid("cannot report yourself")
	}

	rep := &db.Report{
		UserID:       caller.UserID,
		ReportedType: in.Type,
		ReportedID:   in.TargetID,
		Reason:       strings.TrimSpace(in.Reason),
	}
	if err := s.reportRepo.Create(ctx, rep); errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, svcErr.Conflict("you already reported this " + string(in.Type))
	} else if err != nil {
		return nil, svcErr.Persistence("failed to file report", err)
	}
	return rep, nil
}

// ResolveReport marks a report handled. Admin only.
func (s *Service) ResolveReport(ctx context.Context, caller identity.Identity, reportID uint64) (*db.Report, error) {
	if !caller.IsAdmin() {
		return nil, svcErr.Forbidden("only admins can resolve reports")
	}
	rows, err := s.reportRepo.Resolve(ctx, reportID)
	if err != nil {
		return nil, svcErr.Persistence("failed to resolve report", err)
	}
	// MySQL reports 0 rows for a report that was already resolved, so a miss
	// is only NotFound when the row is really gone.
	rep, err := s.reportRepo.Get(ctx, reportID)
	if rows == 0 && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Report", reportID)
	}
	if err != nil {
		return nil, svcErr.Persistence("failed to read report back", err)
	}
	return rep, nil
}

// DeleteReport removes a report. Admin only.
func (s *Service) DeleteReport(ctx context.Context, caller identity.Identity, reportID uint64) error {
	if !caller.IsAdmin() {
		return svcErr.Forbidden("only admins can delete reports")
	}
	rows, err := s.reportRepo.Delete(ctx, reportID)
	if err != nil {
		return svcErr.Persistence("failed to delete report", err)
	}
	if rows == 0 {
		return svcErr.NotFound("Report", reportID)
	}
	return nil
}
