// Package service assembles the domain services and their gRPC registrars.
package service

import (
	"github.com/oggyb/hire-match/internal/app"
	"github.com/oggyb/hire-match/internal/server"
	"github.com/oggyb/hire-match/internal/service/account"
	"github.com/oggyb/hire-match/internal/service/application"
	"github.com/oggyb/hire-match/internal/service/chat"
	"github.com/oggyb/hire-match/internal/service/matching"
	"github.com/oggyb/hire-match/internal/service/notification"
	"github.com/oggyb/hire-match/internal/service/report"
)

// Set holds one instance of every service, sharing a single AppContext.
type Set struct {
	Matching     *matching.Service
	Chat         *chat.Service
	Notification *notification.Service
	Application  *application.Service
	Account      *account.Service
	Report       *report.Service
}

// New wires every service on top of appCtx.
func New(appCtx *app.AppContext) *Set {
	s := &Set{
		Chat:         chat.NewChatService(appCtx),
		Notification: notification.NewNotificationService(appCtx),
		Application:  application.NewApplicationService(appCtx),
		Account:      account.NewAccountService(appCtx),
		Report:       report.NewReportService(appCtx),
	}
	s.Matching = matching.NewMatchingService(appCtx, s.Chat, s.Application, s.Notification)
	return s
}

// Registrars returns the gRPC registrars of every service in the set.
func (s *Set) Registrars() []server.Registrar {
	return []server.Registrar{
		matching.NewRegistrar(s.Matching),
		chat.NewRegistrar(s.Chat),
		notification.NewRegistrar(s.Notification),
		application.NewRegistrar(s.Application),
		account.NewRegistrar(s.Account),
		report.NewRegistrar(s.Report),
	}
}
