// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Map converts service/repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
//
//	NotFound        → codes.NotFound
//	Forbidden       → codes.PermissionDenied
//	Conflict        → codes.FailedPrecondition
//	InvalidArgument → codes.InvalidArgument
//	Persistence     → codes.Unavailable (caller may resubmit)
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindNotFound:
			return status.Error(codes.NotFound, e.Message)
		case KindForbidden:
			return status.Error(codes.PermissionDenied, e.Message)
		case KindConflict:
			return status.Error(codes.FailedPrecondition, e.Message)
		case KindInvalidArgument:
			return status.Error(codes.InvalidArgument, e.Message)
		case KindPersistence:
			return status.Error(codes.Unavailable, e.Error())
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return status.Error(codes.AlreadyExists, "record already exists")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, err.Error())
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in the transport layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// Unauthenticated creates a gRPC Unauthenticated error for calls without an identity.
func Unauthenticated(msg string) error {
	return status.Error(codes.Unauthenticated, msg)
}
