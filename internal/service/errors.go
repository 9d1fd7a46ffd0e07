package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/middleware"
)

var (
	errInternal        = errors.New("internal error")
	errUnauthenticated = errors.New("authentication required")
)

// kindCodes maps domain error kinds to connect codes.
var kindCodes = map[errs.Kind]connect.Code{
	errs.KindUnauthorized:               connect.CodePermissionDenied,
	errs.KindNotFound:                   connect.CodeNotFound,
	errs.KindValidation:                 connect.CodeInvalidArgument,
	errs.KindAlreadyInState:             connect.CodeAlreadyExists,
	errs.KindInsufficientFunds:          connect.CodeFailedPrecondition,
	errs.KindExternalVerificationFailed: connect.CodeFailedPrecondition,
	errs.KindUnsupportedMethod:          connect.CodeUnimplemented,
	errs.KindConflict:                   connect.CodeAborted,
}

// toConnectError converts a domain error to a connect error carrying the
// machine reason in the Error-Reason metadata. Internal errors are logged here
// and returned without detail.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	switch {
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}

	code, ok := kindCodes[errs.KindOf(err)]
	if !ok {
		slog.Error("Internal error", "error", err)
		ce := connect.NewError(connect.CodeInternal, errInternal)
		ce.Meta().Set(middleware.ReasonHeader, errs.ReasonOf(err))
		return ce
	}

	ce := connect.NewError(code, err)
	ce.Meta().Set(middleware.ReasonHeader, errs.ReasonOf(err))
	return ce
}

// requireUser returns the authenticated user ID.
func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}
	return userID, nil
}
