// Package shared holds helpers every v1 handler uses: caller lookup, input
// parsing and the mapping of ledger errors to HTTP responses.
package shared

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/project-ledger/internal/auth"
	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/logging"
)

// Cursor is the pagination cursor shared by list endpoints.
type Cursor struct {
	Position int `json:"position" minimum:"0" doc:"Numeric offset position for the next page"`
	Limit    int `json:"limit" minimum:"1" maximum:"200" doc:"Page size used for this cursor"`
}

// Principal returns the authenticated caller.
func Principal(ctx context.Context) (authz.Principal, error) {
	p, ok := auth.PrincipalFrom(ctx)
	if !ok {
		return authz.Principal{}, huma.NewError(http.StatusUnauthorized, "not authenticated")
	}
	return p, nil
}

// StatusFor returns the HTTP status of err.
func StatusFor(err error) int {
	switch domainerr.KindOf(err) {
	case domainerr.KindValidation:
		return http.StatusBadRequest
	case domainerr.KindNotFound:
		return http.StatusNotFound
	case domainerr.KindPermissionDenied:
		return http.StatusForbidden
	case domainerr.KindInvalidStateTransition:
		return http.StatusConflict
	case domainerr.KindInsufficientBalance:
		return http.StatusUnprocessableEntity
	case domainerr.KindUpstream:
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// Error converts a service error into a huma error. Domain errors keep their
// message; anything else is reported with msg only.
func Error(err error, msg string) error {
	status := StatusFor(err)
	var de *domainerr.Error
	if errors.As(err, &de) && status < http.StatusInternalServerError {
		detail := &huma.ErrorDetail{Message: de.Message, Location: de.Field, Value: string(de.Kind)}
		return huma.NewError(status, msg, detail)
	}
	return huma.NewError(status, msg, err)
}

// Timed starts a timing entry on the request's LogData and returns its stop
// function. It is safe to call without LogData.
func Timed(ctx context.Context, name string) func() {
	logData := logging.GetLogData(ctx)
	if logData == nil {
		return func() {}
	}
	return logData.AddTiming(name)
}

// AddData records a key on the request's LogData when there is one.
func AddData(ctx context.Context, key string, value interface{}) {
	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData(key, value)
	}
}

func ParseUUID(field, s string) (uuid.UUID, error) {
	id, err := uuid.FromString(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, huma.NewError(http.StatusBadRequest, "invalid "+field, err)
	}
	return id, nil
}

// ParseOptionalUUID returns nil for an empty string.
func ParseOptionalUUID(field, s string) (*uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := ParseUUID(field, s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func ParseUUIDs(field string, values []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := ParseUUID(field, v)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func ParseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, huma.NewError(http.StatusBadRequest, "invalid "+field, err)
	}
	return d, nil
}

// ParseOptionalDecimal returns nil for an empty string.
func ParseOptionalDecimal(field, s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := ParseDecimal(field, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseOptionalTime accepts RFC3339 timestamps and plain 2006-01-02 dates.
// It returns nil for an empty string.
func ParseOptionalTime(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		var dateErr error
		t, dateErr = time.Parse(time.DateOnly, s)
		if dateErr != nil {
			return nil, huma.NewError(http.StatusBadRequest, "invalid "+field, err)
		}
	}
	t = t.UTC()
	return &t, nil
}

func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func FormatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatTime(*t)
}

func FormatOptionalUUID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func FormatOptionalDecimal(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
