package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fleetmon/hardware-monitor/internal/pkg/application/access"
	"github.com/fleetmon/hardware-monitor/internal/pkg/application/devicemanagement"
	"github.com/fleetmon/hardware-monitor/internal/pkg/application/directory"
	"github.com/fleetmon/hardware-monitor/internal/pkg/application/export"
	"github.com/fleetmon/hardware-monitor/internal/pkg/application/identity"
	"github.com/fleetmon/hardware-monitor/internal/pkg/application/monitoring"
	db "github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/logging"
	"github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/tracing"
	"github.com/fleetmon/hardware-monitor/internal/pkg/presentation/api/auth"
	"github.com/fleetmon/hardware-monitor/pkg/types"
)

var tracer = otel.Tracer("hardware-monitor/api")

// Services collects the application services the API fronts.
type Services struct {
	DeviceManagement devicemanagement.DeviceManagement
	Monitoring       monitoring.Monitoring
	Directory        directory.Directory
	Export           export.Export
	Identity         identity.Identity
}

func RegisterHandlers(ctx context.Context, router *chi.Mux, policies io.Reader, tokenAuth *jwtauth.JWTAuth, svcs Services) (*chi.Mux, error) {

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	log := logging.GetLoggerFromContext(ctx)

	authenticator, err := auth.NewAuthenticator(ctx, policies)
	if err != nil {
		return nil, fmt.Errorf("failed to create api authenticator: %w", err)
	}

	router.Route("/api/v0", func(r chi.Router) {
		r.Post("/auth/register", registerHandler(log, svcs.Identity))
		r.Post("/auth/login", loginHandler(log, svcs.Identity))

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(tokenAuth))
			r.Use(authenticator.CheckAccess())

			r.Route("/devices", func(r chi.Router) {
				r.Get("/", queryDevicesHandler(log, svcs.DeviceManagement))
				r.Get("/{deviceNo}", getDeviceDetailsHandler(log, svcs.DeviceManagement))
				r.Post("/", createDeviceHandler(log, svcs.DeviceManagement))
				r.Put("/{deviceNo}/notes", updateNotesHandler(log, svcs.DeviceManagement))
				r.Put("/{deviceNo}/unregister", unregisterDeviceHandler(log, svcs.DeviceManagement))
			})

			r.Get("/power-logs", queryPowerLogsHandler(log, svcs.Monitoring))
			r.Get("/alerts", queryAlertsHandler(log, svcs.Monitoring))

			r.Get("/accounts", queryAccountsHandler(log, svcs.Directory))
			r.Get("/companies", queryCompaniesHandler(log, svcs.Directory))

			r.Post("/export", exportHandler(log, svcs.Export))
		})
	})

	return router, nil
}

func queryDevicesHandler(log zerolog.Logger, svc devicemanagement.DeviceManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "query-devices")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := spanLogger(ctx, log, span)

		p, ok := auth.GetPrincipal(ctx)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		devices, err := svc.ListDevices(ctx, p, devicemanagement.Filters{
			DeviceNo:    r.URL.Query().Get("deviceNo"),
			CompanyName: r.URL.Query().Get("companyName"),
			Status:      r.URL.Query().Get("status"),
		})
		if err != nil {
			writeError(w, requestLogger, "unable to list devices", err)
			return
		}

		writeJSON(w, http.StatusOK, lo.Map(devices, func(d db.Device, _ int) DeviceSummary {
			return toDeviceSummary(d)
		}))
	}
}

func getDeviceDetailsHandler(log zerolog.Logger, svc devicemanagement.DeviceManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "get-device-details")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := spanLogger(ctx, log, span)

		p, ok := auth.GetPrincipal(ctx)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		deviceNo := chi.URLParam(r, "deviceNo")

		device, err := svc.GetDeviceDetails(ctx, p, deviceNo)
		if err != nil {
			writeError(w, requestLogger, "unable to fetch device details", err)
			return
		}

		writeJSON(w, http.StatusOK, toDeviceDetail(device))
	}
}

func createDeviceHandler(log zerolog.Logger, svc devicemanagement.DeviceManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-device")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := spanLogger(ctx, log, span)

		p, ok := auth.GetPrincipal(ctx)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req CreateDeviceRequest
		if err = decodeJSON(r, &req); err != nil {
			requestLogger.Error().Err(err).Msg("unable to decode body")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if req.DeviceNo == "" {
			http.Error(w, "a device number is required", http.StatusBadRequest)
			return
		}

		device, err := svc.CreateDevice(ctx, p, devicemanagement.NewDevice{
			DeviceNo:        req.DeviceNo,
			Category:        req.Category,
			ComputerName:    req.ComputerName,
			CompanyName:     req.CompanyName,
			OperatingSystem: req.OperatingSystem,
			User:            req.User,
			Initializer:     req.Initializer,
			Version:         req.Version,
			Notes:           req.Notes,
		})
		if err != nil {
			writeError(w, requestLogger, "unable to create device", err)
			return
		}

		writeJSON(w, http.StatusCreated, toDeviceSummary(device))
	}
}

func updateNotesHandler(log zerolog.Logger, svc devicemanagement.DeviceManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "update-notes")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := spanLogger(ctx, log, span)

		p, ok := auth.GetPrincipal(ctx)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req UpdateNotesRequest
		if err = decodeJSON(r, &req); err != nil {
			requestLogger.Error().Err(err).Msg("unable to decode body")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		err = svc.UpdateNotes(ctx, p, chi.URLParam(r, "deviceNo"), req.Notes)
		if err != nil {
			writeError(w, requestLogger, "unable to update notes", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func unregisterDeviceHandler(log zerolog.Logger, svc devicemanagement.DeviceManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "unregister-device")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := spanLogger(ctx, log, span)

		p, ok := auth.GetPrincipal(ctx)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		err = svc.UnregisterDevice(ctx, p, chi.URLParam(r, "deviceNo"))
		if err != nil {
			writeError(w, requestLogger, "unable to unregister device", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func queryPowerLogsHandler(log zerolog.Logger, svc monitoring.Monitoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "query-power-logs")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := spanLogger(ctx, log, span)

		p, ok := auth.GetPrincipal(ctx)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		events, err := svc.ListPowerEvents(ctx, p, monitoring.Filters{
			DeviceNo:    r.URL.Query().Get("deviceNo"),
			CompanyName: r.URL.Query().Get("companyName"),
		})
		if err != nil {
			writeError(w, requestLogger, "unable to list power logs", err)
			return
		}

		writeJSON(w, http.StatusOK, lo.Map(events, func(e db.PowerEvent, _ int) PowerLogListItem {
			return toPowerLogListItem(e)
		}))
	}
}

func queryAlertsHandler(log zerolog.Logger, svc monitoring.Monitoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "query-alerts")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := spanLogger(ctx, log, span)

		p, ok := auth.GetPrincipal(ctx)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		events, err := svc.ListAlertEvents(ctx, p, monitoring.Filters{
			DeviceNo:    r.URL.Query().Get("deviceNo"),
			CompanyName: r.URL.Query().Get("companyName"),
		})
		if err != nil {
			writeError(w, requestLogger, "unable to list alerts", err)
			return
		}

		writeJSON(w, http.StatusOK, lo.Map(events, func(e db.AlertEvent, _ int) AlertLogListItem {
			return toAlertLogListItem(e)
		}))
	}
}

func queryAccountsHandler(log zerolog.Logger, svc directory.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "query-accounts")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := spanLogger(ctx, log, span)

		p, ok := auth.GetPrincipal(ctx)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		accounts, err := svc.ListAccounts(ctx, p)
		if err != nil {
			writeError(w, requestLogger, "unable to list accounts", err)
			return
		}

		writeJSON(w, http.StatusOK, lo.Map(accounts, func(a db.Account, _ int) AccountListItem {
			return toAccountListItem(a)
		}))
	}
}

func queryCompaniesHandler(log zerolog.Logger, svc directory.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "query-companies")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := spanLogger(ctx, log, span)

		p, ok := auth.GetPrincipal(ctx)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		companies, err := svc.ListCompanies(ctx, p)
		if err != nil {
			writeError(w, requestLogger, "unable to list companies", err)
			return
		}

		writeJSON(w, http.StatusOK, lo.Map(companies, func(c directory.CompanyInfo, _ int) CompanyListItem {
			return toCompanyListItem(c)
		}))
	}
}

func exportHandler(log zerolog.Logger, svc export.Export) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "export-report")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := spanLogger(ctx, log, span)

		p, ok := auth.GetPrincipal(ctx)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req ExportRequest
		if err = decodeJSON(r, &req); err != nil {
			requestLogger.Error().Err(err).Msg("unable to decode body")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		dataType, ok := types.ParseReportType(req.DataType)
		if !ok {
			http.Error(w, fmt.Sprintf("unsupported report type %s", req.DataType), http.StatusBadRequest)
			return
		}

		report, err := svc.Generate(ctx, p, export.Request{
			DataType:    dataType,
			DeviceNo:    req.Filters.DeviceNo,
			CompanyName: req.Filters.CompanyName,
			Status:      req.Filters.Status,
		})
		if err != nil {
			writeError(w, requestLogger, "unable to generate report", err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename))
		w.WriteHeader(http.StatusOK)
		w.Write(report.Data)
	}
}

func registerHandler(log zerolog.Logger, svc identity.Identity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "register-account")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := spanLogger(ctx, log, span)

		var req RegisterRequest
		if err = decodeJSON(r, &req); err != nil {
			requestLogger.Error().Err(err).Msg("unable to decode body")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		account, err := svc.Register(ctx, req.Account, req.Password, types.Role(req.Role), req.CompanyName)
		if err != nil {
			writeError(w, requestLogger, "unable to register account", err)
			return
		}

		writeJSON(w, http.StatusCreated, toAccountListItem(account))
	}
}

func loginHandler(log zerolog.Logger, svc identity.Identity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "login")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := spanLogger(ctx, log, span)

		var req LoginRequest
		if err = decodeJSON(r, &req); err != nil {
			requestLogger.Error().Err(err).Msg("unable to decode body")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		token, account, err := svc.Login(ctx, req.Account, req.Password)
		if err != nil {
			writeError(w, requestLogger, "login failed", err)
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Token:       token,
			Account:     account.Account,
			Role:        account.Role,
			CompanyName: account.CompanyName,
		})
	}
}

// spanLogger attaches the trace id to the logger and stores it in the
// context for downstream use.
func spanLogger(ctx context.Context, log zerolog.Logger, span trace.Span) (context.Context, zerolog.Logger) {
	if traceID := span.SpanContext().TraceID(); traceID.IsValid() {
		log = log.With().Str("traceID", traceID.String()).Logger()
	}

	return logging.NewContextWithLogger(ctx, log), log
}

func decodeJSON(r *http.Request, into any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}

	return json.Unmarshal(body, into)
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeError maps application errors onto the API's status codes.
// Unexpected failures log the cause but answer with a generic message.
func writeError(w http.ResponseWriter, log zerolog.Logger, msg string, err error) {
	switch {
	case errors.Is(err, access.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, db.ErrDeviceNotFound), errors.Is(err, db.ErrAccountNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, db.ErrDeviceAlreadyExists), errors.Is(err, db.ErrAccountAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, identity.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, identity.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	default:
		log.Error().Err(err).Msg(msg)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
