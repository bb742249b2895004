package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/open-policy-agent/opa/rego"
	"go.opentelemetry.io/otel"

	"github.com/fleetmon/hardware-monitor/internal/pkg/application/access"
	"github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/logging"
	"github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/tracing"
	"github.com/fleetmon/hardware-monitor/pkg/types"
)

type principalContextKey struct{ name string }

var principalCtxKey = &principalContextKey{"principal"}

var tracer = otel.Tracer("hardware-monitor/authz")

type Authenticator interface {
	CheckAccess() func(http.Handler) http.Handler
}

type impl struct {
	query rego.PreparedEvalQuery
}

// NewAuthenticator prepares the admission policy. The policy decides,
// from the verified token claims, whether the caller is admitted and
// which principal the request acts as.
func NewAuthenticator(ctx context.Context, policies io.Reader) (Authenticator, error) {
	module, err := io.ReadAll(policies)
	if err != nil {
		return nil, fmt.Errorf("unable to read authz policies: %s", err.Error())
	}

	query, err := rego.New(
		rego.Query("x = data.hardwaremonitor.authz.allow"),
		rego.Module("authz.rego", string(module)),
	).PrepareForEval(ctx)

	if err != nil {
		return nil, err
	}

	return &impl{query: query}, nil
}

// CheckAccess runs after token verification. It evaluates the
// admission policy over the claims and stores the resulting principal
// in the request context.
func (a *impl) CheckAccess() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var err error

			logger := logging.GetLoggerFromContext(r.Context())

			_, span := tracer.Start(r.Context(), "check-auth")
			defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				if err == nil {
					err = errors.New("no token found in request")
				}
				logger.Info().Msg(err.Error())
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			input := map[string]any{
				"account": claims["account"],
				"role":    claims["role"],
				"company": claims["company"],
			}

			results, err := a.query.Eval(r.Context(), rego.EvalInput(input))
			if err != nil {
				logger.Error().Err(err).Msg("opa eval failed")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			if len(results) == 0 {
				err = errors.New("opa query could not be satisfied")
				logger.Error().Err(err).Msg("auth failed")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			binding := results[0].Bindings["x"]

			// a failed admission comes back as a single bool
			allowed, ok := binding.(bool)
			if ok && !allowed {
				err = errors.New("admission denied")
				logger.Warn().Msg(err.Error())
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			result, ok := binding.(map[string]any)
			if !ok {
				err = errors.New("unexpected result type from authz policy")
				logger.Error().Msg(err.Error())
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			p, err := principalFromPolicyResult(result)
			if err != nil {
				logger.Warn().Err(err).Msg("auth failed")
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			r = r.WithContext(WithPrincipal(r.Context(), p))

			next.ServeHTTP(w, r)
		})
	}
}

func principalFromPolicyResult(result map[string]any) (access.Principal, error) {
	account, _ := result["account"].(string)
	roleClaim, _ := result["role"].(string)
	company, _ := result["company"].(string)

	if account == "" {
		return access.Principal{}, errors.New("policy result is missing an account")
	}

	role, ok := types.ParseRole(roleClaim)
	if !ok {
		return access.Principal{}, fmt.Errorf("policy result contains unknown role %s", roleClaim)
	}

	return access.Principal{
		Account: account,
		Role:    role,
		Company: company,
	}, nil
}

func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// GetPrincipal returns the principal stored by CheckAccess. The
// boolean is false on routes that did not pass through it.
func GetPrincipal(ctx context.Context) (access.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey).(access.Principal)
	return p, ok
}
