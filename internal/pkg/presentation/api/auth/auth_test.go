package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/matryer/is"

	"github.com/fleetmon/hardware-monitor/internal/pkg/application/access"
	"github.com/fleetmon/hardware-monitor/pkg/types"
)

func TestCheckAccessAdmitsAValidToken(t *testing.T) {
	is, server, tokenAuth := testSetup(t)
	defer server.Close()

	resp := request(is, server, signToken(is, tokenAuth, "alice", "Admin", ""))
	is.Equal(http.StatusOK, resp.StatusCode)
}

func TestCheckAccessStoresThePrincipal(t *testing.T) {
	is := is.New(t)

	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	authenticator := newTestAuthenticator(is)

	var p access.Principal
	var found bool

	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(tokenAuth))
	r.Use(authenticator.CheckAccess())
	r.Get("/probe", func(w http.ResponseWriter, r *http.Request) {
		p, found = GetPrincipal(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(r)
	defer server.Close()

	resp := request(is, server, signToken(is, tokenAuth, "bob", "CompanyStaff", "acme"))
	is.Equal(http.StatusOK, resp.StatusCode)
	is.True(found)
	is.Equal("bob", p.Account)
	is.Equal(types.RoleCompanyStaff, p.Role)
	is.Equal("acme", p.Company)
}

func TestCheckAccessRejectsMissingToken(t *testing.T) {
	is, server, _ := testSetup(t)
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL+"/probe", nil)
	is.NoErr(err)

	resp, err := http.DefaultClient.Do(req)
	is.NoErr(err)
	resp.Body.Close()

	is.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestCheckAccessRejectsWrongSigningKey(t *testing.T) {
	is, server, _ := testSetup(t)
	defer server.Close()

	other := jwtauth.New("HS256", []byte("not-the-key"), nil)

	resp := request(is, server, signToken(is, other, "alice", "Admin", ""))
	is.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestCheckAccessRejectsUnknownRole(t *testing.T) {
	is, server, tokenAuth := testSetup(t)
	defer server.Close()

	resp := request(is, server, signToken(is, tokenAuth, "mallory", "Superuser", ""))
	is.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func testSetup(t *testing.T) (*is.I, *httptest.Server, *jwtauth.JWTAuth) {
	is := is.New(t)

	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	authenticator := newTestAuthenticator(is)

	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(tokenAuth))
	r.Use(authenticator.CheckAccess())
	r.Get("/probe", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return is, httptest.NewServer(r), tokenAuth
}

func newTestAuthenticator(is *is.I) Authenticator {
	policies, err := os.Open("../../../../../assets/config/authz.rego")
	is.NoErr(err)
	defer policies.Close()

	authenticator, err := NewAuthenticator(context.Background(), policies)
	is.NoErr(err)

	return authenticator
}

func signToken(is *is.I, tokenAuth *jwtauth.JWTAuth, account, role, company string) string {
	_, token, err := tokenAuth.Encode(map[string]any{
		"account": account,
		"role":    role,
		"company": company,
	})
	is.NoErr(err)

	return token
}

func request(is *is.I, server *httptest.Server, token string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, server.URL+"/probe", nil)
	is.NoErr(err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	is.NoErr(err)
	resp.Body.Close()

	return resp
}
