// Package access holds the row level visibility rules that every
// listing and mutation in the API funnels through. The rules are
// deliberately collected in one place so that a change to what a role
// may see is a one file change.
package access

import (
	"errors"
	"fmt"

	"github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/fleetmon/hardware-monitor/pkg/types"
)

// Principal is the verified identity a request acts as.
type Principal struct {
	Account string
	Role    types.Role
	Company string
}

// ErrForbidden signals a valid identity with insufficient privilege.
// Errors produced by this package wrap it and carry a human readable
// reason.
var ErrForbidden = errors.New("access denied")

func forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

// DeviceListScope returns the conditions that restrict a device
// listing to the rows the principal may see. Staff without a company
// binding get a scope that matches nothing, which surfaces as an
// empty listing rather than a rejection.
func DeviceListScope(p Principal) ([]database.ConditionFunc, error) {
	switch p.Role {
	case types.RoleAdmin:
		return nil, nil
	case types.RoleCompanyStaff:
		if p.Company == "" {
			return []database.ConditionFunc{database.WithCompanies([]string{})}, nil
		}
		return []database.ConditionFunc{database.WithCompanies([]string{p.Company})}, nil
	case types.RoleUser:
		return nil, forbidden("user accounts cannot list devices")
	}

	return nil, forbidden("unknown role")
}

// LogListScope returns the conditions for the power and alert event
// listings. Unlike device listings, staff without a company binding
// are rejected outright.
func LogListScope(p Principal) ([]database.ConditionFunc, error) {
	switch p.Role {
	case types.RoleAdmin:
		return nil, nil
	case types.RoleCompanyStaff:
		if p.Company == "" {
			return nil, forbidden("no company bound to this account")
		}
		return []database.ConditionFunc{database.WithCompanies([]string{p.Company})}, nil
	case types.RoleUser:
		return nil, forbidden("user accounts cannot list monitoring logs")
	}

	return nil, forbidden("unknown role")
}

// DetailScope returns the companies a single device lookup must be
// limited to. Devices outside the scope are indistinguishable from
// devices that do not exist.
func DetailScope(p Principal) ([]string, error) {
	if p.Role == types.RoleCompanyStaff {
		if p.Company == "" {
			return nil, database.ErrDeviceNotFound
		}
		return []string{p.Company}, nil
	}

	return nil, nil
}

// CanCreate decides whether the principal may register a device owned
// by the named company.
func CanCreate(p Principal, companyName string) error {
	switch p.Role {
	case types.RoleAdmin:
		return nil
	case types.RoleCompanyStaff:
		if p.Company == "" || p.Company != companyName {
			return forbidden("cannot register a device for another company")
		}
		return nil
	}

	return forbidden("user accounts cannot register devices")
}

// CanModify applies the ownership check for single entity mutations.
// The entity has already been fetched, so a failure here is a
// rejection rather than a not found.
func CanModify(p Principal, ownerCompany string) error {
	if p.Role == types.RoleCompanyStaff && p.Company != ownerCompany {
		return forbidden("device belongs to another company")
	}

	return nil
}

// CanUnregister is CanModify with the additional rule that plain user
// accounts may never take a device out of service.
func CanUnregister(p Principal, ownerCompany string) error {
	if p.Role == types.RoleUser {
		return forbidden("user accounts cannot unregister devices")
	}

	return CanModify(p, ownerCompany)
}

// RequireAdmin gates the directory listings.
func RequireAdmin(p Principal) error {
	if p.Role != types.RoleAdmin {
		return forbidden("administrator access required")
	}

	return nil
}

// AdminFilterAllowed reports whether the principal may narrow a
// listing by an explicit company name. Staff scoping already pins the
// company, so the filter is only honoured for administrators.
func AdminFilterAllowed(p Principal) bool {
	return p.Role == types.RoleAdmin
}
