package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/iliyamo/service-booking/internal/booking"
	"github.com/iliyamo/service-booking/internal/model"
)

// LoginPath is where anonymous callers are sent.
const LoginPath = "/v1/login"

// views maps each role to its own dashboard.
var views = map[model.Role]string{
	model.RoleCustomer: "/v1/customer",
	model.RoleProvider: "/v1/provider",
	model.RoleAdmin:    "/v1/admin",
}

// ViewFor returns the dashboard path of role, or LoginPath for an unknown
// role.
func ViewFor(role model.Role) string {
	if v, ok := views[role]; ok {
		return v
	}
	return LoginPath
}

// Decision is the outcome of Authorize.  A denied decision always carries a
// redirect target: the login entry point for anonymous callers and the
// caller's own dashboard otherwise.
type Decision struct {
	Allowed  bool
	Status   int
	Redirect string
	Reason   string
}

// Err converts a denied decision into an *AuthorizationError.  It returns
// nil when the decision allows access.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &AuthorizationError{Status: d.Status, Redirect: d.Redirect, Reason: d.Reason}
}

// AuthorizationError reports an identity that may not reach a view or
// perform an operation.  Presentation layers turn it into a redirect.
type AuthorizationError struct {
	Status   int
	Redirect string
	Reason   string
}

func (e *AuthorizationError) Error() string { return e.Reason }

// IsAuthorizationError unwraps err into an *AuthorizationError.
func IsAuthorizationError(err error) (*AuthorizationError, bool) {
	var ae *AuthorizationError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Authorize checks id against the roles allowed to proceed.  With no roles
// listed any signed-in identity is allowed.
func Authorize(id *model.Identity, required ...model.Role) Decision {
	if id == nil {
		return Decision{Status: http.StatusUnauthorized, Redirect: LoginPath, Reason: "authentication required"}
	}
	if len(required) == 0 {
		return Decision{Allowed: true, Status: http.StatusOK}
	}
	for _, r := range required {
		if id.Role == r {
			return Decision{Allowed: true, Status: http.StatusOK}
		}
	}
	return Decision{
		Status:   http.StatusForbidden,
		Redirect: ViewFor(id.Role),
		Reason:   fmt.Sprintf("role %s may not access this resource", id.Role),
	}
}

func deny(id model.Identity, reason string) error {
	return &AuthorizationError{Status: http.StatusForbidden, Redirect: ViewFor(id.Role), Reason: reason}
}

// CanCreate allows only customers to open booking requests.
func CanCreate(id model.Identity) error {
	if id.Role != model.RoleCustomer {
		return deny(id, "only customers can create bookings")
	}
	return nil
}

// CanView reports whether id may see b.  Admins see everything, providers
// the bookings addressed to them and customers the ones they created.
func CanView(id model.Identity, b model.Booking) bool {
	switch id.Role {
	case model.RoleAdmin:
		return true
	case model.RoleProvider:
		return b.ProviderID == id.ID
	case model.RoleCustomer:
		return b.CustomerID == id.ID
	}
	return false
}

// CanTransition checks whether id may move b to status to.  Whether the
// edge itself is legal is the store's decision.
func CanTransition(id model.Identity, b model.Booking, to model.Status) error {
	switch id.Role {
	case model.RoleProvider:
		if b.ProviderID != id.ID {
			return deny(id, "booking belongs to another provider")
		}
		switch to {
		case model.StatusAccepted, model.StatusRejected, model.StatusCompleted:
			return nil
		}
		return deny(id, fmt.Sprintf("providers cannot set status %s", to))
	case model.RoleAdmin:
		if to == model.StatusCompleted {
			return nil
		}
		return deny(id, "admins can only complete bookings")
	}
	return deny(id, "customers cannot change booking status")
}

// ScopeQuery is the caller-supplied part of a list request.
type ScopeQuery struct {
	Role   string
	ID     uint64
	Status model.Status
}

// ScopeFilter builds the filter a list request runs with.  Customers and
// providers are always pinned to their own bookings whatever they ask for;
// admins may narrow the unscoped view to one provider or customer.
func ScopeFilter(id model.Identity, q ScopeQuery) (booking.Filter, error) {
	var f booking.Filter
	switch id.Role {
	case model.RoleCustomer:
		f = booking.ByCustomer(id.ID)
	case model.RoleProvider:
		f = booking.ByProvider(id.ID)
	case model.RoleAdmin:
		switch strings.TrimSpace(q.Role) {
		case "":
			if q.ID != 0 {
				return booking.Filter{}, scopeError("id", "requires role")
			}
			f = booking.All()
		case string(model.RoleProvider):
			if q.ID == 0 {
				return booking.Filter{}, scopeError("id", "is required with role")
			}
			f = booking.ByProvider(q.ID)
		case string(model.RoleCustomer):
			if q.ID == 0 {
				return booking.Filter{}, scopeError("id", "is required with role")
			}
			f = booking.ByCustomer(q.ID)
		default:
			return booking.Filter{}, scopeError("role", "must be provider or customer")
		}
	default:
		return booking.Filter{}, deny(id, "unknown role")
	}

	if q.Status != "" {
		if !q.Status.Valid() {
			return booking.Filter{}, scopeError("status", "is not a known status")
		}
		f.Status = q.Status
	}
	return f, nil
}

func scopeError(field, msg string) error {
	return &booking.ValidationError{Issues: []booking.FieldIssue{{Field: field, Message: msg}}}
}
