package auth

import (
	"net/http"
	"strings"
)

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves the required role for the request.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	method := r.Method

	switch {
	case path == "/api/v1/payments":
		if method == http.MethodPost {
			return RoleStaff, true
		}
		return RoleViewer, true
	case strings.HasPrefix(path, "/api/v1/payments/"):
		if method == http.MethodDelete {
			return RoleAdmin, true
		}
		if method == http.MethodPost || method == http.MethodPut {
			return RoleStaff, true
		}
		return RoleViewer, true
	case path == "/api/v1/slips":
		if method == http.MethodPost {
			return RoleStaff, true
		}
		return RoleViewer, true
	case path == "/api/v1/incomes" || path == "/api/v1/expenses":
		if method == http.MethodPost {
			return RoleStaff, true
		}
		return RoleViewer, true
	case strings.HasPrefix(path, "/api/v1/incomes/") || strings.HasPrefix(path, "/api/v1/expenses/"):
		if method == http.MethodDelete || method == http.MethodPut {
			return RoleStaff, true
		}
		return RoleViewer, true
	case strings.HasPrefix(path, "/api/v1/finance/"):
		return RoleViewer, true
	case strings.HasPrefix(path, "/api/v1/stays") || strings.HasPrefix(path, "/api/v1/billtypes"):
		return RoleViewer, true
	case path == "/api/v1/summary" || path == "/api/v1/exports/payments.csv":
		return RoleViewer, true
	default:
		return "", false
	}
}
