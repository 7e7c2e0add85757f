package domain

import (
	"strings"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/identity"
)

// Scope narrows parcel queries to what a principal may see.
// The zero value is unrestricted.
type Scope struct {
	CustomerID string
	AgentID    string
	// None matches nothing. Used for unknown roles.
	None bool
}

// ScopeFor returns the scope of p: customers see their own parcels, agents
// the parcels assigned to them, admins everything.
func ScopeFor(p identity.Principal) Scope {
	switch p.Role {
	case identity.RoleAdmin:
		return Scope{}
	case identity.RoleCustomer:
		return Scope{CustomerID: p.ID}
	case identity.RoleAgent:
		return Scope{AgentID: p.ID}
	default:
		return Scope{None: true}
	}
}

// Contains reports whether parcel falls inside the scope. An unassigned
// parcel is outside every agent scope.
func (s Scope) Contains(parcel *Parcel) bool {
	if s.None {
		return false
	}
	if s.CustomerID != "" && parcel.CustomerID != s.CustomerID {
		return false
	}
	if s.AgentID != "" && parcel.Delivery.AgentID != s.AgentID {
		return false
	}
	return true
}

// CanView reports whether p may read parcel.
func CanView(p identity.Principal, parcel *Parcel) bool {
	return ScopeFor(p).Contains(parcel)
}

// CanTransition reports whether p may change parcel's status.
func CanTransition(p identity.Principal, parcel *Parcel) bool {
	switch p.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleAgent:
		return parcel.Delivery.AgentID != "" && parcel.Delivery.AgentID == p.ID
	default:
		return false
	}
}

// CanCreate reports whether p may book parcels.
func CanCreate(p identity.Principal) bool {
	return p.Role == identity.RoleCustomer || p.Role == identity.RoleAdmin
}

// ListParams are the raw list filters from the caller.
type ListParams struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// ListQuery is a scoped, filtered and paginated parcel listing.
type ListQuery struct {
	Scope  Scope
	Status DeliveryStatus
	Search string
	Page   int
	Limit  int
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// NewListQuery normalizes raw list parameters. Status "all" or empty means no filter.
func NewListQuery(scope Scope, status string, search string, page, limit int) (ListQuery, error) {
	q := ListQuery{Scope: scope, Search: strings.TrimSpace(search), Page: page, Limit: limit}

	status = strings.TrimSpace(status)
	if status != "" && status != "all" {
		q.Status = DeliveryStatus(status)
		if !q.Status.IsDeliveryStatus() {
			return ListQuery{}, apperr.NewValidation("status must be one of: all, " + joinStatuses(DeliveryStatuses))
		}
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return q, nil
}

// Offset is the number of rows skipped for the page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Matches applies the filters of q to one parcel, mirroring the store query.
func (q ListQuery) Matches(p *Parcel) bool {
	if !q.Scope.Contains(p) {
		return false
	}
	if q.Status != "" && p.Delivery.Status != q.Status {
		return false
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	for _, hay := range []string{p.TrackingNumber, p.Sender.Name, p.Receiver.Name, p.Sender.Phone, p.Receiver.Phone} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

// Page is one page of a listing.
type Page struct {
	Parcels    []Parcel
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// NewPage computes the page count for total rows.
func NewPage(q ListQuery, parcels []Parcel, total int64) Page {
	pages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return Page{Parcels: parcels, Total: total, Page: q.Page, Limit: q.Limit, TotalPages: pages}
}

func joinStatuses(ss []DeliveryStatus) string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return strings.Join(out, ", ")
}
