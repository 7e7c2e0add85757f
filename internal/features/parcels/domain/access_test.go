package domain

import (
	"testing"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessPolicy(t *testing.T) {
	customer := identity.Principal{ID: owner.ID, Role: identity.RoleCustomer}
	other := identity.Principal{ID: "other", Role: identity.RoleCustomer}
	agent := identity.Principal{ID: "agent-7", Role: identity.RoleAgent}
	stranger := identity.Principal{ID: "agent-9", Role: identity.RoleAgent}
	admin := identity.Principal{ID: "root", Role: identity.RoleAdmin}

	p := newPending()

	t.Run("View", func(t *testing.T) {
		assert.True(t, CanView(customer, p))
		assert.False(t, CanView(other, p))
		assert.False(t, CanView(agent, p), "unassigned parcels are invisible to agents")
		assert.True(t, CanView(admin, p))
		assert.False(t, CanView(identity.Principal{ID: "x", Role: "guest"}, p))
	})

	t.Run("Transition", func(t *testing.T) {
		assert.False(t, CanTransition(customer, p))
		assert.False(t, CanTransition(agent, p))
		assert.True(t, CanTransition(admin, p))

		p.Delivery.AgentID = agent.ID
		assert.True(t, CanTransition(agent, p))
		assert.True(t, CanView(agent, p))
		assert.False(t, CanTransition(stranger, p))
	})

	t.Run("Create", func(t *testing.T) {
		assert.True(t, CanCreate(customer))
		assert.True(t, CanCreate(admin))
		assert.False(t, CanCreate(agent))
	})
}

func TestNewListQuery(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		q, err := NewListQuery(Scope{}, "all", "  ", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, DeliveryStatus(""), q.Status)
		assert.Equal(t, 1, q.Page)
		assert.Equal(t, DefaultPageLimit, q.Limit)
		assert.Equal(t, 0, q.Offset())
	})

	t.Run("Clamp", func(t *testing.T) {
		q, err := NewListQuery(Scope{}, "delivered", "", 3, 1000)
		require.NoError(t, err)
		assert.Equal(t, StatusDelivered, q.Status)
		assert.Equal(t, MaxPageLimit, q.Limit)
		assert.Equal(t, 200, q.Offset())
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		_, err := NewListQuery(Scope{}, "lost", "", 1, 10)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestListQuery_Matches(t *testing.T) {
	p := newPending()
	p.Sender.Name = "Rahim Uddin"
	p.Receiver.Phone = "+8801811111111"

	q, _ := NewListQuery(Scope{}, "", "rahim", 1, 10)
	assert.True(t, q.Matches(p))

	q, _ = NewListQuery(Scope{}, "", "0181111", 1, 10)
	assert.True(t, q.Matches(p))

	q, _ = NewListQuery(Scope{}, "", "trk1700", 1, 10)
	assert.True(t, q.Matches(p))

	q, _ = NewListQuery(Scope{}, "delivered", "", 1, 10)
	assert.False(t, q.Matches(p))

	q, _ = NewListQuery(Scope{CustomerID: "someone-else"}, "", "", 1, 10)
	assert.False(t, q.Matches(p))
}

func TestNewPage(t *testing.T) {
	q, _ := NewListQuery(Scope{}, "", "", 2, 10)
	page := NewPage(q, nil, 21)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)

	assert.Equal(t, 0, NewPage(q, nil, 0).TotalPages)
}
