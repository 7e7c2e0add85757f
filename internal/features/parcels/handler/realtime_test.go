package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/auth"
	"parcel-tracker/internal/core/identity"
	"parcel-tracker/internal/core/server"
	"parcel-tracker/internal/features/parcels/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRealtimeHandler_Channels(t *testing.T) {
	svc := new(MockParcelService)
	h := NewRealtimeHandler(nil, svc)
	ctx := context.Background()

	chs, err := h.channelsFor(ctx, admin, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"parcels"}, chs)

	chs, err = h.channelsFor(ctx, customer, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"customer:" + customer.ID}, chs)

	chs, err = h.channelsFor(ctx, agent, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"agent:" + agent.ID}, chs)

	_, err = h.channelsFor(ctx, identity.Principal{ID: "x", Role: "guest"}, "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	svc.On("Get", mock.Anything, customer, parcelID).Return(&domain.Parcel{ID: parcelID}, nil).Once()
	chs, err = h.channelsFor(ctx, customer, parcelID)
	require.NoError(t, err)
	assert.Equal(t, []string{"parcel:" + parcelID}, chs)

	svc.On("Get", mock.Anything, agent, parcelID).Return(nil, apperr.Forbidden("You cannot view this parcel")).Once()
	_, err = h.channelsFor(ctx, agent, parcelID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestRealtimeHandler_RequiresUpgrade(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: server.ErrorHandler})
	h := NewRealtimeHandler(nil, new(MockParcelService))
	app.Get("/ws/parcels", auth.RequiredWS(tokens), h.Authorize, func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	tok, err := tokens.Issue(customer)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ws/parcels", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ws/parcels?token="+tok, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/ws/parcels?token="+tok, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ws/parcels", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
