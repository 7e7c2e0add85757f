package domain

import (
	"encoding/json"
	"testing"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var owner = identity.Contact{
	ID:    "5f0c6a52-8f52-4a8e-9a47-0f8f8b0d4c11",
	Role:  identity.RoleCustomer,
	Name:  "Rahim Uddin",
	Email: "rahim@example.com",
	Phone: "+8801700000000",
}

func decodeBooking(t *testing.T, body string) *BookingRequest {
	t.Helper()
	var r BookingRequest
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	return &r
}

func TestBuildParcel_Defaults(t *testing.T) {
	r := decodeBooking(t, `{
		"sender": {},
		"receiver": {"name": "A", "phone": "123"},
		"parcelDetails": {},
		"payment": {}
	}`)

	p, err := BuildParcel(r, owner, "Bangladesh")
	require.NoError(t, err)

	assert.Equal(t, owner.ID, p.CustomerID)
	assert.Equal(t, "1.0", p.Details.Weight)
	assert.Equal(t, ParcelTypePackage, p.Details.Type)
	require.Len(t, p.Details.Items, 1)
	assert.Equal(t, Item{Name: "Item", Quantity: 1, Value: 0}, p.Details.Items[0])
	assert.Equal(t, PaymentCOD, p.Payment.Method)
	assert.Equal(t, PaymentPending, p.Payment.Status)
	assert.Zero(t, p.Payment.Amount)
	assert.Equal(t, StatusPending, p.Delivery.Status)
	assert.Equal(t, PriorityNormal, p.Priority)
	assert.Equal(t, "Bangladesh", p.Receiver.Address.Country)
	assert.Equal(t, "Bangladesh", p.Sender.Address.Country)

	// Sender falls back to the owner.
	assert.Equal(t, owner.Name, p.Sender.Name)
	assert.Equal(t, owner.Phone, p.Sender.Phone)
	assert.Equal(t, owner.Email, p.Sender.Email)
}

func TestBuildParcel_AmountAndWeight(t *testing.T) {
	t.Run("AmountFromItems", func(t *testing.T) {
		r := decodeBooking(t, `{
			"sender": {"name": "S", "phone": "1"},
			"receiver": {"name": "R", "phone": "2"},
			"parcelDetails": {"weight": 2, "items": [{"name": "Book", "quantity": 2, "value": 150}, {"value": 100}]},
			"payment": {"method": "cod", "codAmount": "400"}
		}`)
		p, err := BuildParcel(r, owner, "Bangladesh")
		require.NoError(t, err)
		assert.Equal(t, "2.0", p.Details.Weight)
		assert.Equal(t, 400.0, p.Payment.Amount)
		assert.Equal(t, 400.0, p.Payment.CODAmount)
		assert.Equal(t, Item{Name: "Item", Quantity: 1, Value: 100}, p.Details.Items[1])
	})

	t.Run("ExplicitAmountWins", func(t *testing.T) {
		r := decodeBooking(t, `{
			"sender": {}, "receiver": {"name": "R", "phone": "2"},
			"parcelDetails": {"weight": "2.50kg", "items": [{"name": "Book", "quantity": 1, "value": 150}]},
			"payment": {"method": "prepaid", "amount": "90", "codAmount": 40}
		}`)
		p, err := BuildParcel(r, owner, "Bangladesh")
		require.NoError(t, err)
		assert.Equal(t, "2.5", p.Details.Weight)
		assert.Equal(t, 90.0, p.Payment.Amount)
		assert.Zero(t, p.Payment.CODAmount, "codAmount only applies to cod")
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		r := decodeBooking(t, `{
			"sender": {}, "receiver": {"name": "R", "phone": "2"},
			"parcelDetails": {"weight": "-1"},
			"payment": {"amount": "abc"}
		}`)
		_, err := BuildParcel(r, owner, "Bangladesh")
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, []string{"payment.amount must be numeric"}, apperr.Fields(err))
	})

	t.Run("FreeFormWeight", func(t *testing.T) {
		for in, want := range map[string]string{
			`"abc"`:        "abc",
			`"approx 2kg"`: "approx 2kg",
			`" 2 lbs "`:    "2 lbs",
			`"0"`:          DefaultWeight,
			`"-1"`:         DefaultWeight,
			`0`:            DefaultWeight,
			`"3 KG"`:       "3.0",
		} {
			r := decodeBooking(t, `{
				"sender": {}, "receiver": {"name": "R", "phone": "2"},
				"parcelDetails": {"weight": `+in+`},
				"payment": {}
			}`)
			p, err := BuildParcel(r, owner, "Bangladesh")
			require.NoError(t, err, in)
			assert.Equal(t, want, p.Details.Weight, in)
		}
	})
}

func TestBuildParcel_MissingBlocks(t *testing.T) {
	r := decodeBooking(t, `{"sender": {}, "receiver": {"name": ""}, "payment": {}}`)

	_, err := BuildParcel(r, owner, "Bangladesh")
	require.ErrorIs(t, err, apperr.ErrValidation)
	fields := apperr.Fields(err)
	assert.Contains(t, fields, "parcelDetails is required")
	assert.Contains(t, fields, "receiver.name is required")
	assert.Contains(t, fields, "receiver.phone is required")
}

func TestBuildParcel_CountryAndPriority(t *testing.T) {
	r := decodeBooking(t, `{
		"sender": {"address": {"city": "Dhaka"}},
		"receiver": {"name": "R", "phone": "2", "address": {"city": "Kolkata", "country": "India"}},
		"parcelDetails": {"type": "document"},
		"payment": {"method": "card"},
		"priority": "express",
		"delivery": {"notes": "call first"}
	}`)
	p, err := BuildParcel(r, owner, "Bangladesh")
	require.NoError(t, err)
	assert.Equal(t, "Bangladesh", p.Sender.Address.Country)
	assert.Equal(t, "India", p.Receiver.Address.Country)
	assert.Equal(t, ParcelTypeDocument, p.Details.Type)
	assert.Equal(t, PriorityExpress, p.Priority)
	assert.Equal(t, "call first", p.Delivery.DeliveryNotes)
}
