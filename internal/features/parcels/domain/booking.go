package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/identity"
	"parcel-tracker/internal/core/validation"

	"gorm.io/datatypes"
)

// DefaultWeight is used when no weight is given.
const DefaultWeight = "1.0"

// Number accepts a JSON number or a numeric string.
type Number string

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected a number or numeric string")
	}
	*n = Number(num.String())
	return nil
}

// Float parses the value. ok is false when the value is empty.
func (n Number) Float() (v float64, ok bool, err error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	return v, true, err
}

// AddressInput is the booking form of Address.
type AddressInput struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// PartyInput is the booking form of Party.
type PartyInput struct {
	Name    string        `json:"name"`
	Phone   string        `json:"phone"`
	Email   string        `json:"email" validate:"omitempty,email"`
	Address *AddressInput `json:"address"`
}

// ReceiverInput is a PartyInput whose name and phone are mandatory.
type ReceiverInput struct {
	Name    string        `json:"name" validate:"required"`
	Phone   string        `json:"phone" validate:"required"`
	Email   string        `json:"email" validate:"omitempty,email"`
	Address *AddressInput `json:"address"`
}

// ItemInput is one declared content line.
type ItemInput struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity" validate:"gte=0"`
	Value    float64 `json:"value" validate:"gte=0"`
}

// DetailsInput is the booking form of Details.
type DetailsInput struct {
	Type        ParcelType `json:"type" validate:"omitempty,oneof=document package fragile electronics clothing other"`
	Weight      Number     `json:"weight"`
	Dimensions  *struct {
		Length Number `json:"length"`
		Width  Number `json:"width"`
		Height Number `json:"height"`
	} `json:"dimensions"`
	Description string      `json:"description"`
	Items       []ItemInput `json:"items" validate:"omitempty,dive"`
}

// PaymentInput is the booking form of Payment.
type PaymentInput struct {
	Method    PaymentMethod `json:"method" validate:"omitempty,oneof=cod prepaid card bank_transfer"`
	Amount    Number        `json:"amount"`
	CODAmount Number        `json:"codAmount"`
}

// DeliveryInput carries booking-time delivery hints.
type DeliveryInput struct {
	Notes             string     `json:"notes"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

// BookingRequest is the input to parcel creation.
type BookingRequest struct {
	// Customer lets an admin book on behalf of a customer. Ignored for customers.
	Customer  string         `json:"customer" validate:"omitempty,uuid"`
	Sender    *PartyInput    `json:"sender" validate:"required"`
	Receiver  *ReceiverInput `json:"receiver" validate:"required"`
	Details   *DetailsInput  `json:"parcelDetails" validate:"required"`
	Payment   *PaymentInput  `json:"payment" validate:"required"`
	Delivery  *DeliveryInput `json:"delivery"`
	Priority  Priority       `json:"priority" validate:"omitempty,oneof=low normal high express"`
	Insurance *Insurance     `json:"insurance"`
	Notes     string         `json:"notes"`
}

// Validate checks presence of the mandatory blocks and enum values.
func (r *BookingRequest) Validate() error {
	return validation.Struct(r)
}

// BuildParcel validates r and returns a parcel with all defaults applied.
// Identity, tracking code, log and timestamps are left to the caller.
// Sender name, phone and email fall back to the owner's contact.
func BuildParcel(r *BookingRequest, owner identity.Contact, defaultCountry string) (*Parcel, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var fields []string

	weight := normalizeWeight(r.Details.Weight)

	items := make(datatypes.JSONSlice[Item], 0, len(r.Details.Items))
	for _, in := range r.Details.Items {
		it := Item{Name: strings.TrimSpace(in.Name), Quantity: in.Quantity, Value: in.Value}
		if it.Name == "" {
			it.Name = "Item"
		}
		if it.Quantity == 0 {
			it.Quantity = 1
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		items = datatypes.JSONSlice[Item]{{Name: "Item", Quantity: 1, Value: 0}}
	}

	method := r.Payment.Method
	if method == "" {
		method = PaymentCOD
	}

	amount, given, err := r.Payment.Amount.Float()
	switch {
	case err != nil:
		fields = append(fields, "payment.amount must be numeric")
	case amount < 0:
		fields = append(fields, "payment.amount must be greater than or equal to 0")
	case !given || amount == 0:
		amount = itemsTotal(items)
	}

	codAmount, _, err := r.Payment.CODAmount.Float()
	switch {
	case err != nil:
		fields = append(fields, "payment.codAmount must be numeric")
	case codAmount < 0:
		fields = append(fields, "payment.codAmount must be greater than or equal to 0")
	}
	if method != PaymentCOD {
		codAmount = 0
	}

	if len(fields) > 0 {
		return nil, apperr.NewValidation(fields...)
	}

	sender := Party{
		Name:    orDefault(r.Sender.Name, owner.Name),
		Phone:   orDefault(r.Sender.Phone, owner.Phone),
		Email:   orDefault(r.Sender.Email, owner.Email),
		Address: buildAddress(r.Sender.Address, defaultCountry),
	}
	receiver := Party{
		Name:    strings.TrimSpace(r.Receiver.Name),
		Phone:   strings.TrimSpace(r.Receiver.Phone),
		Email:   strings.TrimSpace(r.Receiver.Email),
		Address: buildAddress(r.Receiver.Address, defaultCountry),
	}

	details := Details{
		Type:        r.Details.Type,
		Weight:      weight,
		Description: r.Details.Description,
		Items:       items,
	}
	if details.Type == "" {
		details.Type = ParcelTypePackage
	}
	if d := r.Details.Dimensions; d != nil {
		details.Dimensions = Dimensions{Length: string(d.Length), Width: string(d.Width), Height: string(d.Height)}
	}

	p := &Parcel{
		CustomerID: owner.ID,
		Sender:     sender,
		Receiver:   receiver,
		Details:    details,
		Payment: Payment{
			Method:    method,
			Amount:    amount,
			CODAmount: codAmount,
			Status:    PaymentPending,
		},
		Delivery: Delivery{Status: StatusPending},
		Priority: r.Priority,
		Notes:    r.Notes,
	}
	if p.Priority == "" {
		p.Priority = PriorityNormal
	}
	if r.Insurance != nil {
		p.Insurance = *r.Insurance
	}
	if r.Delivery != nil {
		p.Delivery.DeliveryNotes = r.Delivery.Notes
		p.Delivery.EstimatedDelivery = r.Delivery.EstimatedDelivery
	}
	return p, nil
}

func buildAddress(in *AddressInput, defaultCountry string) Address {
	if in == nil {
		return Address{Country: defaultCountry}
	}
	return Address{
		Street:  in.Street,
		City:    in.City,
		State:   in.State,
		ZipCode: in.ZipCode,
		Country: orDefault(in.Country, defaultCountry),
	}
}

// normalizeWeight turns "2", 2, "2.50kg" into "2.0", "2.0", "2.5". Weight is
// free-form: text that is not a plain kilogram figure is kept as given, and
// empty or non-positive figures become DefaultWeight.
func normalizeWeight(w Number) string {
	raw := strings.TrimSpace(string(w))
	s := strings.TrimSpace(strings.TrimSuffix(strings.ToLower(raw), "kg"))
	if s == "" {
		return DefaultWeight
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return raw
	}
	if v <= 0 {
		return DefaultWeight
	}
	out := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

func itemsTotal(items []Item) float64 {
	var total float64
	for _, it := range items {
		total += it.Value * float64(it.Quantity)
	}
	return total
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
