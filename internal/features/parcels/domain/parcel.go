package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ParcelType classifies the contents.
type ParcelType string

const (
	ParcelTypeDocument    ParcelType = "document"
	ParcelTypePackage     ParcelType = "package"
	ParcelTypeFragile     ParcelType = "fragile"
	ParcelTypeElectronics ParcelType = "electronics"
	ParcelTypeClothing    ParcelType = "clothing"
	ParcelTypeOther       ParcelType = "other"
)

// PaymentMethod is how the shipment is paid for.
type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentPrepaid      PaymentMethod = "prepaid"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// PaymentStatus tracks collection of the payment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Priority is the requested service level.
type Priority string

const (
	PriorityLow     Priority = "low"
	PriorityNormal  Priority = "normal"
	PriorityHigh    Priority = "high"
	PriorityExpress Priority = "express"
)

// Address is a postal address. Missing parts are stored as empty strings.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Party is the sender or the receiver of a parcel.
type Party struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   string  `json:"email"`
	Address Address `json:"address" gorm:"embedded;embeddedPrefix:address_"`
}

// Dimensions are free-form measurements as entered.
type Dimensions struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

// Item is one declared line of the parcel contents.
type Item struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Value    float64 `json:"value"`
}

// Details describes the physical parcel.
type Details struct {
	Type        ParcelType               `json:"type"`
	Weight      string                   `json:"weight"`
	Dimensions  Dimensions               `json:"dimensions" gorm:"embedded;embeddedPrefix:dim_"`
	Description string                   `json:"description"`
	Items       datatypes.JSONSlice[Item] `json:"items" gorm:"type:jsonb"`
}

// Payment holds the charge for the shipment.
// CODAmount is only meaningful for cash on delivery and is not checked against Amount.
type Payment struct {
	Method        PaymentMethod `json:"method"`
	Amount        float64       `json:"amount"`
	CODAmount     float64       `json:"codAmount"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
}

// ProofOfDelivery holds references captured at hand-over.
type ProofOfDelivery struct {
	Image     string `json:"image,omitempty"`
	Signature string `json:"signature,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Delivery is the current delivery state. Only the tracking engine writes Status.
type Delivery struct {
	Status            DeliveryStatus  `json:"status" gorm:"index"`
	AgentID           string          `json:"agent,omitempty" gorm:"index"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	ActualDelivery    *time.Time      `json:"actualDelivery,omitempty"`
	DeliveryNotes     string          `json:"deliveryNotes"`
	FailedReason      string          `json:"failedReason,omitempty"`
	Proof             ProofOfDelivery `json:"proofOfDelivery" gorm:"embedded;embeddedPrefix:proof_"`
}

// Insurance is the declared insurance cover.
type Insurance struct {
	Insured bool    `json:"insured"`
	Amount  float64 `json:"amount"`
}

// Location is an optional geo point attached to a tracking event.
type Location struct {
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	Address string   `json:"address,omitempty"`
}

// TrackingEvent is one append-only entry of a parcel's history.
// Seq is assigned by the store and defines the canonical order.
type TrackingEvent struct {
	Seq       int64          `json:"-" gorm:"primaryKey;autoIncrement"`
	ParcelID  string         `json:"-" gorm:"type:uuid;index;not null"`
	Status    DeliveryStatus `json:"status" gorm:"not null"`
	Location  *Location      `json:"location,omitempty" gorm:"type:jsonb;serializer:json"`
	Notes     string         `json:"notes"`
	Timestamp time.Time      `json:"timestamp" gorm:"not null"`
	UpdatedBy string         `json:"updatedBy"`
}

// TableName pins the event table name.
func (TrackingEvent) TableName() string { return "tracking_events" }

// Parcel is the aggregate root of a shipment.
type Parcel struct {
	ID             string          `json:"id" gorm:"type:uuid;primaryKey"`
	TrackingNumber string          `json:"trackingNumber" gorm:"uniqueIndex;not null"`
	CustomerID     string          `json:"customer" gorm:"type:uuid;index;not null"`
	Sender         Party           `json:"sender" gorm:"embedded;embeddedPrefix:sender_"`
	Receiver       Party           `json:"receiver" gorm:"embedded;embeddedPrefix:receiver_"`
	Details        Details         `json:"parcelDetails" gorm:"embedded;embeddedPrefix:details_"`
	Payment        Payment         `json:"payment" gorm:"embedded;embeddedPrefix:payment_"`
	Delivery       Delivery        `json:"delivery" gorm:"embedded;embeddedPrefix:delivery_"`
	Tracking       []TrackingEvent `json:"tracking" gorm:"foreignKey:ParcelID"`
	QRCode         string          `json:"qrCode"`
	Barcode        string          `json:"barcode"`
	Priority       Priority        `json:"priority"`
	Insurance      Insurance       `json:"insurance" gorm:"embedded;embeddedPrefix:insurance_"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Clone returns a copy whose tracking log can be reordered without touching p.
func (p *Parcel) Clone() *Parcel {
	c := *p
	c.Tracking = append([]TrackingEvent(nil), p.Tracking...)
	c.Details.Items = append(datatypes.JSONSlice[Item](nil), p.Details.Items...)
	return &c
}

// NewestFirst returns a copy with the tracking history reversed for display.
func (p *Parcel) NewestFirst() *Parcel {
	c := p.Clone()
	for i, j := 0, len(c.Tracking)-1; i < j; i, j = i+1, j-1 {
		c.Tracking[i], c.Tracking[j] = c.Tracking[j], c.Tracking[i]
	}
	return c
}
