package domain

// StatusCount is the number of parcels in one delivery status.
type StatusCount struct {
	Status      string  `json:"status"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"totalAmount,omitempty"`
}

// CustomerStats summarizes a customer's bookings.
type CustomerStats struct {
	ParcelStats  []StatusCount `json:"parcelStats"`
	TotalParcels int64         `json:"totalParcels"`
	TotalSpent   float64       `json:"totalSpent"`
}

// NewCustomerStats totals per-status rows.
func NewCustomerStats(rows []StatusCount) CustomerStats {
	s := CustomerStats{ParcelStats: nonNil(rows)}
	for _, r := range rows {
		s.TotalParcels += r.Count
		s.TotalSpent += r.TotalAmount
	}
	return s
}

// AgentStats summarizes an agent's assignments.
type AgentStats struct {
	DeliveryStats   []StatusCount `json:"deliveryStats"`
	TotalDeliveries int64         `json:"totalDeliveries"`
	// SuccessCount is the number of assigned parcels now delivered.
	SuccessCount int64 `json:"successCount"`
}

// NewAgentStats totals per-status rows.
func NewAgentStats(rows []StatusCount) AgentStats {
	s := AgentStats{DeliveryStats: nonNil(rows)}
	for _, r := range rows {
		s.TotalDeliveries += r.Count
		if r.Status == "delivered" {
			s.SuccessCount = r.Count
		}
	}
	return s
}

// Profile is a user with role-specific statistics.
type Profile struct {
	*User
	Stats any `json:"stats"`
}

func nonNil(rows []StatusCount) []StatusCount {
	if rows == nil {
		return []StatusCount{}
	}
	return rows
}
