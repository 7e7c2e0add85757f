package domain

import (
	"time"
)

// WeeklyWindow is the number of days in the rolling series.
const WeeklyWindow = 7

// DayStat is one day of the rolling booking series.
type DayStat struct {
	Date      string `json:"date"`
	Booked    int64  `json:"booked"`
	Delivered int64  `json:"delivered"`
}

// Metrics is the dashboard summary for a scope.
type Metrics struct {
	Total     int64                    `json:"total"`
	ByStatus  map[DeliveryStatus]int64 `json:"byStatus"`
	Pending   int64                    `json:"pending"`
	InTransit int64                    `json:"inTransit"`
	Delivered int64                    `json:"delivered"`
	Failed    int64                    `json:"failed"`
	Today     int64                    `json:"today"`
	// TotalCOD sums payment.amount (not codAmount) over cod parcels whose payment is pending.
	TotalCOD float64   `json:"totalCOD"`
	// Weekly is served next to the counters, not inside them.
	Weekly []DayStat `json:"-"`
}

// StatusAggregate is a per-status count and amount sum.
type StatusAggregate struct {
	Status      DeliveryStatus `json:"status"`
	Count       int64          `json:"count"`
	TotalAmount float64        `json:"totalAmount"`
}

// Activity is the projection used to build the rolling series.
type Activity struct {
	CreatedAt time.Time
	Status    DeliveryStatus
}

// ApplyAggregates fills the status counters from per-status rows.
func (m *Metrics) ApplyAggregates(rows []StatusAggregate) {
	m.ByStatus = make(map[DeliveryStatus]int64, len(DeliveryStatuses))
	for _, s := range DeliveryStatuses {
		m.ByStatus[s] = 0
	}
	m.Total = 0
	for _, r := range rows {
		m.ByStatus[r.Status] += r.Count
		m.Total += r.Count
	}
	m.Pending = m.ByStatus[StatusPending]
	m.InTransit = m.ByStatus[StatusInTransit]
	m.Delivered = m.ByStatus[StatusDelivered]
	m.Failed = m.ByStatus[StatusFailed]
}

// BuildWeekly buckets activity into days [start, start+days) in start's
// location. Days without bookings are present with zero counts. Delivered
// counts parcels booked that day whose current status is delivered.
func BuildWeekly(activity []Activity, start time.Time, days int) []DayStat {
	loc := start.Location()
	out := make([]DayStat, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i).Format(time.DateOnly)
		out[i].Date = d
		index[d] = i
	}
	for _, a := range activity {
		i, ok := index[a.CreatedAt.In(loc).Format(time.DateOnly)]
		if !ok {
			continue
		}
		out[i].Booked++
		if a.Status == StatusDelivered {
			out[i].Delivered++
		}
	}
	return out
}
