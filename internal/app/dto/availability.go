package dto

import (
	availabilityapp "hotelcore/internal/app/availability"
)

type Availability struct {
	RoomID    string     `json:"room_id"`
	Available bool       `json:"available"`
	State     string     `json:"state"`
	Sellable  bool       `json:"sellable"`
	Reasons   []string   `json:"reasons,omitempty"`
	Blockings []Blocking `json:"blockings,omitempty"`
}

type FleetAvailability struct {
	Availability
	RoomNumber string `json:"room_number"`
	Floor      int    `json:"floor"`
	RoomType   string `json:"room_type"`
}

type FleetAvailabilityReport struct {
	Total     int                 `json:"total"`
	Available int                 `json:"available"`
	Items     []FleetAvailability `json:"items"`
}

func NewAvailability(r availabilityapp.Result) Availability {
	out := Availability{
		RoomID:    string(r.RoomID),
		Available: r.Available,
		State:     string(r.State),
		Sellable:  r.Sellable,
		Reasons:   r.Reasons,
	}
	for _, b := range r.Blockings {
		out.Blockings = append(out.Blockings, NewBlocking(b))
	}
	return out
}

func NewFleetAvailabilityReport(results []availabilityapp.FleetResult) FleetAvailabilityReport {
	report := FleetAvailabilityReport{Items: make([]FleetAvailability, 0, len(results))}
	for _, r := range results {
		item := FleetAvailability{
			Availability: NewAvailability(r.Result),
			RoomNumber:   r.RoomNumber,
			Floor:        r.Floor,
			RoomType:     r.RoomType,
		}
		report.Items = append(report.Items, item)
		report.Total++
		if r.Available {
			report.Available++
		}
	}
	return report
}
