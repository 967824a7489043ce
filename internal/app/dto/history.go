package dto

import (
	"time"

	domainhistory "hotelcore/internal/domain/history"
)

type HistoryEntry struct {
	RoomID                 string    `json:"room_id"`
	Seq                    int64     `json:"seq"`
	ChangeType             string    `json:"change_type"`
	OldState               string    `json:"old_state,omitempty"`
	NewState               string    `json:"new_state,omitempty"`
	OldMaintenanceRequired bool      `json:"old_maintenance_required"`
	NewMaintenanceRequired bool      `json:"new_maintenance_required"`
	ChangeReason           string    `json:"change_reason,omitempty"`
	ChangeMethod           string    `json:"change_method,omitempty"`
	Notes                  string    `json:"notes,omitempty"`
	ChangedBy              string    `json:"changed_by,omitempty"`
	ChangeDate             time.Time `json:"change_date"`
}

type HistoryCollection struct {
	Items []HistoryEntry `json:"items"`
}

type HistorySummary struct {
	RoomID       string         `json:"room_id"`
	PeriodDays   int            `json:"period_days"`
	TotalChanges int            `json:"total_changes"`
	ChangeCounts map[string]int `json:"change_counts"`
	Latest       *HistoryEntry  `json:"latest,omitempty"`
}

func NewHistoryEntry(e domainhistory.Entry) HistoryEntry {
	return HistoryEntry{
		RoomID:                 string(e.RoomID),
		Seq:                    e.Seq,
		ChangeType:             string(e.ChangeType),
		OldState:               string(e.OldState),
		NewState:               string(e.NewState),
		OldMaintenanceRequired: e.OldMaintenanceRequired,
		NewMaintenanceRequired: e.NewMaintenanceRequired,
		ChangeReason:           e.ChangeReason,
		ChangeMethod:           e.ChangeMethod,
		Notes:                  e.ChangeNotes,
		ChangedBy:              e.ChangedBy,
		ChangeDate:             e.ChangeDate,
	}
}

func NewHistoryCollection(entries []domainhistory.Entry) HistoryCollection {
	items := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		items = append(items, NewHistoryEntry(e))
	}
	return HistoryCollection{Items: items}
}

func NewHistorySummary(s domainhistory.Summary) HistorySummary {
	counts := make(map[string]int, len(s.ChangeCounts))
	for k, v := range s.ChangeCounts {
		counts[string(k)] = v
	}
	out := HistorySummary{
		RoomID:       string(s.RoomID),
		PeriodDays:   s.PeriodDays,
		TotalChanges: s.TotalChanges,
		ChangeCounts: counts,
	}
	if s.Latest != nil {
		latest := NewHistoryEntry(*s.Latest)
		out.Latest = &latest
	}
	return out
}
