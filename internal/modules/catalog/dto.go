package catalog

import "labreserve/internal/domain"

// LabDetails is a lab with its weekday overrides and closed days.
type LabDetails struct {
	domain.Lab
	Hours      []domain.LabOperatingHours `json:"operating_hours"`
	ClosedDays []domain.LabClosedDay      `json:"closed_days"`
}
