// Package types provides type definitions for structured data used throughout the report builder.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ReportRequest carries everything a user supplies for one monthly report
type ReportRequest struct {
	ClientName   string    `json:"client_name"`
	Website      string    `json:"website,omitempty" validate:"omitempty,url"`
	MonthLabel   string    `json:"month_label"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end" validate:"omitempty,gtefield=PeriodStart"`
	DashboardURL string    `json:"dashboard_url,omitempty" validate:"omitempty,url"`
	Notes        string    `json:"notes" validate:"required"`
	Tier         Tier      `json:"tier" validate:"omitempty,oneof=quick standard deep"`
	ContactName  string    `json:"contact_name,omitempty"`
	Uploads      []Upload  `json:"uploads,omitempty"`
}

// ApplyDefaults trims user input and fills the month label, reporting period
// and tier. With no period it runs from the first of now's month to now; a
// single bound fills the other from that bound's month.
func (r *ReportRequest) ApplyDefaults(now time.Time) {
	r.ClientName = strings.TrimSpace(r.ClientName)
	r.Website = strings.TrimSpace(r.Website)
	r.DashboardURL = strings.TrimSpace(r.DashboardURL)
	r.ContactName = strings.TrimSpace(r.ContactName)
	r.Notes = strings.TrimSpace(r.Notes)
	if strings.TrimSpace(r.MonthLabel) == "" {
		r.MonthLabel = now.Format("January 2006")
	}
	switch {
	case r.PeriodStart.IsZero() && r.PeriodEnd.IsZero():
		r.PeriodStart = monthStart(now)
		r.PeriodEnd = now
	case r.PeriodStart.IsZero():
		r.PeriodStart = monthStart(r.PeriodEnd)
	case r.PeriodEnd.IsZero():
		// Last day of the start month, or now while that month is running.
		next := monthStart(r.PeriodStart).AddDate(0, 1, 0)
		r.PeriodEnd = next.AddDate(0, 0, -1)
		if !now.Before(r.PeriodStart) && now.Before(next) {
			r.PeriodEnd = now
		}
	}
	r.Tier = ParseTier(string(r.Tier))
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Validate validates the ReportRequest using the validator.
func (r *ReportRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
