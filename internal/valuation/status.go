package valuation

import (
	"strings"

	"agentpulse/server/internal/models"
)

// StatusCategory is the engine's normalized listing status. Source feeds send free-text
// statuses ("Active Under Contract", "Closed (Sold)", "Leased"); every one of them maps
// into exactly one category.
type StatusCategory string

const (
	StatusClosed              StatusCategory = "closed"
	StatusActive              StatusCategory = "active"
	StatusActiveUnderContract StatusCategory = "activeUnderContract"
	StatusPending             StatusCategory = "pending"
	StatusLeasing             StatusCategory = "leasing"
	StatusUnknown             StatusCategory = "unknown"

	// StatusAll is a filter value, not a classification result.
	StatusAll StatusCategory = "all"
)

// ClassifyStatus maps a free-text source status onto a category. Keyword groups are
// checked in a fixed precedence order because several source strings match more than one
// group: leasing terms first, then closed, then under-contract, then pending, then
// active. "Active Under Contract" therefore lands on activeUnderContract, not active.
func ClassifyStatus(raw string) StatusCategory {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return StatusUnknown
	}

	switch {
	case strings.Contains(s, "leas") || strings.Contains(s, "rent"):
		return StatusLeasing
	case strings.Contains(s, "closed") || strings.Contains(s, "sold"):
		return StatusClosed
	case strings.Contains(s, "under contract") || strings.Contains(s, "contingent"):
		return StatusActiveUnderContract
	case strings.Contains(s, "pending"):
		return StatusPending
	case strings.Contains(s, "active"):
		return StatusActive
	default:
		return StatusUnknown
	}
}

// ParseStatusFilter validates a filter value coming in from outside (an API query
// parameter, a persisted document field). Empty means all; anything that is not a
// known category is rejected rather than silently matching nothing.
func ParseStatusFilter(s string) (StatusCategory, bool) {
	cat := StatusCategory(strings.TrimSpace(s))
	switch cat {
	case "":
		return StatusAll, true
	case StatusAll, StatusClosed, StatusActive, StatusActiveUnderContract, StatusPending, StatusLeasing, StatusUnknown:
		return cat, true
	default:
		return "", false
	}
}

// FilterByStatus returns the comparables whose classified status matches the filter.
// StatusAll (or an empty filter) returns the full set.
func FilterByStatus(comps []*models.PropertyRecord, filter StatusCategory) []*models.PropertyRecord {
	if filter == StatusAll || filter == "" {
		return comps
	}

	filtered := make([]*models.PropertyRecord, 0, len(comps))
	for _, comp := range comps {
		if comp == nil {
			continue
		}
		if ClassifyStatus(comp.Status) == filter {
			filtered = append(filtered, comp)
		}
	}
	return filtered
}
