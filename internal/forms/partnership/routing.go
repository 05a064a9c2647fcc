package partnership

import "strings"

// Routes reported by SelectList, in the order they are tried.
const (
	RouteGP         = "gp"
	RouteLP         = "lp"
	RouteGPFallback = "gp_fallback"
	RouteLPFallback = "lp_fallback"
	RouteGPDefault  = "gp_default"
	RouteNone       = "none"
)

// SelectList picks the CRM list for a partnership inquiry. The first
// matching rule wins:
//
//  1. partnershipType is exactly "gp" and a GP list is configured
//  2. partnershipType is exactly "lp" and an LP list is configured
//  3. the same field trimmed and lowercased is "gp", then "lp"
//  4. the GP list, if configured
//
// A zero list id means no list assignment.
func SelectList(partnershipType string, cfg *Config) (int64, string) {
	switch {
	case partnershipType == "gp" && cfg.GPListID > 0:
		return cfg.GPListID, RouteGP
	case partnershipType == "lp" && cfg.LPListID > 0:
		return cfg.LPListID, RouteLP
	}

	normalized := strings.ToLower(strings.TrimSpace(partnershipType))
	switch {
	case normalized == "gp" && cfg.GPListID > 0:
		return cfg.GPListID, RouteGPFallback
	case normalized == "lp" && cfg.LPListID > 0:
		return cfg.LPListID, RouteLPFallback
	case cfg.GPListID > 0:
		return cfg.GPListID, RouteGPDefault
	}
	return 0, RouteNone
}
