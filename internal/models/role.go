package models

import (
	"sort"
	"time"

	"github.com/lib/pq"
)

// RoleTier classifies a role structurally for ownership and visibility rules.
// It replaces comparisons against display names like "Mère SOS" in business
// logic: reporters only see and edit their own reports, analysts may be
// assigned to cases, oversight roles see everything including the identity
// behind anonymous reports.
type RoleTier string

const (
	TierReporter  RoleTier = "REPORTER"
	TierAnalyst   RoleTier = "ANALYST"
	TierOversight RoleTier = "OVERSIGHT"
)

// ValidTier reports whether the given string is a known tier.
func ValidTier(s string) bool {
	switch RoleTier(s) {
	case TierReporter, TierAnalyst, TierOversight:
		return true
	}
	return false
}

// Role is a named, administrator-defined permission set.
type Role struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	Tier        RoleTier       `db:"tier" json:"tier"`
	Permissions pq.StringArray `db:"permissions" json:"permissions"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AnalystCapable reports whether users holding this role may be assigned to
// a report as analyst.
func (r *Role) AnalystCapable() bool {
	return r.Tier == TierAnalyst || r.Tier == TierOversight
}

// NormalizePermissions deduplicates a permission list and sorts it so the
// stored representation is deterministic. Domain semantics are a set; order
// only matters at the storage boundary.
func NormalizePermissions(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	result := make([]string, 0, len(perms))
	for _, p := range perms {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		result = append(result, p)
	}
	sort.Strings(result)
	return result
}
