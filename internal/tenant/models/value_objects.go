package models

type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

type PlanTier string

const (
	PlanTierStandard PlanTier = "standard"
	PlanTierPro      PlanTier = "pro"
	PlanTierFirm     PlanTier = "firm"
)

func (p PlanTier) Valid() bool {
	switch p {
	case PlanTierStandard, PlanTierPro, PlanTierFirm:
		return true
	}
	return false
}

// Default quotas applied at onboarding; plan changes adjust them.
const (
	DefaultMaxUsers     = 10
	DefaultMaxStorageMB = 1024
)
