package models

import id "praxis/pkg/domain"

// Lifecycle events emitted after successful tenant mutations.

type TenantCreated struct {
	TenantID  id.TenantID
	Namespace string
}

type TenantDeactivated struct {
	TenantID id.TenantID
}

type TenantReactivated struct {
	TenantID id.TenantID
}

type TenantDeleted struct {
	TenantID  id.TenantID
	Namespace string
}
