// Package namespace generates and validates the physical schema names that
// isolate one tenant's tables from another's. A name is interpolated into DDL
// and query templates only after passing Validate; everything else in the
// system treats namespace strings as opaque.
package namespace

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"praxis/internal/sentinel"
	id "praxis/pkg/domain"
)

// Prefix distinguishes tenant schemas from anything else living in the database.
const Prefix = "t_"

// MaxLength matches the PostgreSQL identifier limit.
const MaxLength = 63

// safeIdentifier is the allow-list every namespace must match before it may be
// interpolated into SQL: lowercase letter first, then letters, digits,
// underscores. No quoting, no dots, no dollar signs.
var safeIdentifier = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ForTenant derives the schema name for a tenant from its ID: "t_" followed by
// the 32 hex digits of the UUID. Deterministic, collision-free, and never
// influenced by user input.
func ForTenant(tenantID id.TenantID) string {
	hex := strings.ReplaceAll(uuid.UUID(tenantID).String(), "-", "")
	return Prefix + hex
}

// Validate checks a namespace name against the safe-identifier allow-list.
// It runs before every interpolation, including on names read back from the
// registry, so a tampered row can never smuggle SQL into a DDL statement.
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("namespace is empty: %w", sentinel.ErrInvalidNamespace)
	}
	if len(name) > MaxLength {
		return fmt.Errorf("namespace %q exceeds %d characters: %w", name, MaxLength, sentinel.ErrInvalidNamespace)
	}
	if !strings.HasPrefix(name, Prefix) {
		return fmt.Errorf("namespace %q lacks the %q prefix: %w", name, Prefix, sentinel.ErrInvalidNamespace)
	}
	if !safeIdentifier.MatchString(name) {
		return fmt.Errorf("namespace %q contains disallowed characters: %w", name, sentinel.ErrInvalidNamespace)
	}
	return nil
}
