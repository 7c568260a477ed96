package namespace

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"praxis/internal/sentinel"
	id "praxis/pkg/domain"
)

func TestForTenant_Deterministic(t *testing.T) {
	tenantID := id.TenantID(uuid.MustParse("3f2f1d7e-9c41-4a1b-8f6a-2d9e0b7c5a11"))

	got := ForTenant(tenantID)
	assert.Equal(t, "t_3f2f1d7e9c414a1b8f6a2d9e0b7c5a11", got)
	assert.Equal(t, got, ForTenant(tenantID))
}

func TestForTenant_AlwaysValidates(t *testing.T) {
	for range 50 {
		ns := ForTenant(id.TenantID(uuid.New()))
		require.NoError(t, Validate(ns))
	}
}

func TestValidate_RejectsUnsafeNames(t *testing.T) {
	cases := []struct {
		name string
		ns   string
	}{
		{"empty", ""},
		{"missing prefix", "acme_corp"},
		{"uppercase", "t_ACME"},
		{"semicolon injection", "t_x; DROP SCHEMA public CASCADE"},
		{"quoted", `t_x"--`},
		{"dotted", "t_x.public"},
		{"space", "t_x y"},
		{"too long", Prefix + strings.Repeat("a", MaxLength)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.ns)
			require.Error(t, err)
			assert.ErrorIs(t, err, sentinel.ErrInvalidNamespace)
		})
	}
}

func TestValidate_AcceptsGeneratedShape(t *testing.T) {
	require.NoError(t, Validate("t_0123456789abcdef0123456789abcdef"))
}
