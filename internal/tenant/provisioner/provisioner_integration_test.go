//go:build integration

package provisioner_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"praxis/internal/tenant/namespace"
	"praxis/internal/tenant/provisioner"
	id "praxis/pkg/domain"
	"praxis/pkg/testutil/containers"
)

type ProvisionerSuite struct {
	suite.Suite
	postgres    *containers.PostgresContainer
	provisioner *provisioner.Provisioner
}

func TestProvisionerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProvisionerSuite))
}

func (s *ProvisionerSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.provisioner = provisioner.New(s.postgres.DB)
}

func (s *ProvisionerSuite) SetupTest() {
	s.Require().NoError(s.postgres.Reset(context.Background()))
}

func (s *ProvisionerSuite) newNamespace() string {
	return namespace.ForTenant(id.TenantID(uuid.New()))
}

func (s *ProvisionerSuite) TestEnsureNamespace_CreatesFullLayout() {
	ctx := context.Background()
	ns := s.newNamespace()

	s.Require().NoError(s.provisioner.EnsureNamespace(ctx, ns))

	s.True(s.postgres.SchemaExists(ctx, s.T(), ns))
	s.Equal(len(provisioner.TableNames()), s.postgres.TableCount(ctx, s.T(), ns))
}

func (s *ProvisionerSuite) TestEnsureNamespace_Idempotent() {
	ctx := context.Background()
	ns := s.newNamespace()

	s.Require().NoError(s.provisioner.EnsureNamespace(ctx, ns))

	// Seed a row so we can prove the second run does not recreate tables.
	_, err := s.postgres.Exec(ctx,
		fmt.Sprintf("INSERT INTO %s.clients (name) VALUES ($1)", ns), "Kept Client")
	s.Require().NoError(err)

	s.Require().NoError(s.provisioner.EnsureNamespace(ctx, ns))

	var count int
	err = s.postgres.QueryRow(ctx,
		fmt.Sprintf("SELECT count(*) FROM %s.clients", ns)).Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *ProvisionerSuite) TestEnsureNamespace_HealsDrift() {
	ctx := context.Background()
	ns := s.newNamespace()

	s.Require().NoError(s.provisioner.EnsureNamespace(ctx, ns))

	// Simulate drift: drop one table, keep data in another.
	_, err := s.postgres.Exec(ctx, fmt.Sprintf("DROP TABLE %s.invoices", ns))
	s.Require().NoError(err)
	_, err = s.postgres.Exec(ctx,
		fmt.Sprintf("INSERT INTO %s.clients (name) VALUES ($1)", ns), "Survivor")
	s.Require().NoError(err)

	s.Require().NoError(s.provisioner.EnsureNamespace(ctx, ns))

	// Missing table is back, untouched table kept its data.
	s.Equal(len(provisioner.TableNames()), s.postgres.TableCount(ctx, s.T(), ns))
	var count int
	err = s.postgres.QueryRow(ctx,
		fmt.Sprintf("SELECT count(*) FROM %s.clients", ns)).Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *ProvisionerSuite) TestEnsureNamespace_ConcurrentFirstAccess() {
	ctx := context.Background()
	ns := s.newNamespace()

	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			return s.provisioner.EnsureNamespace(ctx, ns)
		})
	}
	s.Require().NoError(g.Wait())

	s.True(s.postgres.SchemaExists(ctx, s.T(), ns))
	s.Equal(len(provisioner.TableNames()), s.postgres.TableCount(ctx, s.T(), ns))
}

func (s *ProvisionerSuite) TestDropNamespace_RemovesSchema() {
	ctx := context.Background()
	ns := s.newNamespace()

	s.Require().NoError(s.provisioner.EnsureNamespace(ctx, ns))
	s.Require().NoError(s.provisioner.DropNamespace(ctx, ns))

	s.False(s.postgres.SchemaExists(ctx, s.T(), ns))

	// Dropping a namespace that is already gone is not an error.
	s.Require().NoError(s.provisioner.DropNamespace(ctx, ns))
}
