// Package main provides an operational CLI for tenant schema management:
// creating tenants, healing drifted schemas, and deleting tenants outside
// the HTTP API. It talks to the database configured via DATABASE_URL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"praxis/internal/platform/config"
	"praxis/internal/platform/database"
	"praxis/internal/platform/logger"
	"praxis/internal/tenant/provisioner"
	"praxis/internal/tenant/registry"
	"praxis/internal/tenant/service"
	id "praxis/pkg/domain"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	createCmd := flag.NewFlagSet("create", flag.ExitOnError)
	createName := createCmd.String("name", "", "Tenant organization name (required)")

	healCmd := flag.NewFlagSet("heal", flag.ExitOnError)
	healTenant := healCmd.String("tenant-id", "", "Tenant to heal; heals every tenant when empty")

	deleteCmd := flag.NewFlagSet("delete", flag.ExitOnError)
	deleteTenant := deleteCmd.String("tenant-id", "", "Tenant to delete (required)")
	deleteYes := deleteCmd.Bool("yes", false, "Confirm irreversible deletion")

	cfg := config.FromEnv()
	log := logger.New()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil || pool == nil {
		fmt.Fprintln(os.Stderr, "error: DATABASE_URL is required")
		os.Exit(1)
	}
	defer pool.Close()

	store := registry.NewPostgres(pool.DB())
	prov := provisioner.New(pool.DB(), provisioner.WithLogger(log))
	svc := service.New(store, prov, service.WithLogger(log))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "create":
		createCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		if *createName == "" {
			fmt.Fprintln(os.Stderr, "error: -name is required")
			os.Exit(2)
		}
		tenant, err := svc.CreateTenant(ctx, *createName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created tenant %s (namespace %s)\n", tenant.ID, tenant.Namespace)

	case "heal":
		healCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		if err := heal(ctx, store, prov, *healTenant); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

	case "delete":
		deleteCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		if *deleteTenant == "" {
			fmt.Fprintln(os.Stderr, "error: -tenant-id is required")
			os.Exit(2)
		}
		if !*deleteYes {
			fmt.Fprintln(os.Stderr, "error: deletion drops the tenant schema and all data; pass -yes to confirm")
			os.Exit(2)
		}
		tenantID, err := id.ParseTenantID(*deleteTenant)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		if err := svc.DeleteTenant(ctx, tenantID); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("deleted tenant %s\n", tenantID)

	default:
		usage()
		os.Exit(2)
	}
}

// heal re-runs provisioning for one tenant, or for every registered tenant
// when tenantID is empty. Healing is idempotent; fully provisioned schemas
// are verified and left alone.
func heal(ctx context.Context, store *registry.PostgresStore, prov *provisioner.Provisioner, tenantID string) error {
	if tenantID != "" {
		tid, err := id.ParseTenantID(tenantID)
		if err != nil {
			return err
		}
		tenant, err := store.FindByID(ctx, tid)
		if err != nil {
			return err
		}
		if err := prov.EnsureNamespace(ctx, tenant.Namespace); err != nil {
			return err
		}
		fmt.Printf("healed %s (namespace %s)\n", tenant.ID, tenant.Namespace)
		return nil
	}

	tenants, err := store.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, tenant := range tenants {
		if err := prov.EnsureNamespace(ctx, tenant.Namespace); err != nil {
			return fmt.Errorf("tenant %s: %w", tenant.ID, err)
		}
		fmt.Printf("healed %s (namespace %s)\n", tenant.ID, tenant.Namespace)
	}
	fmt.Printf("healed %d tenants\n", len(tenants))
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: provision <command> [flags]

commands:
  create  -name <org name>            register a tenant and provision its schema
  heal    [-tenant-id <uuid>]         re-run provisioning (all tenants when omitted)
  delete  -tenant-id <uuid> -yes      drop the tenant schema and catalog row`)
}
