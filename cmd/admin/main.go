package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/straye-as/rfq-pricing-api/internal/config"
	"github.com/straye-as/rfq-pricing-api/internal/database"
	"github.com/straye-as/rfq-pricing-api/internal/logger"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
	"github.com/straye-as/rfq-pricing-api/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "rfq-admin",
		Short:        "Operator tasks for the RFQ pricing API",
		SilenceUsage: true,
	}
	root.AddCommand(newPurgeHistoryCmd())
	return root
}

type purgeOptions struct {
	tenant string
	run    string
	actor  string
	reason string
}

func newPurgeHistoryCmd() *cobra.Command {
	var opts purgeOptions
	cmd := &cobra.Command{
		Use:   "purge-history",
		Short: "Delete the approval history of one pricing run",
		Long: "Deletes every approval event of a pricing run and records who purged it.\n" +
			"Only available when admin.purgeEnabled is set and the environment is listed in admin.purgeEnvironments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.tenant, "tenant", "", "tenant ID")
	cmd.Flags().StringVar(&opts.run, "run", "", "pricing run ID")
	cmd.Flags().StringVar(&opts.actor, "actor", "", "operator performing the purge")
	cmd.Flags().StringVar(&opts.reason, "reason", "", "why the history is purged")
	for _, name := range []string{"tenant", "run", "actor", "reason"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runPurge(ctx context.Context, opts purgeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tenantID, err := uuid.Parse(opts.tenant)
	if err != nil {
		return fmt.Errorf("invalid tenant ID: %w", err)
	}
	runID, err := uuid.Parse(opts.run)
	if err != nil {
		return fmt.Errorf("invalid pricing run ID: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewLogger(&cfg.Logging, &cfg.App, "admin")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	admin, err := repository.NewAdminScope(cfg, opts.actor)
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	purge := service.NewAdminPurgeService(db,
		repository.NewTenantRepository(db),
		repository.NewApprovalEventRepository(db),
		log,
	)
	deleted, err := purge.PurgeRunAuditTrail(ctx, admin, tenantID, runID, opts.reason)
	if err != nil {
		return err
	}

	log.Info("purge complete",
		zap.String("tenant_id", tenantID.String()),
		zap.String("pricing_run_id", runID.String()),
		zap.Int64("deleted", deleted),
	)
	fmt.Printf("Deleted %d approval events\n", deleted)
	return nil
}
