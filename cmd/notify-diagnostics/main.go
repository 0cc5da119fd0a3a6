package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Apurer/ghadwa-checkout/internal/app/api"
	ordersmemory "github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/memory"
	orderspostgres "github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/persistence/postgres"
	"github.com/Apurer/ghadwa-checkout/internal/platform/migrations"
	platformpostgres "github.com/Apurer/ghadwa-checkout/internal/platform/postgres"
)

const commandTimeout = 2 * time.Minute

func main() {
	rootCmd := &cobra.Command{
		Use:           "notify-diagnostics",
		Short:         "Inspect and exercise Ghadwa order notification channels",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		channelsCommand(),
		testCommand(),
		resendCommand(),
		seedPromosCommand(),
	)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func channelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "list notification channels in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := api.LoadConfig()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), api.BuildDispatcher(cfg, nil).AvailableChannels())
		},
	}
}

func testCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "send a sample order through every channel at once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := api.LoadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			result := api.BuildDispatcher(cfg, nil).TestAllChannels(ctx)
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.OverallSuccess {
				return errors.New("no channel accepted the test order")
			}
			return nil
		},
	}
}

func resendCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "resend [order-id-or-number]",
		Short: "notify operations about a stored order again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := api.LoadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			db, cleanup := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, quietLogger())
			defer cleanup()
			if db == nil {
				return errors.New("POSTGRES_DSN not set or connection failed; cannot load orders")
			}
			order, err := orderspostgres.NewDataStore(db).FindOrder(ctx, args[0])
			if err != nil {
				return fmt.Errorf("load order %s: %w", args[0], err)
			}
			dispatcher := api.BuildDispatcher(cfg, nil)
			if all {
				return printJSON(cmd.OutOrStdout(), dispatcher.DispatchToAllChannels(ctx, &order.Entity))
			}
			result := dispatcher.DispatchOrderNotification(ctx, &order.Entity)
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Success {
				return errors.New(result.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "send through every channel instead of stopping at the first success")
	return cmd
}

func seedPromosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-promos",
		Short: "run migrations and store the demo promo codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := api.LoadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			db, cleanup := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, quietLogger())
			defer cleanup()
			if db == nil {
				return errors.New("POSTGRES_DSN not set or connection failed; cannot seed promo codes")
			}
			if err := migrations.Run(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			store := orderspostgres.NewDataStore(db)
			for _, code := range ordersmemory.DemoPromoCodes() {
				if err := store.SavePromoCode(ctx, code); err != nil {
					return fmt.Errorf("save %s: %w", code.Code, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "saved", code.Code)
			}
			return nil
		},
	}
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
