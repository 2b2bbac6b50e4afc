package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"parking-registry/internal/logging"
	"parking-registry/internal/parking"
	"parking-registry/internal/report"
	"parking-registry/internal/server"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "run the interactive menu",
	Args:  cobra.NoArgs,
	RunE:  shellCmdRunE,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve the registry over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serveCmdRunE,
}

var addCmd = &cobra.Command{
	Use:   "add PLATE",
	Short: "park a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE:  execCmdRunE("add"),
}

var removeCmd = &cobra.Command{
	Use:   "remove PLATE HOURS",
	Short: "remove a vehicle and print the fee",
	Args:  cobra.ExactArgs(2),
	RunE:  execCmdRunE("remove"),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list parked vehicles",
	Args:  cobra.NoArgs,
	RunE:  execCmdRunE("list"),
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "write the parked vehicles to a spreadsheet",
	Args:  cobra.NoArgs,
	RunE:  exportCmdRunE,
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func shellCmdRunE(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()

	shell := parking.NewShell(a.ledger, a.telemetry, cmd.InOrStdin(), cmd.OutOrStdout())
	shell.Run(ctx)
	return nil
}

func execCmdRunE(command string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		shell := parking.NewShell(a.ledger, a.telemetry, cmd.InOrStdin(), cmd.OutOrStdout())
		shell.Exec(cmd.Context(), append([]string{command}, args...)...)
		return nil
	}
}

func serveCmdRunE(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	addr := net.JoinHostPort(a.cfg.HTTP.Host, strconv.Itoa(a.cfg.HTTP.Port))
	srv := server.NewServer(addr, a.cfg.Telemetry.ServiceName, a.ledger)

	ctx, stop := signalContext()
	defer stop()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()
	logging.Logger().Info().Str("url", srv.GetAddress()).Msg("registry API listening")

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logging.Logger().Info().Msg("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func exportCmdRunE(cmd *cobra.Command, args []string) error {
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	plates, err := a.ledger.ListVehicles(cmd.Context())
	if err != nil {
		return err
	}

	if err := exportVehicles(a.fs, out, plates); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d vehicles to %s\n", len(plates), out)
	return nil
}

func exportVehicles(fs afero.Fs, path string, plates []parking.Plate) (err error) {
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	return report.WriteXLSX(f, plates)
}
