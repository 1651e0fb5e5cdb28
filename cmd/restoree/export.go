package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"restoree/internal/app/certification"
	"restoree/internal/delivery/server/bootstrap"
	"restoree/internal/infra/draftstore"
	"restoree/internal/shared/config"

	"github.com/spf13/cobra"
)

// cliSessionKey is the single session the CLI works on; the single-file
// store ignores it.
const cliSessionKey = "cli"

// newExportService is replaced in tests to avoid launching Chrome.
var newExportService = func(cfg config.Config, store certification.DraftStore) (*certification.Service, error) {
	return bootstrap.BuildService(cfg, store, nil)
}

func newExportCommand(flags *cliFlags) *cobra.Command {
	var (
		draftPath string
		format    string
		outDir    string
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a saved draft to PNG, flat PDF or print PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := certification.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, _, err := flags.load()
			if err != nil {
				return err
			}
			bootstrap.InstallLogging(cfg.Logging)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			path, res, err := runExport(ctx, cfg, draftPath, f, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", styleSuccess("exported"), path, styleMuted("("+res.CertificateID+")"))
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&draftPath, "draft", "", "draft JSON file")
	fs.StringVar(&format, "format", "png", "png, pdf or print")
	fs.StringVar(&outDir, "out", ".", "output directory")
	fs.DurationVar(&timeout, "timeout", 2*time.Minute, "overall export deadline")
	_ = cmd.MarkFlagRequired("draft")
	return cmd
}

// runExport renders the draft at draftPath and writes the artifact into
// outDir. A newly assigned certificate ID is saved back to the draft file.
// The file must hold a readable draft; it is never replaced by an empty one.
func runExport(ctx context.Context, cfg config.Config, draftPath string, format certification.ExportFormat, outDir string) (string, certification.ExportResult, error) {
	store := draftstore.NewSingleFileStore(draftPath)
	if _, err := store.Load(ctx, cliSessionKey); err != nil {
		return "", certification.ExportResult{}, fmt.Errorf("load %s: %w", draftPath, err)
	}
	svc, err := newExportService(cfg, store)
	if err != nil {
		return "", certification.ExportResult{}, err
	}

	res, err := svc.Export(ctx, cliSessionKey, format)
	if err != nil {
		return "", res, err
	}
	if !res.OK() {
		if res.Err == nil {
			res.Err = errors.New("empty artifact")
		}
		return "", res, fmt.Errorf("export %s: %w", format, res.Err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", res, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outDir, res.Filename)
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return "", res, fmt.Errorf("write %s: %w", path, err)
	}
	return path, res, nil
}
