package main

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"vpxmerge/internal/bake"
	"vpxmerge/internal/export"
	"vpxmerge/internal/history"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var (
		bakesDir     string
		outPath      string
		modeFlag     string
		imageFormat  string
		noReflection bool
		noHistory    bool
	)

	cmd := &cobra.Command{
		Use:   "merge <table.vpx>",
		Short: "Run the bake-merge pipeline and write a new table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			source, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}

			modeName := cfg.Export.Mode
			if trimmed := strings.ToLower(strings.TrimSpace(modeFlag)); trimmed != "" {
				modeName = trimmed
			}
			mode, err := export.ParseMode(modeName)
			if err != nil {
				return err
			}

			format := cfg.Export.ImageFormat
			if strings.TrimSpace(imageFormat) != "" {
				format = strings.ToLower(strings.TrimSpace(imageFormat))
			}
			switch format {
			case "png", "webp":
			default:
				return fmt.Errorf("image format must be png or webp (got %q)", format)
			}

			dest := strings.TrimSpace(outPath)
			if dest == "" {
				dest = strings.TrimSuffix(source, filepath.Ext(source)) + ".merged.vpx"
			} else if dest, err = filepath.Abs(dest); err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}

			snap, err := bake.LoadPack(bakesDir)
			if err != nil {
				return fmt.Errorf("load bake pack: %w", err)
			}

			lock := flock.New(dest + ".lock")
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire destination lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another merge is already writing %s", dest)
			}
			defer func() {
				_ = lock.Unlock()
			}()

			started := time.Now().UTC()
			report, mergeErr := export.Merge(cmd.Context(), export.Options{
				Source:      source,
				Dest:        dest,
				Snapshot:    snap,
				Mode:        mode,
				ImageFormat: format,
				Reflection:  cfg.Export.Reflection && !noReflection,
				Logger:      logger,
			})
			finished := time.Now().UTC()

			if cfg.History.Enabled && !noHistory {
				if err := recordRun(cmd, cfg.History.Path, started, finished, source, dest, mode.String(), report, mergeErr); err != nil {
					logger.Warn("history row not recorded", "error", err)
				}
			}
			if mergeErr != nil {
				return mergeErr
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"", "Items", "Images"},
				[][]string{
					{"Kept", strconv.Itoa(len(report.KeptItems)), strconv.Itoa(len(report.KeptImages))},
					{"Removed", strconv.Itoa(len(report.RemovedItems)), strconv.Itoa(len(report.RemovedImages))},
					{"Added", strconv.Itoa(len(report.AddedItems)), strconv.Itoa(len(report.AddedImages))},
				},
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "Mode: %s\n", report.Mode)
			fmt.Fprintf(out, "Digest: %s\n", hex.EncodeToString(report.Digest))
			fmt.Fprintf(out, "Wrote %s\n", dest)
			if report.MissingPlayfieldPhysics {
				fmt.Fprintln(out, "Warning: no playfield_mesh item to take over playfield physics; add an invisible full-size ramp.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&bakesDir, "bakes", "b", "", "Directory holding the bake pack (bakes.cbor and packmaps)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination table path (default: <table>.merged.vpx)")
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Baked-item handling: default, hide, remove, or remove-all")
	cmd.Flags().StringVar(&imageFormat, "image-format", "", "Packmap image format: png or webp")
	cmd.Flags().BoolVar(&noReflection, "no-reflection", false, "Disable reflection on synthesized bake meshes")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording this run in the history database")
	_ = cmd.MarkFlagRequired("bakes")
	return cmd
}

func recordRun(cmd *cobra.Command, dbPath string, started, finished time.Time, source, dest, mode string, report *export.Report, mergeErr error) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := &history.Run{
		StartedAt:  started,
		FinishedAt: finished,
		SourcePath: source,
		DestPath:   dest,
		Mode:       mode,
	}
	if report != nil {
		run.ItemsKept = len(report.KeptItems)
		run.ItemsRemoved = len(report.RemovedItems)
		run.ItemsAdded = len(report.AddedItems)
		run.ImagesKept = len(report.KeptImages)
		run.ImagesRemoved = len(report.RemovedImages)
		run.ImagesAdded = len(report.AddedImages)
		run.Digest = hex.EncodeToString(report.Digest)
	}
	if mergeErr != nil {
		run.ErrorMessage = mergeErr.Error()
	}
	return store.RecordRun(cmd.Context(), run)
}
