package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/framecut/framecut/internal/catalog"
	"github.com/framecut/framecut/internal/config"
	"github.com/framecut/framecut/internal/db"
	"github.com/framecut/framecut/internal/logging"
	"github.com/framecut/framecut/internal/probe"
)

// library opens the catalog for the offline commands. Logs go to stderr so
// stdout stays scriptable.
type library struct {
	cfg     *config.EnvConfig
	db      *db.DB
	repo    catalog.Repository
	service *catalog.Service
	logger  *slog.Logger
}

func openLibrary(cmd *cobra.Command) (*library, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.NewLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	repo := catalog.NewRepository(database.Conn())
	prober := probe.NewFFprobe(cfg.FFprobePath(), logger)

	return &library{
		cfg:     cfg,
		db:      database,
		repo:    repo,
		service: catalog.NewService(repo, prober, nil, logger),
		logger:  logger,
	}, nil
}

func (l *library) Close() error {
	return l.db.Close()
}

func newImportCmd() *cobra.Command {
	var queue bool
	cmd := &cobra.Command{
		Use:   "import <path>...",
		Short: "Add video files to the media library",
		Long: "Probes each file and records it in the library. With --queue the files are\n" +
			"handed to the running editor's import queue instead.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			defer lib.Close()
			return importPaths(cmd.Context(), cmd.OutOrStdout(), lib.service, args, queue)
		},
	}
	cmd.Flags().BoolVar(&queue, "queue", false, "Queue import jobs instead of probing now")
	return cmd
}

// importPaths imports every path, reporting per-file results. It fails only
// when no path could be imported.
func importPaths(ctx context.Context, w io.Writer, svc *catalog.Service, paths []string, queue bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	imported := 0
	for _, p := range paths {
		if queue {
			job, err := svc.Import(ctx, p)
			if err != nil {
				fmt.Fprintf(w, "skip   %s: %v\n", p, err)
				continue
			}
			fmt.Fprintf(w, "queued %s (job %s)\n", p, job.ID)
			imported++
			continue
		}

		clip, err := svc.ImportNow(ctx, p)
		if err != nil {
			fmt.Fprintf(w, "skip   %s: %v\n", p, err)
			continue
		}
		size := ""
		if info, err := os.Stat(clip.Path); err == nil {
			size = humanize.Bytes(uint64(info.Size()))
		}
		fmt.Fprintf(w, "added  %s  %s  %.2fs  %s  %s\n", clip.ID, clip.Filename, clip.DurationSeconds, clip.Resolution, size)
		imported++
	}
	if imported == 0 {
		return errors.New("no files imported")
	}
	return nil
}

func newClipsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "clips",
		Short: "List the media library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			defer lib.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			clips, err := lib.service.ListClips(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(clips)
			}
			return writeClipTable(cmd.OutOrStdout(), clips)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func writeClipTable(w io.Writer, clips []*catalog.SourceClip) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tDURATION\tRESOLUTION\tFPS\tADDED")
	for _, c := range clips {
		fmt.Fprintf(tw, "%s\t%s\t%.2fs\t%s\t%.2f\t%s\n",
			c.ID, c.Filename, c.DurationSeconds, c.Resolution, c.FrameRate, humanize.Time(c.CreatedAt))
	}
	return tw.Flush()
}

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <path>",
		Short: "Print what import would record for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			prober := probe.NewFFprobe(cfg.FFprobePath(), logging.NewLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel()))

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			res, err := prober.Probe(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the external tools framecut needs are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			prober := probe.NewFFprobe(cfg.FFprobePath(), nil)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			caps := probe.NewCachedDoctor(prober.Version, nil).Refresh(ctx)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(caps); err != nil {
				return err
			}
			if !caps.FFprobe {
				return errors.New("ffprobe not available; set " + config.EnvFFprobe)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "framecut %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildTime)
		},
	}
}
