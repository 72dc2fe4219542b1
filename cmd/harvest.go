package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"retroriff/services"
	"retroriff/types"
)

func newHarvestCommand(ctx *commandContext) *cobra.Command {
	var criteria types.SearchCriteria
	var archivePath string

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Harvest riffs in the terminal",
		Example: `  retroriff harvest --artists "Queen"
  retroriff harvest --genre "classic rock" --year 1975 --archive riffs.zip`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := criteria.Validate(); err != nil {
				return err
			}

			harvester, err := newHarvester(cmd.Context(), cfg, ctx.logger)
			if err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			progress := newStageReporter(stderr)
			sim := services.StartProgressSimulator(cfg.ProgressInterval(), progress.report)
			result, err := harvester.ProcessQuery(cmd.Context(), criteria)
			sim.Stop()
			if err != nil {
				progress.abort()
				ctx.logger.Error("Harvest failed", zap.Error(err))
				return fmt.Errorf("%s: %w", services.HarvestFailedMessage, err)
			}
			progress.report(services.ReadyStage)
			progress.finish()

			size := services.EstimateDecodedSize(result.Songs)
			packaging := services.ChoosePackaging(size, cfg.Harvest.ZipThresholdBytes)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Search: %s (%s)\n", result.AIResult.SearchQuery, result.AIResult.Source)
			fmt.Fprintln(out, renderSongs(result.Songs))
			fmt.Fprintf(out, "Total size: %s, offered as %s\n", humanize.IBytes(uint64(size)), packaging)

			if archivePath != "" {
				entries, err := writeArchiveFile(archivePath, result.Songs)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %d songs to %s\n", entries, archivePath)
			} else if packaging == types.PackagingArchive {
				fmt.Fprintf(out, "Use --archive %s to save the zip\n", services.ArchiveFileName(time.Now()))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&criteria.Artists, "artists", "", "Artists to search for")
	cmd.Flags().StringVar(&criteria.Genre, "genre", "", "Genre to search for")
	cmd.Flags().StringVar(&criteria.Year, "year", "", "Year to search for")
	cmd.Flags().StringVar(&archivePath, "archive", "", "Write the harvested songs to this zip file")

	return cmd
}

func renderSongs(songs []types.Song) string {
	rows := make([][]string, 0, len(songs))
	for _, song := range songs {
		size := "failed"
		if song.FileContent != "" {
			size = humanize.IBytes(uint64(services.EstimateDecodedSize([]types.Song{song})))
		}
		rows = append(rows, []string{
			strconv.Itoa(song.ID),
			song.Title,
			song.Artist,
			strconv.Itoa(song.Popularity),
			size,
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Artist", "Popularity", "Size"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
	)
}

func writeArchiveFile(path string, songs []types.Song) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create archive: %w", err)
	}
	entries, err := services.WriteArchive(file, songs)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("write archive: %w", err)
	}
	return entries, nil
}

// stageReporter shows simulator stages as a progress bar on terminals and as
// plain lines otherwise.
type stageReporter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newStageReporter(w io.Writer) *stageReporter {
	r := &stageReporter{w: w}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		r.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	return r
}

func (r *stageReporter) report(stage services.ProgressStage) {
	if r.bar == nil {
		fmt.Fprintf(r.w, "[%3d%%] %s\n", stage.Percent, stage.Text)
		return
	}
	r.bar.Describe(stage.Text)
	_ = r.bar.Set(stage.Percent)
}

func (r *stageReporter) finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

func (r *stageReporter) abort() {
	if r.bar != nil {
		_ = r.bar.Clear()
		fmt.Fprintln(r.w)
	}
}
