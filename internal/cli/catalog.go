package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pathway/internal/catalog"
	"github.com/roach88/pathway/internal/config"
	"github.com/roach88/pathway/internal/progress"
)

// CatalogSummary is the JSON payload of catalog validate.
type CatalogSummary struct {
	Dir       string                        `json:"dir"`
	Sequences []progress.SequenceDefinition `json:"sequences"`
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the sequence catalog",
	}
	cmd.AddCommand(newCatalogValidateCommand(rootOpts))
	return cmd
}

func newCatalogValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dir]",
		Short: "Validate CUE sequence definitions",
		Long: `Load and validate every .cue file in a catalog directory.

Without an argument the directory is catalog.dir from the config file.

Exit codes:
  0 - Catalog is valid
  2 - Catalog or config error

Examples:
  pathway catalog validate ./catalog
  pathway catalog validate --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}

			dir := ""
			if len(args) == 1 {
				dir = args[0]
			} else {
				cfg, err := config.Load(rootOpts.ConfigPath)
				if err != nil {
					return out.Fail(ErrCodeConfig, err)
				}
				dir = cfg.Catalog.Dir
			}

			out.VerboseLog("loading catalog from %s", dir)
			cat, err := catalog.LoadDir(dir)
			if err != nil {
				return out.Fail(ErrCodeCatalog, err)
			}

			seqs := cat.Sequences()
			return out.Success(CatalogSummary{Dir: dir, Sequences: seqs}, formatCatalog(dir, seqs))
		},
	}
}

func formatCatalog(dir string, seqs []progress.SequenceDefinition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %s: %d sequence(s)", dir, len(seqs))
	for _, d := range seqs {
		items := "unbounded"
		if d.Bounded() {
			items = strconv.Itoa(d.TotalItems) + " items"
		}
		fmt.Fprintf(&b, "\n  %-16s %-13s %-10s group=%s", d.ID, d.Kind, items, d.Group())
		if d.Windowed() {
			fmt.Fprintf(&b, " window=%s", d.WindowStart)
		}
		if d.ExcludeFromStreak {
			b.WriteString(" no-streak")
		}
	}
	return b.String()
}
