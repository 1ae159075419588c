package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pathway/internal/progress"
)

// exportVersion is bumped when the export document changes shape.
const exportVersion = 1

// ExportDocument is the portable form of one user's completion history.
type ExportDocument struct {
	Version int                         `json:"version"`
	UserID  string                      `json:"user_id"`
	Records []progress.CompletionRecord `json:"records"`
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	UserOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{UserOptions: UserOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's completion history as JSON",
		Long: `Write every completion record of a user as a JSON document.

The document is written to stdout unless --output is given; --format does
not apply to it.

Examples:
  pathway export --user u-42 > u-42.json
  pathway export --user u-42 --output u-42.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				records, err := a.svc.Export(cmd.Context(), opts.UserID)
				if err != nil {
					return out.Fail(ErrCodeDatabase, err)
				}
				doc := ExportDocument{Version: exportVersion, UserID: opts.UserID, Records: records}

				w := cmd.OutOrStdout()
				if opts.Output != "" {
					f, err := os.Create(opts.Output)
					if err != nil {
						return out.Fail(ErrCodeInput, err)
					}
					defer f.Close()
					w = f
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(doc); err != nil {
					return out.Fail(ErrCodeInput, err)
				}
				out.VerboseLog("exported %d record(s)", len(records))
				return nil
			})
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an exported completion history",
		Long: `Append the records of an export document to the ledger.

Records already present for the same (user, sequence, item) are left
unchanged, so importing the same file twice is harmless. Use "-" to read
from stdin.

Examples:
  pathway import u-42.json
  pathway export --user u-42 | pathway import - --config other.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			doc, err := readExport(cmd.InOrStdin(), args[0])
			if err != nil {
				return out.Fail(ErrCodeInput, err)
			}
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				res, err := a.svc.Import(cmd.Context(), doc.UserID, doc.Records)
				if err != nil {
					return out.Fail(ErrCodeDatabase, err)
				}
				return out.Success(res, fmt.Sprintf("✓ Imported %d record(s), %d already present", res.Inserted, res.Existing))
			})
		},
	}

	return cmd
}

func readExport(stdin io.Reader, path string) (ExportDocument, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return ExportDocument{}, err
		}
		defer f.Close()
		r = f
	}

	var doc ExportDocument
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return ExportDocument{}, fmt.Errorf("decode export: %w", err)
	}
	if doc.Version != exportVersion {
		return ExportDocument{}, fmt.Errorf("unsupported export version %d (want %d)", doc.Version, exportVersion)
	}
	return doc, nil
}
