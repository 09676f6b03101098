package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/allgemeinbildung/abubox/internal/config"
	"github.com/allgemeinbildung/abubox/internal/export"
	"github.com/allgemeinbildung/abubox/internal/print"
)

// writeDocument writes doc to out, to stdout for "-", or to doc.Filename when out is empty.
func writeDocument(cmd *cobra.Command, doc export.Document, out string) error {
	if out == "-" {
		_, err := cmd.OutOrStdout().Write(doc.Data)
		return err
	}
	if out == "" {
		out = doc.Filename
	}
	if err := os.WriteFile(out, doc.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exportiert: %s\n", out)
	return nil
}

func newExportCmd(a *app) *cobra.Command {
	var sourceURL, out string

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export one saved draft as a text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.openPage(args[0], newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr(), true))
			if err != nil {
				return err
			}
			defer p.Close()

			if sourceURL != "" {
				p.SetSourceURL(sourceURL)
			}
			doc, err := p.ExportText()
			if err != nil {
				return err
			}
			return writeDocument(cmd, doc, out)
		},
	}
	cmd.Flags().StringVar(&sourceURL, "url", "", "page address written into the file")
	cmd.Flags().StringVarP(&out, "out", "o", "", `output file, "-" for stdout (default: derived from the id)`)
	return cmd
}

func newExportAllCmd(a *app) *cobra.Command {
	var formatName, out string

	cmd := &cobra.Command{
		Use:   "export-all",
		Short: "Export every saved draft into one file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			p, err := a.openPage("", newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr(), true))
			if err != nil {
				return err
			}
			defer p.Close()

			doc, err := p.ExportAll(format)
			if err != nil {
				return err
			}
			return writeDocument(cmd, doc, out)
		},
	}
	cmd.Flags().StringVar(&formatName, "format", "text", "text or html")
	cmd.Flags().StringVarP(&out, "out", "o", "", `output file, "-" for stdout`)
	return cmd
}

func newCopyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy ID",
		Short: "Copy a saved draft to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.openPage(args[0], newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr(), true))
			if err != nil {
				return err
			}
			defer p.Close()

			text, err := p.CopyBoth()
			if err != nil || text == "" {
				return err
			}
			if w, ok := a.copier.(interface{ Wait() }); ok {
				w.Wait()
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.MsgCopied)
			return nil
		},
	}
}

func newPrintCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "print [ID]",
		Short: "Print a saved draft, or all of them, to PDF",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.MaximumNArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			p, err := a.openPage(id, newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr(), true))
			if err != nil {
				return err
			}
			defer p.Close()

			var res print.Result
			if all {
				res, err = p.PrintAll(cmd.Context())
			} else {
				res, err = p.PrintCurrent(cmd.Context())
			}
			if err != nil {
				return err
			}
			return reportPrint(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print every saved draft")
	return cmd
}

func reportPrint(w io.Writer, res print.Result) error {
	target := res.Path
	if target == "" {
		target = res.Filename
	}
	_, err := fmt.Fprintf(w, "Gedruckt: %s (%s)\n", target, res.JobID)
	return err
}
