package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allgemeinbildung/abubox/internal/autosave"
	"github.com/allgemeinbildung/abubox/internal/config"
	"github.com/allgemeinbildung/abubox/internal/export"
	"github.com/allgemeinbildung/abubox/internal/listview"
	"github.com/allgemeinbildung/abubox/internal/page"
	"github.com/allgemeinbildung/abubox/internal/render"
)

func newListCmd(a *app) *cobra.Command {
	var exclude string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved drafts, newest assignment first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := listview.New(a.store, a.formatter, exclude, listview.WithLogger(a.logger))
			v.Refresh()
			return v.Render(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&exclude, "exclude", "", "assignment id to leave out")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var (
		raw   bool
		theme string
	)

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print one draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !render.IsSyntaxTheme(theme) {
				return fmt.Errorf("unknown theme %q, choose one of: %s", theme, strings.Join(render.SyntaxThemes(), ", "))
			}

			id := args[0]
			r, found, err := a.store.Load(id)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%s: %q", config.HTTPErrDraftNotFound, id)
			}

			out := cmd.OutOrStdout()
			if !raw {
				_, err := fmt.Fprint(out, a.formatter.RenderSingle(a.formatter.EntryTitle(id), r, export.FormatPlain))
				return err
			}

			schema := a.store.Schema()
			fmt.Fprintf(out, "%s:\n", schema.LabelA)
			if err := render.Terminal(out, r.SlotA, theme); err != nil {
				return err
			}
			if a.cfg.Features.SlotB {
				fmt.Fprintf(out, "\n%s:\n", schema.LabelB)
				if err := render.Terminal(out, r.SlotB, theme); err != nil {
					return err
				}
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the stored markup, highlighted")
	cmd.Flags().StringVar(&theme, "theme", config.TerminalSyntaxTheme, "highlighting theme for --raw")
	return cmd
}

func newSaveCmd(a *app) *cobra.Command {
	var (
		slotA, slotB string
		markdown     bool
	)

	cmd := &cobra.Command{
		Use:   "save ID",
		Short: "Save both slots of a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if markdown {
				slotA = render.MarkdownCached([]byte(slotA), config.DefaultSyntaxTheme)
				slotB = render.MarkdownCached([]byte(slotB), config.DefaultSyntaxTheme)
			}

			saved, err := a.store.Save(args[0], slotA, slotB)
			if err != nil {
				return err
			}
			if !saved {
				fmt.Fprintln(cmd.OutOrStdout(), config.MsgEmptyDraft)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), config.MsgSavedFmt+"\n", a.formatter.EntryTitle(args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&slotA, "a", "", "content of the first slot")
	cmd.Flags().StringVar(&slotB, "b", "", "content of the second slot")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "treat the content as Markdown")
	return cmd
}

// newEditCmd feeds Markdown from stdin into a page line by line, so saves go
// through the autosave debounce like typing in the browser does.
func newEditCmd(a *app) *cobra.Command {
	var slotName string

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit one slot from Markdown on stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompter := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr(), true)
			p, err := a.openPage(args[0], prompter)
			if err != nil {
				return err
			}
			defer p.Close()

			slot, err := page.ParseSlot(slotName, p.Schema())
			if err != nil {
				return err
			}
			if _, err := p.Editor(slot); err != nil {
				return err
			}

			var md strings.Builder
			lines := bufio.NewScanner(cmd.InOrStdin())
			for lines.Scan() {
				md.WriteString(lines.Text())
				md.WriteByte('\n')
				if err := p.Edit(slot, render.Markdown([]byte(md.String()), config.DefaultSyntaxTheme), autosave.OriginUser); err != nil {
					return err
				}
			}
			if err := lines.Err(); err != nil {
				return err
			}

			p.Close()
			if err := p.LastError(); err != nil {
				return err
			}
			if _, _, ok := p.Saved(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), config.MsgSavedFmt+"\n", p.Title())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&slotName, "slot", "a", "slot to edit: a or b")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompter := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), yes)
			v := listview.New(a.store, a.formatter, "", listview.WithPrompter(prompter), listview.WithLogger(a.logger))
			_, err := v.DeleteOne(args[0])
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newBulkDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "bulk-delete ID...",
		Short: "Delete several drafts at once",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompter := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), yes)
			v := listview.New(a.store, a.formatter, "", listview.WithPrompter(prompter), listview.WithLogger(a.logger))
			v.Refresh()

			for _, id := range args {
				v.Select(id, true)
			}
			_, err := v.BulkDelete()
			if errors.Is(err, listview.ErrEmptySelection) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newResetCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompter := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), yes)
			p, err := a.openPage(a.cfg.Page.DefaultAssignment, prompter)
			if err != nil {
				return err
			}
			defer p.Close()

			_, err = p.Reset()
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
