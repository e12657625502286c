package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Alias1177/Fatebook/internal/host/terminal"
	"github.com/Alias1177/Fatebook/internal/plugin"
	"github.com/Alias1177/Fatebook/models"
)

var errNoLink = errors.New("no Fatebook question link found")

func newPreviewCmd(p *plugin.Plugin, host *terminal.Host) *cobra.Command {
	var (
		offset int
		href   string
		open   bool
	)

	cmd := &cobra.Command{
		Use:   "preview [text]",
		Short: "Print the embed address for Fatebook links in a line of text",
		Long: `preview resolves Fatebook question links to their embeddable preview.

With --offset, only the link whose span contains that character offset is used,
as when hovering in an editor. With --href, a rendered link's address is used directly.`,
		Example: `  fatebook preview "See [Will it rain](https://fatebook.io/q/will-it-rain--xyz9) tomorrow" --offset 10
  fatebook preview --href https://fatebook.io/q/will-it-rain--xyz9 --open`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host.SetOpenBrowser(open)
			text := strings.Join(args, " ")

			if href != "" || cmd.Flags().Changed("offset") {
				ev := models.HoverEvent{Text: text, Offset: offset, Href: href}
				shown, err := p.HandleHover(cmd.Context(), host, ev)
				if err != nil {
					return err
				}
				if !shown {
					return errNoLink
				}
				return nil
			}

			shown, err := p.HandleHovers(cmd.Context(), host, plugin.TextHoverEvents(text))
			if err != nil {
				return err
			}
			if shown == 0 {
				return errNoLink
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "character offset of the cursor in text")
	cmd.Flags().StringVar(&href, "href", "", "address of a rendered link")
	cmd.Flags().BoolVar(&open, "open", false, "open the preview in the system browser")
	return cmd
}
