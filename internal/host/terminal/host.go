// Package terminal runs the plugin from a command line.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/Fatebook/internal/browser"
	"github.com/Alias1177/Fatebook/internal/plugin"
	"github.com/Alias1177/Fatebook/models"
)

// SettingsStore persists the plugin settings between runs.
type SettingsStore interface {
	Load(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, settings models.Settings) error
}

// Short cobra aliases for plugin command IDs.
var aliases = map[string][]string{
	"create-fatebook-prediction": {"create", "predict"},
	"set-fatebook-api-key":       {"set-key"},
}

// Options configures a Host.
type Options struct {
	In          io.Reader
	Out         io.Writer // link and preview output
	Err         io.Writer // notices, prompts and the clipboard escape sequence
	Interactive bool      // prompt for fields not given with --field
	EnvAPIKey   string    // used when the settings file holds no key
	OpenBrowser bool
}

// Host implements models.Host on top of a cobra command tree.
type Host struct {
	root   *cobra.Command
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	opts   Options
	store  SettingsStore
	preset models.FormInput
	inDone bool // stdin reached EOF
	logger zerolog.Logger

	// clipboard is replaced in tests
	clipboard func(text string) error
}

// New attaches a Host to root. Commands registered later become subcommands.
func New(root *cobra.Command, opts Options) *Host {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	h := &Host{
		root:   root,
		in:     bufio.NewReader(opts.In),
		out:    opts.Out,
		errOut: opts.Err,
		opts:   opts,
		logger: log.With().Str("component", "terminal_host").Logger(),
	}
	h.clipboard = h.writeOSC52
	return h
}

// UseStore sets where settings are loaded from and saved to.
func (h *Host) UseStore(store SettingsStore) {
	h.store = store
}

// SetOpenBrowser toggles opening previews in the system browser.
func (h *Host) SetOpenBrowser(open bool) {
	h.opts.OpenBrowser = open
}

// RegisterCommand adds cmd as a subcommand. --field key=value pre-fills its form.
func (h *Host) RegisterCommand(cmd models.Command) {
	var fields []string
	sub := &cobra.Command{
		Use:     cmd.ID,
		Aliases: aliases[cmd.ID],
		Short:   cmd.Name,
		Long:    cmd.Description,
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			preset, err := parseFields(fields)
			if err != nil {
				return err
			}
			h.preset = preset
			defer func() { h.preset = nil }()
			return cmd.Run(c.Context(), h)
		},
	}
	sub.Flags().StringArrayVar(&fields, "field", nil, "form field value as key=value (repeatable)")
	h.root.AddCommand(sub)
}

// parseFields splits each key=value on the first "="; later keys win.
func parseFields(fields []string) (models.FormInput, error) {
	input := make(models.FormInput, len(fields))
	for _, field := range fields {
		key, value, ok := strings.Cut(field, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("--field %q must be formatted as key=value", field)
		}
		input[strings.TrimSpace(key)] = value
	}
	return input, nil
}

func (h *Host) ShowNotice(_ context.Context, message string) {
	fmt.Fprintln(h.errOut, message)
}

func (h *Host) LoadSettings(ctx context.Context) (models.Settings, error) {
	if h.store == nil {
		return models.Settings{}, errors.New("no settings store configured")
	}
	settings, err := h.store.Load(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	if !settings.Configured() && h.opts.EnvAPIKey != "" {
		settings.APIKey = h.opts.EnvAPIKey
	}
	return settings, nil
}

func (h *Host) SaveSettings(ctx context.Context, settings models.Settings) error {
	if h.store == nil {
		return errors.New("no settings store configured")
	}
	return h.store.Save(ctx, settings)
}

// RenderForm takes values from --field first, then prompts when interactive,
// then falls back to field defaults. Interactive sessions are asked again for
// any field form.Check rejects until stdin runs out.
func (h *Host) RenderForm(ctx context.Context, form models.Form) (models.FormInput, error) {
	input := make(models.FormInput, len(form.Fields))
	announced := false

	for _, field := range form.Fields {
		if value, ok := h.preset[field.Key]; ok {
			input[field.Key] = value
			continue
		}

		if !h.opts.Interactive {
			if field.Default == "" && !field.Optional {
				return nil, fmt.Errorf("missing --field %s=<%s>", field.Key, strings.ToLower(field.Label))
			}
			input[field.Key] = field.Default
			continue
		}

		if !announced {
			fmt.Fprintln(h.errOut, form.Title)
			announced = true
		}
		value, err := h.prompt(ctx, field)
		if err != nil {
			return nil, err
		}
		input[field.Key] = value
	}

	for h.opts.Interactive && !h.inDone && form.Check != nil {
		err := form.Check(input)
		field, ok := form.FailedField(err)
		if !ok {
			break
		}
		fmt.Fprintln(h.errOut, plugin.Notice(err))
		value, err := h.prompt(ctx, field)
		if err != nil {
			return nil, err
		}
		input[field.Key] = value
	}
	return input, nil
}

func (h *Host) prompt(ctx context.Context, field models.FormField) (string, error) {
	label := field.Label
	switch {
	case field.Default != "":
		label += " [" + field.Default + "]"
	case field.Placeholder != "":
		label += " (" + field.Placeholder + ")"
	}
	fmt.Fprintf(h.errOut, "%s: ", label)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := h.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading %s: %w", field.Key, err)
	}
	if err != nil {
		h.inDone = true
		if line == "" && field.Default == "" && !field.Optional {
			return "", fmt.Errorf("reading %s: %w", field.Key, io.ErrUnexpectedEOF)
		}
	}

	value := strings.TrimRight(line, "\r\n")
	if value == "" {
		value = field.Default
	}
	return value, nil
}

// WriteClipboard copies text via the OSC 52 terminal escape and prints it on stdout.
func (h *Host) WriteClipboard(_ context.Context, text string) error {
	if err := h.clipboard(text); err != nil {
		return err
	}
	fmt.Fprintln(h.out, text)
	return nil
}

func (h *Host) writeOSC52(text string) error {
	seq := osc52.New(text)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	} else if strings.HasPrefix(os.Getenv("TERM"), "screen") {
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(h.errOut)
	return err
}

// ShowEmbed prints the preview address and an iframe snippet.
func (h *Host) ShowEmbed(_ context.Context, embed models.Embed) error {
	fmt.Fprintf(h.out, "%s\n%s\n", embed.URL, embed.HTML())
	if h.opts.OpenBrowser {
		if err := browser.Open(embed.URL); err != nil {
			return fmt.Errorf("opening browser: %w", err)
		}
	}
	return nil
}
