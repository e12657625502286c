package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/Alias1177/Fatebook/internal/host/terminal"
	"github.com/Alias1177/Fatebook/internal/links"
	"github.com/Alias1177/Fatebook/internal/plugin"
)

func runPreview(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := &cobra.Command{Use: "fatebook", SilenceUsage: true, SilenceErrors: true}
	host := terminal.New(root, terminal.Options{In: strings.NewReader(""), Out: &out, Err: io.Discard})
	root.AddCommand(newPreviewCmd(plugin.New(nil), host))

	root.SetArgs(append([]string{"preview"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

const previewLine = "See [Rain](https://fatebook.io/q/will-it-rain--abc) and [Snow](https://fatebook.io/q/will-it-snow--def)"

func TestPreviewCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantIDs []string
		wantErr error
	}{
		{name: "all links", args: []string{previewLine}, wantIDs: []string{"abc", "def"}},
		{name: "offset on second link", args: []string{previewLine, "--offset", "60"}, wantIDs: []string{"def"}},
		{name: "offset outside links", args: []string{previewLine, "--offset", "1"}, wantErr: errNoLink},
		{name: "href", args: []string{"--href", "https://fatebook.io/q/will-it-rain--abc"}, wantIDs: []string{"abc"}},
		{name: "href wins over text", args: []string{previewLine, "--offset", "60", "--href", "https://fatebook.io/q/x--zzz"}, wantIDs: []string{"zzz"}},
		{name: "foreign href", args: []string{"--href", "https://example.com/q/x--abc"}, wantErr: errNoLink},
		{name: "no links", args: []string{"nothing here"}, wantErr: errNoLink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runPreview(t, tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			for _, id := range tt.wantIDs {
				if !strings.Contains(out, links.EmbedURL(id)) {
					t.Errorf("output missing embed for %s:\n%s", id, out)
				}
			}
			if got := strings.Count(out, "<iframe"); got != len(tt.wantIDs) {
				t.Errorf("embeds shown = %d, want %d", got, len(tt.wantIDs))
			}
		})
	}
}
