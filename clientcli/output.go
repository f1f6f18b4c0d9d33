package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// Formatter renders client results for the terminal.
type Formatter interface {
	PublishResult(w io.Writer, r *PublishResult) error
	Versions(w io.Writer, project string, versions []VersionInfo) error
	Message(w io.Writer, msg string) error
}

// NewFormatter returns a JSON formatter when jsonOutput is true, otherwise a
// human-readable one.
func NewFormatter(jsonOutput bool) Formatter {
	if jsonOutput {
		return &jsonFormatter{}
	}
	return &humanFormatter{}
}

type humanFormatter struct{}

func (f *humanFormatter) PublishResult(w io.Writer, r *PublishResult) error {
	target := r.Project
	if r.Version != "" {
		target += "/" + r.Version
	}
	_, err := fmt.Fprintf(w, "published %s (%d bytes) to %s\n", r.ArchivePath, r.Size, target)
	return err
}

func (f *humanFormatter) Versions(w io.Writer, project string, versions []VersionInfo) error {
	if len(versions) == 0 {
		_, err := fmt.Fprintf(w, "no versions for %s\n", project)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSIZE\tUPLOADED")
	for _, v := range versions {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", v.Version, v.Size, v.Uploaded.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func (f *humanFormatter) Message(w io.Writer, msg string) error {
	_, err := fmt.Fprintln(w, msg)
	return err
}

type jsonFormatter struct{}

func (f *jsonFormatter) PublishResult(w io.Writer, r *PublishResult) error {
	return writeJSON(w, r)
}

func (f *jsonFormatter) Versions(w io.Writer, project string, versions []VersionInfo) error {
	return writeJSON(w, map[string]any{
		"project":  project,
		"versions": versions,
	})
}

func (f *jsonFormatter) Message(w io.Writer, msg string) error {
	return writeJSON(w, map[string]string{"message": msg})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
