package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/idelchi/filestat/internal/filestat"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
	// Separator frames the table output.
	Separator = "************************"
)

// palette colors table labels by kind: failures red, counts green, sizes blue.
type palette struct {
	bad, count, size, timing func(string) string
}

func newPalette(writer io.Writer, color bool) palette {
	if !color {
		plain := func(s string) string { return s }

		return palette{bad: plain, count: plain, size: plain, timing: plain}
	}

	renderer := lipgloss.NewRenderer(writer)
	style := func(ansi string) func(string) string {
		s := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color(ansi))

		return func(text string) string { return s.Render(text) }
	}

	return palette{
		bad:    style("1"),
		count:  style("2"),
		size:   style("4"),
		timing: style("2"),
	}
}

// PrintJSON outputs the result in JSON format.
func PrintJSON(result *filestat.Result, writer io.Writer) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// milliseconds renders d with microsecond precision.
func milliseconds(d time.Duration) string {
	return fmt.Sprintf("%.3f milliseconds", float64(d.Microseconds())/1000)
}

// PrintTable outputs the result in human-readable table format.
// color enables ANSI-colored labels.
func PrintTable(result *filestat.Result, writer io.Writer, color bool) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)
	p := newPalette(writer, color)
	stats := result.Stats

	fmt.Fprintf(w, "\n%s\n", Separator)
	fmt.Fprintf(w, "%s\t%d\n", p.bad("Bad Files:"), stats.BadFiles)
	fmt.Fprintf(w, "%s\t%d\n", p.count("Directories:"), stats.Directories)
	fmt.Fprintf(w, "%s\t%d\n", p.count("Regular Files:"), stats.RegularFiles)
	fmt.Fprintf(w, "%s\t%d\n", p.count("Special Files:"), stats.SpecialFiles)
	fmt.Fprintf(w, "%s\t%d (%s)\n", p.size("Regular File Bytes:"),
		stats.RegularFileBytes, humanize.IBytes(stats.RegularFileBytes))
	fmt.Fprintf(w, "%s\t%d\n", p.count("Text Files:"), stats.TextFiles)
	fmt.Fprintf(w, "%s\t%d (%s)\n", p.size("Text File Bytes:"),
		stats.TextFileBytes, humanize.IBytes(stats.TextFileBytes))

	fmt.Fprintln(w)

	mode := string(result.Mode)
	if result.Mode == filestat.ModeThread {
		mode = fmt.Sprintf("%s (%d workers)", mode, result.Workers)
	}

	fmt.Fprintf(w, "%s\t%s\n", p.timing("Mode:"), mode)
	fmt.Fprintf(w, "%s\t%s\n", p.timing("Elapsed Wall Clock Time:"), milliseconds(result.Usage.Wall))
	fmt.Fprintf(w, "%s\t%s\n", p.timing("CPU (User) Time:"), milliseconds(result.Usage.User))
	fmt.Fprintf(w, "%s\t%s\n", p.timing("CPU (System) Time:"), milliseconds(result.Usage.System))
	fmt.Fprintf(w, "%s\n", Separator)

	return w.Flush()
}
