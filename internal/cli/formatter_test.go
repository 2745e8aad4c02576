package cli_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/filestat/internal/cli"
	"github.com/idelchi/filestat/internal/filestat"
	"github.com/idelchi/filestat/internal/timing"
)

var sample = &filestat.Result{
	Mode:    filestat.ModeThread,
	Workers: 15,
	Stats: filestat.Stats{
		BadFiles:         1,
		Directories:      1,
		RegularFiles:     2,
		RegularFileBytes: 3072,
		TextFiles:        1,
		TextFileBytes:    10,
	},
	Usage: timing.Usage{Wall: 1500 * time.Microsecond, User: time.Millisecond},
}

func TestPrintTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, cli.PrintTable(sample, &buf, false))

	out := buf.String()

	for _, want := range []string{
		"Bad Files:",
		"Regular File Bytes:  3072 (3.0 KiB)",
		"Text File Bytes:     10 (10 B)",
		"thread (15 workers)",
		"1.500 milliseconds",
		cli.Separator,
	} {
		assert.Contains(t, out, want)
	}

	assert.NotContains(t, out, "\x1b[", "no escape sequences without color")
}

func TestPrintJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, cli.PrintJSON(sample, &buf))

	var decoded filestat.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *sample, decoded)
	assert.Contains(t, buf.String(), `"text_file_bytes": 10`)
}
