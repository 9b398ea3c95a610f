package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/open-edge-platform/rpmdeps-verifier/internal/build"
	"github.com/open-edge-platform/rpmdeps-verifier/internal/utils/logger"
	"github.com/open-edge-platform/rpmdeps-verifier/internal/verify"
)

// Output format command flags
var (
	beforeInput string
	rebaseFlag  bool
	outFormat   string
	outMode     string
	outFile     string
	prettyJSON  = true
)

// createVerifyCommand creates the verify subcommand
func createVerifyCommand() *cobra.Command {
	verifyCmd := &cobra.Command{
		Use:   "verify [flags] AFTER",
		Short: "Verify the dependency metadata of a build",
		Long: `Verify runs all dependency consistency checks over a build. AFTER
is either a directory of rpm files or a YAML build manifest. When a
prior build is given with --before (or inline in the manifest), the
before/after dependency diff runs as well.`,
		Args: cobra.ExactArgs(1),
		RunE: executeVerify,
	}

	verifyCmd.Flags().StringVar(&beforeInput, "before", "",
		"Directory of rpm files from the prior build")
	verifyCmd.Flags().BoolVar(&rebaseFlag, "rebase", false,
		"Treat the build transition as a rebase (overrides detection)")
	addOutputFlags(verifyCmd.Flags())
	return verifyCmd
}

// addOutputFlags registers the report output flags shared by the verify
// and rules subcommands.
func addOutputFlags(fs *pflag.FlagSet) {
	fs.StringVar(&outFormat, "format", "text",
		"Output format: text or json")
	fs.StringVar(&outMode, "mode", "",
		"Text output mode: full, problems, or summary (default: problems)")
	fs.StringVarP(&outFile, "output", "o", "",
		"Write the report to a file instead of stdout (.gz/.zst compresses)")
	fs.BoolVar(&prettyJSON, "pretty", true,
		"Pretty-print JSON output (only for --format json)")
}

// executeVerify handles the verify command execution logic
func executeVerify(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	b, err := loadBuild(args[0], beforeInput)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("rebase") {
		b.Rebase = rebaseFlag
	}

	log.Infof("verifying %d subpackages (rebase=%v, prior build=%v)",
		len(b.Subpackages), b.Rebase, b.HasBefore())

	report, ok := verify.Run(b)

	out, closeOut, err := openOutput(cmd)
	if err != nil {
		return err
	}

	var renderErr error
	switch strings.ToLower(outFormat) {
	case "json":
		renderErr = writeJSON(out, report, prettyJSON)
	case "text":
		renderErr = verify.RenderText(out, report, verify.RenderTextOptions{Mode: outMode})
	default:
		renderErr = fmt.Errorf("invalid --format %q (expected text|json)", outFormat)
	}
	if cerr := closeOut(); renderErr == nil {
		renderErr = cerr
	}
	if renderErr != nil {
		return renderErr
	}

	if !ok {
		return fmt.Errorf("verification failed")
	}
	return nil
}

// loadBuild assembles the verification input from either rpm
// directories or a YAML manifest.
func loadBuild(after, before string) (*build.Build, error) {
	info, err := os.Stat(after)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", after, err)
	}

	if info.IsDir() {
		return build.LoadBuildFromDirs(after, before)
	}

	if before != "" {
		return nil, fmt.Errorf("--before applies to rpm directories; put the prior build in the manifest instead")
	}

	m, err := build.LoadManifest(after)
	if err != nil {
		return nil, err
	}
	return m.Build()
}

// openOutput resolves the report destination: stdout, a plain file, or
// a compressed file selected by suffix. The returned close function
// flushes the compressor and reports write errors, so callers must
// check it before declaring the report written.
func openOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	if outFile == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", outFile, err)
	}

	closeFile := func(werr error) error {
		cerr := f.Close()
		if werr != nil {
			return fmt.Errorf("writing %s: %w", outFile, werr)
		}
		if cerr != nil {
			return fmt.Errorf("closing %s: %w", outFile, cerr)
		}
		return nil
	}

	switch {
	case strings.HasSuffix(outFile, ".gz"):
		gz := gzip.NewWriter(f)
		return gz, func() error { return closeFile(gz.Close()) }, nil
	case strings.HasSuffix(outFile, ".zst"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("zstd writer: %w", err)
		}
		return zw, func() error { return closeFile(zw.Close()) }, nil
	}

	return f, func() error { return closeFile(nil) }, nil
}

func writeJSON(out io.Writer, v any, pretty bool) error {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, _ = fmt.Fprintln(out, string(b))
	return nil
}
