package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zenlang/zenc/internal/core"
	"github.com/zenlang/zenc/internal/diag"
)

var (
	compileOutput  string
	compileVerbose bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <input>",
	Short: "Compile a zen source file to a native executable",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output path (default: <input> without its extension)")
	compileCmd.Flags().BoolVarP(&compileVerbose, "verbose", "v", false, "print per-stage statistics to stderr")
}

func runCompile(_ *cobra.Command, args []string) error {
	filename := args[0]
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zenc: %v\n", err)
		os.Exit(2)
	}

	out := compileOutput
	if out == "" {
		out = defaultOutputPath(filename)
	}

	if err := buildExecutable(string(source), filename, out, compileVerbose); err != nil {
		if df, ok := err.(*diagnosticFailure); ok {
			printFailure(df.stage, df.diags, string(source))
			return fmt.Errorf("compilation failed at %s", df.stage)
		}
		fmt.Fprintf(os.Stderr, "zenc: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("%s -> %s\n", filename, out)
	return nil
}

func defaultOutputPath(filename string) string {
	ext := filepathExt(filename)
	if ext == "" {
		return filename + ".out"
	}
	return filename[:len(filename)-len(ext)]
}

func filepathExt(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

// diagnosticFailure distinguishes "the program has errors" (exit code 1)
// from an I/O or toolchain failure (exit code 2).
type diagnosticFailure struct {
	stage core.Stage
	diags []diag.Diagnostic
}

func (d *diagnosticFailure) Error() string { return "compilation produced diagnostics" }

// buildExecutable runs the full pipeline over source and, on success,
// drives llc and the system linker to turn the resulting LLIR into a
// native binary at outPath. Both temp files are removed unconditionally.
func buildExecutable(source, filename, outPath string, verbose bool) error {
	res := core.Compile(source)
	if res.Failed != "" {
		return &diagnosticFailure{stage: res.Failed, diags: res.Diagnostics}
	}

	if len(res.Diagnostics) > 0 {
		printWarnings(res.Diagnostics, source)
	}

	pid := strconv.Itoa(os.Getpid())
	llPath := os.TempDir() + "/zen_temp_" + pid + ".ll"
	objPath := os.TempDir() + "/zen_temp_" + pid + ".o"
	defer os.Remove(llPath)
	defer os.Remove(objPath)

	if err := os.WriteFile(llPath, []byte(res.LLIR), 0o644); err != nil {
		return fmt.Errorf("writing LLIR: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "tokens: %d, LLIR bytes: %d\n", len(res.Tokens), len(res.LLIR))
	}

	llc := exec.Command("llc", "-filetype=obj", "-o", objPath, llPath)
	if out, err := llc.CombinedOutput(); err != nil {
		return fmt.Errorf("llc: %w: %s", err, out)
	}

	gcc := exec.Command("gcc", "-no-pie", objPath, "-o", outPath, "-lc")
	if out, err := gcc.CombinedOutput(); err != nil {
		return fmt.Errorf("gcc: %w: %s", err, out)
	}

	return nil
}

func printFailure(stage core.Stage, diags []diag.Diagnostic, source string) {
	fmt.Fprintf(os.Stderr, "zenc: %s failed\n", stage)
	errColor.Fprint(os.Stderr, diag.Format(diags, source))
}

func printWarnings(diags []diag.Diagnostic, source string) {
	var warnings []diag.Diagnostic
	for _, d := range diags {
		if d.Severity == diag.Warning {
			warnings = append(warnings, d)
		}
	}
	if len(warnings) == 0 {
		return
	}
	warnColor.Fprint(os.Stderr, diag.Format(warnings, source))
}
