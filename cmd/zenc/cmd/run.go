package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runVerbose bool

var runCmd = &cobra.Command{
	Use:   "run <input>",
	Short: "Compile and immediately execute a zen source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "print per-stage statistics to stderr")
}

func runRun(_ *cobra.Command, args []string) error {
	filename := args[0]
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zenc: %v\n", err)
		os.Exit(2)
	}

	binPath := os.TempDir() + "/zen_run_" + strconv.Itoa(os.Getpid())
	defer os.Remove(binPath)

	if err := buildExecutable(string(source), filename, binPath, runVerbose); err != nil {
		if df, ok := err.(*diagnosticFailure); ok {
			printFailure(df.stage, df.diags, string(source))
			return fmt.Errorf("compilation failed at %s", df.stage)
		}
		fmt.Fprintf(os.Stderr, "zenc: %v\n", err)
		os.Exit(2)
	}

	exitCode, err := runBinary(binPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zenc: %v\n", err)
		os.Exit(2)
	}
	os.Exit(exitCode)
	return nil
}

// runBinary starts binPath and concurrently forwards its stdout/stderr to
// the parent's, returning once the child exits.
func runBinary(binPath string) (int, error) {
	child := exec.Command(binPath)

	stdout, err := child.StdoutPipe()
	if err != nil {
		return 0, err
	}
	stderr, err := child.StderrPipe()
	if err != nil {
		return 0, err
	}

	if err := child.Start(); err != nil {
		return 0, err
	}

	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(os.Stdout, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(os.Stderr, stderr)
		return err
	})

	copyErr := g.Wait()
	waitErr := child.Wait()

	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	if waitErr != nil {
		return 0, waitErr
	}
	if copyErr != nil {
		return 0, copyErr
	}
	return 0, nil
}
