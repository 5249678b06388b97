package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zenlang/zenc/internal/core"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <input>",
	Short: "Lex a zen source file and print its token stream",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	rootCmd.AddCommand(tokenizeCmd)
}

func runTokenize(_ *cobra.Command, args []string) error {
	filename := args[0]
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zenc: %v\n", err)
		os.Exit(2)
	}

	for _, tok := range core.Tokenize(string(source)) {
		fmt.Printf("%s: %q at %s\n", tok.Kind, tok.Lexeme, tok.Pos)
	}
	return nil
}
