// Command zenc is the zen language compiler's CLI front end.
package main

import (
	"os"

	"github.com/zenlang/zenc/cmd/zenc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
