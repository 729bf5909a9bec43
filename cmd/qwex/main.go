// Command qwex compiles declarative build modules into a single shell
// script. Grounded on cmd/turbo/main.go's entrypoint shape, stripped of the
// CGO FFI surface turbo exposes for its Rust launcher shim -- qwex has no
// analogous native caller.
package main

import (
	"os"

	"github.com/qwexsh/qwex/internal/cmd"
)

const version = "0.1.0"

func main() {
	os.Exit(cmd.RunWithArgs(os.Args[1:], version))
}
