// Command cilview disassembles, lists, graphs and re-emits the CIL method
// bodies described by a YAML manifest.
package main

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fatal(err)
	}
}
