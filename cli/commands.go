// Package cli implements the signature-engine subcommands.
package cli

import (
	"fmt"
	"os"
)

var osExit = os.Exit

func Usage() {
	fmt.Printf("Usage: %s <command> [options] <args>\n\n", os.Args[0])
	fmt.Println("Commands:")
	fmt.Println("  serve   Run the HTTP stamping service")
	fmt.Println("  stamp   Stamp fields onto a PDF file")
	fmt.Println("  coords  Convert a screen rectangle to PDF coordinates")
	fmt.Println("")
	fmt.Printf("Use '%s <command> -h' for command-specific help\n", os.Args[0])
	osExit(1)
}

// Main dispatches args, without the program name, to a subcommand.
func Main(args []string) {
	if len(args) < 1 {
		Usage()
		return
	}

	switch args[0] {
	case "serve":
		ServeCommand(args[1:])
	case "stamp":
		StampCommand(args[1:])
	case "coords":
		CoordsCommand(args[1:])
	case "-h", "--help", "help":
		Usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		Usage()
	}
}
