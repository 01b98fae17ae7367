// Package cli contains flag parsing and logging glue shared by yamake's
// command-line entry point.
package cli

import (
	"fmt"
	"os"
	"path"
	"strings"

	flags "github.com/thought-machine/go-flags"
)

// ParseFlags parses data's flags out of args, returning the parser, any
// non-flag arguments, and any error (including --help, which is not
// otherwise special-cased here).
func ParseFlags(appName string, data interface{}, args []string) (*flags.Parser, []string, error) {
	parser := flags.NewNamedParser(path.Base(args[0]), flags.HelpFlag|flags.PassDoubleDash)
	parser.AddGroup(appName+" options", "", data)
	extraArgs, err := parser.ParseArgs(args[1:])
	return parser, extraArgs, err
}

// ParseFlagsOrDie parses os.Args into data, printing usage and exiting on
// --help, --version, or a parse error.
func ParseFlagsOrDie(appName, version string, data interface{}) []string {
	parser, extraArgs, err := ParseFlags(appName, data, os.Args)
	if err == nil {
		return extraArgs
	}
	if flagsErr, ok := err.(*flags.Error); ok {
		if flagsErr.Type == flags.ErrHelp {
			fmt.Printf("%s\n", err)
			os.Exit(0)
		}
		if flagsErr.Type == flags.ErrUnknownFlag && strings.Contains(flagsErr.Message, "`version'") {
			fmt.Printf("%s version %s\n", appName, version)
			os.Exit(0)
		}
	}
	parser.WriteHelp(os.Stderr)
	fmt.Fprintf(os.Stderr, "\n%s\n", err)
	os.Exit(1)
	return nil
}
