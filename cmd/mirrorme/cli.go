package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
)

// Options is the root command that groups sub-commands. The struct tags are
// interpreted by github.com/jessevdk/go-flags.
type Options struct {
	Version bool `short:"v" long:"version" description:"print version and exit"`

	Serve *ServeCmd `command:"serve" description:"Start the backend and the paid tool server"`
	Mcp   *McpCmd   `command:"mcp" description:"Start only the paid tool server"`
}

// Init instantiates the sub-command referenced by the first argument so that
// flags.Parse can populate its fields.
func (o *Options) Init(firstArg string) {
	switch firstArg {
	case "serve":
		o.Serve = &ServeCmd{}
	case "mcp":
		o.Mcp = &McpCmd{}
	}
}

// Run parses flags and executes the selected command.
func Run(args []string) {
	opts := &Options{}
	var first string
	if len(args) > 0 {
		first = args[0]
	}
	opts.Init(first)

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		log.Fatalf("%v", err)
	}

	if opts.Version {
		fmt.Println(Version())
		os.Exit(0)
	}
}
