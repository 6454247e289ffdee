package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Version is set at build time via ldflags
var Version = "dev"

const pidFile = "parsonsd.pid"

// command is one CLI verb. Commands print in table order under their group.
type command struct {
	name    string
	group   string
	usage   string
	summary string
	run     func(args []string) error
}

func noArgs(fn func() error) func([]string) error {
	return func([]string) error { return fn() }
}

var commands = []command{
	{"init", "Setup", "init", "Initialize ~/.parsons (first-time setup)", noArgs(cmdInit)},
	{"doctor", "Setup", "doctor", "Check configuration and connectivity", noArgs(cmdDoctor)},
	{"config", "Setup", "config", "Show current configuration", noArgs(cmdConfig)},
	{"provider", "Setup", "provider [list|set-key <name>|default <name>]", "Manage LLM providers", cmdProvider},

	{"start", "Daemon", "start", "Start parsonsd in the background", noArgs(cmdStart)},
	{"stop", "Daemon", "stop", "Stop parsonsd", noArgs(cmdStop)},
	{"status", "Daemon", "status", "Show daemon status", noArgs(cmdStatus)},
	{"logs", "Daemon", "logs", "Print the end of the daemon log", noArgs(cmdLogs)},

	{"problems", "Problems", "problems list|show <id>|generate <file>|delete <id>", "Manage stored problems (\"-\" reads stdin)", cmdProblems},
	{"validate", "Problems", "validate <id> <file>", "Check an arrangement, one line per block", cmdValidate},
	{"stats", "Problems", "stats <id>", "Show attempt statistics for a problem", cmdStats},

	{"mcp", "Integration", "mcp [--http <addr>]", "Serve the MCP tools (stdio by default)", cmdMCP},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	name, args := os.Args[1], os.Args[2:]
	switch name {
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return
	case "version", "-v", "--version":
		fmt.Printf("parsons %s\n", Version)
		return
	}

	cmd, ok := lookup(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err := cmd.run(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "parsons - tutoring backend for Parsons problems")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: parsons <command> [arguments]")

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	group := ""
	for _, c := range commands {
		if c.group != group {
			group = c.group
			fmt.Fprintf(tw, "\n%s:\n", group)
		}
		fmt.Fprintf(tw, "  %s\t%s\n", c.usage, c.summary)
	}
	fmt.Fprintf(tw, "\nOther:\n  help\tShow this help\n  version\tShow version\n")
	tw.Flush()

	fmt.Fprintln(w, `
Examples:
  parsons provider set-key claude
  parsons problems generate sum.py
  parsons validate calc-sum answer.txt`)
}

// renderProgressBar draws value in [0,1] as a fixed-width bar
func renderProgressBar(value float64, width int) string {
	filled := min(max(int(value*float64(width)), 0), width)
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
