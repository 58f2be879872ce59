package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/kernel"
	"github.com/bgpsim/bgpsim/pkg/simfmt"
	"github.com/bgpsim/bgpsim/pkg/spec"
)

// Shell provides an interactive REPL over a loaded scenario, letting a
// user step through router state and advertisements without re-invoking
// the CLI for every inspection.
type Shell struct {
	k            *kernel.Kernel
	names        *spec.Names
	res          simfmt.Resolver
	scenarioName string
	currentID    ids.RouterID
	currentName  string // "" = no router selected
	reader       *bufio.Reader
	commands     map[string]func(args []string)
}

// NewShell creates an interactive shell over an already-resolved scenario.
func NewShell(k *kernel.Kernel, names *spec.Names, scenarioName string) *Shell {
	s := &Shell{
		k:            k,
		names:        names,
		scenarioName: scenarioName,
		reader:       bufio.NewReader(os.Stdin),
	}
	s.res = resolverFor(names)
	s.commands = map[string]func(args []string){
		"show":     s.cmdShow,
		"list":     func([]string) { s.cmdList() },
		"router":   s.cmdRouter,
		"exit":     func([]string) { s.cmdExit() },
		"simulate": func([]string) { s.cmdSimulate() },
		"help":     func([]string) { s.cmdHelp() },
		"?":        func([]string) { s.cmdHelp() },
	}
	return s
}

// Run starts the interactive shell loop.
func (s *Shell) Run() error {
	fmt.Printf("Loaded %s.\n", bold(s.scenarioName))
	fmt.Println("Type 'help' for available commands.")

	for {
		fmt.Print(s.prompt())

		line, err := s.reader.ReadString('\n')
		if err != nil { // EOF
			fmt.Println("Disconnecting...")
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		cmd := args[0]

		switch cmd {
		case "quit", "q":
			fmt.Println("Disconnecting...")
			return nil
		default:
			if fn, ok := s.commands[cmd]; ok {
				fn(args[1:])
			} else {
				fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
			}
		}
	}
}

// prompt returns the current prompt string.
func (s *Shell) prompt() string {
	if s.currentName != "" {
		return fmt.Sprintf("%s:%s> ", s.scenarioName, s.currentName)
	}
	return fmt.Sprintf("%s> ", s.scenarioName)
}

// cmdShow displays details for the current context: either a specific
// router's BGP tables, or the whole scenario's forwarding state.
func (s *Shell) cmdShow(args []string) {
	if s.currentName == "" {
		state := s.k.ForwardingState()
		fmt.Print(simfmt.ForwardingState(s.res, state, s.k.Routers(), s.k.KnownPrefixes()))
		return
	}

	r, ok := s.k.Router(s.currentID)
	if !ok {
		fmt.Println("Current router is no longer valid.")
		return
	}
	for _, prefix := range s.k.KnownPrefixes() {
		t := simfmt.BGPTable(s.res, r.RIB(), prefix)
		t.Flush()
	}
}

// cmdList lists the routers and externals in the scenario.
func (s *Shell) cmdList() {
	for _, id := range s.k.Routers() {
		fmt.Printf("  %s (internal, %s)\n", s.res.Name(id), id.String())
	}
	for _, id := range s.k.Externals() {
		fmt.Printf("  %s (external, %s)\n", s.res.Name(id), id.String())
	}
}

// cmdRouter enters router context by name.
func (s *Shell) cmdRouter(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: router <name>")
		return
	}
	name := args[0]
	id, ok := s.names.ID(name)
	if !ok {
		fmt.Printf("Unknown router: %s\n", name)
		return
	}
	s.currentID = id
	s.currentName = name
	fmt.Printf("Entered router context: %s\n", name)
}

// cmdExit returns to scenario scope from router context.
func (s *Shell) cmdExit() {
	if s.currentName == "" {
		fmt.Println("Already at scenario scope. Use 'quit' to disconnect.")
		return
	}
	s.currentName = ""
	s.currentID = 0
}

// cmdSimulate drains the event queue to convergence.
func (s *Shell) cmdSimulate() {
	if err := s.k.Simulate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Converged. %d events remain queued.\n", s.k.QueueLen())
}

// cmdHelp displays available commands.
func (s *Shell) cmdHelp() {
	if s.currentName != "" {
		fmt.Println("Router commands:")
		fmt.Println("  show               Show this router's BGP tables")
		fmt.Println("  exit               Return to scenario scope")
		fmt.Println("  quit               Disconnect")
		fmt.Println("  help               Show this help")
	} else {
		fmt.Println("Scenario commands:")
		fmt.Println("  show               Show forwarding state")
		fmt.Println("  list               List routers and externals")
		fmt.Println("  router <name>      Enter router context")
		fmt.Println("  simulate           Drain the event queue to convergence")
		fmt.Println("  quit               Disconnect")
		fmt.Println("  help               Show this help")
	}
}

// shellCmd is the cobra command for the interactive shell.
var shellCmd = &cobra.Command{
	Use:    "shell <file>",
	Short:  "Interactive shell over a loaded scenario",
	Hidden: true,
	Long: `Start an interactive shell over a resolved scenario.

The shell provides a REPL with:
  - Router context switching (router <name> / exit)
  - Forwarding state and per-router BGP table inspection
  - An explicit simulate command to drain the event queue

Examples:
  bgpsim shell two-router.yaml
  bgpsim -S /path/to/scenarios shell two-router.yaml`,
	Aliases: []string{"sh"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, names, err := loadScenario(args[0])
		if err != nil {
			return err
		}

		sh := NewShell(k, names, args[0])
		return sh.Run()
	},
}
