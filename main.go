package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"tinytable/pkg/repl"
	"tinytable/pkg/storage/table"
	"tinytable/pkg/ui"
)

type Configuration struct {
	Filename string
	Debug    bool
	TUI      bool
}

func main() {
	config := parseArguments()

	tbl, err := table.Open(config.Filename)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	if config.TUI {
		if err := runInteractiveMode(tbl); err != nil {
			log.Fatalf("Failed to run UI: %v", err)
		}
		return
	}

	r := repl.New(tbl, os.Stdin, os.Stdout, config.Debug)
	if err := r.Run(); err != nil {
		log.Fatalf("%v", err)
	}
}

// parseArguments reads the positional database filename and the trailing
// flags; flags come after the filename, as in `db mydata.db --debug`.
func parseArguments() Configuration {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: db <db_filename> [--debug|-d] [--tui]")
		os.Exit(1)
	}

	config := Configuration{Filename: os.Args[1]}

	for _, arg := range os.Args[2:] {
		switch arg {
		case "--debug", "-d":
			config.Debug = true
			fmt.Println("Debug mode enabled.")
		case "--tui":
			config.TUI = true
		default:
			fmt.Fprintf(os.Stderr, "Unknown argument: %s\n", arg)
		}
	}

	return config
}

// runInteractiveMode launches the Bubble Tea UI; the model closes the table
// on quit.
func runInteractiveMode(tbl *table.Table) error {
	p := tea.NewProgram(ui.NewModel(tbl), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %v", err)
	}
	return nil
}
