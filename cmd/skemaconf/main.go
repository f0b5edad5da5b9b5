package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/mattn/go-isatty"
	"github.com/sergi/go-diff/diffmatchpatch"

	skemaconf "github.com/reoring/skemaconf"
	"github.com/reoring/skemaconf/codec"
)

func main() {
	fs := flag.NewFlagSet("skemaconf", flag.ExitOnError)
	formatName := fs.String("f", "yaml", "config format: yaml or toml")
	showDiff := fs.Bool("diff", false, "show what reconciliation changed instead of the config")
	asJSON := fs.Bool("json", false, "emit the validation diagnostic as JSON on stdout")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "skemaconf loads a configuration file, fills in schema defaults and validates the result.\nA missing config file is created from the schema defaults, descriptions included as comments.\n\nUsage:\n  skemaconf [-f yaml|toml] [-diff] [-json] SCHEMA CONFIG\n\nFlags:")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(2)
	}
	schemaPath, configPath := fs.Arg(0), fs.Arg(1)

	if !isatty.IsTerminal(os.Stderr.Fd()) {
		color.NoColor = true
	}

	format, err := codec.ParseFormat(*formatName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := skemaconf.Open(schemaPath, configPath, skemaconf.WithFormat(format))
	if err != nil {
		fatalf("%v", err)
	}
	if cfg.Bootstrapped() {
		color.New(color.FgCyan).Fprintf(os.Stderr, "created %s from schema defaults\n", configPath)
	}

	if d := cfg.Validate(); d != nil {
		if *asJSON {
			b, jerr := json.MarshalIndent(d, "", "  ")
			if jerr != nil {
				fatalf("encoding diagnostic: %v", jerr)
			}
			fmt.Println(string(b))
		} else {
			color.New(color.FgRed).Fprintf(os.Stderr, "invalid configuration: %v\n", d)
		}
		os.Exit(1)
	}

	rendered, err := cfg.Render()
	if err != nil {
		fatalf("rendering: %v", err)
	}
	if *showDiff {
		before := ""
		if !cfg.Bootstrapped() {
			raw, rerr := os.ReadFile(configPath)
			if rerr != nil {
				fatalf("reading %s: %v", configPath, rerr)
			}
			before = string(raw)
		}
		printDiff(before, rendered)
		return
	}
	fmt.Print(rendered)
}

// printDiff shows a line diff between the file as the user wrote it and the
// reconciled form, so added defaults are visible at a glance.
func printDiff(before, after string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	ins := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				ins.Printf("+ %s\n", line)
			case diffmatchpatch.DiffDelete:
				del.Printf("- %s\n", line)
			default:
				fmt.Printf("  %s\n", line)
			}
		}
	}
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
