package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oarkflow/permit"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		handleValidate()
	case "requirements":
		handleRequirements()
	case "check":
		handleCheck()
	case "convert":
		handleConvert()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("permit - requirement configuration tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  permit validate <config>                          - Validate and compile a config")
	fmt.Println("  permit requirements <config>                      - List compiled requirements")
	fmt.Println("  permit check <config> <requirement> <identity>    - Evaluate a requirement against an identity JSON file")
	fmt.Println("  permit convert <input> <output>                   - Convert between config formats")
	fmt.Println()
	fmt.Println("Supported config formats: .yaml, .yml, .json")
}

func handleValidate() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: permit validate <config>")
		os.Exit(1)
	}
	cfg := loadConfig(os.Args[2])
	compiled := compile(cfg)
	fmt.Printf("OK: %d requirement(s) compiled\n", len(compiled))
}

func handleRequirements() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: permit requirements <config>")
		os.Exit(1)
	}
	cfg := loadConfig(os.Args[2])
	compiled := compile(cfg)
	for _, req := range cfg.Requirements {
		fmt.Printf("%-24s %s\n", req.Name, compiled[req.Name].String())
	}
}

func handleCheck() {
	if len(os.Args) < 5 {
		fmt.Println("Usage: permit check <config> <requirement> <identity.json>")
		os.Exit(1)
	}
	cfg := loadConfig(os.Args[2])
	compiled := compile(cfg)
	pred, ok := compiled[os.Args[3]]
	if !ok {
		fmt.Printf("Unknown requirement: %s\n", os.Args[3])
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[4])
	if err != nil {
		fmt.Printf("Error reading identity: %v\n", err)
		os.Exit(1)
	}
	identity := &permit.Identity{}
	if err := json.Unmarshal(data, identity); err != nil {
		fmt.Printf("Error parsing identity: %v\n", err)
		os.Exit(1)
	}

	allowed, err := pred.Evaluate(identity)
	if err != nil {
		fmt.Printf("Evaluation failed: %v\n", err)
		os.Exit(2)
	}
	if allowed {
		fmt.Printf("ALLOW: %s satisfies %s\n", identity.ID, pred.String())
		return
	}
	fmt.Printf("DENY: %s does not satisfy %s\n", identity.ID, pred.String())
	os.Exit(1)
}

func handleConvert() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: permit convert <input> <output>")
		os.Exit(1)
	}
	cfg := loadConfig(os.Args[2])

	out := os.Args[3]
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(out)) {
	case ".yaml", ".yml":
		data, err = cfg.ToYAML()
	case ".json":
		data, err = cfg.ToJSON()
	default:
		fmt.Printf("Unsupported output format: %s\n", out)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("Error encoding config: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fmt.Printf("Error writing output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", out)
}

func loadConfig(path string) *permit.Config {
	cfg, err := permit.NewConfigLoader().LoadFile(path)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func compile(cfg *permit.Config) map[string]permit.Predicate[*permit.Identity] {
	compiled, err := cfg.Compile()
	if err != nil {
		fmt.Printf("Error compiling config: %v\n", err)
		os.Exit(1)
	}
	return compiled
}
