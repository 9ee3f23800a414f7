package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra/doc"
	"github.com/spf13/pflag"

	"github.com/arcane-labs/arcane-cli/cmd"
)

func main() {
	outputDir := pflag.StringP("out", "o", "docs", "directory the command reference is written to")
	man := pflag.Bool("man", false, "also write man pages into <out>/man")
	pflag.Parse()

	root := cmd.RootCmd
	root.DisableAutoGenTag = true

	log.Printf("Generating docs for %s into %s...", root.Name(), *outputDir)
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Error creating docs dir: %v", err)
	}
	if err := doc.GenMarkdownTree(root, *outputDir); err != nil {
		log.Fatalf("Error generating markdown: %v", err)
	}

	if *man {
		manDir := filepath.Join(*outputDir, "man")
		if err := os.MkdirAll(manDir, 0755); err != nil {
			log.Fatalf("Error creating man dir: %v", err)
		}
		header := &doc.GenManHeader{Title: "ARCANE", Section: "1", Source: "arcane-cli"}
		if err := doc.GenManTree(root, header, manDir); err != nil {
			log.Fatalf("Error generating man pages: %v", err)
		}
	}
	log.Println("Documentation generated in " + *outputDir)
}
