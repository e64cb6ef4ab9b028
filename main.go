// Package main provides the entry point for the receipt-ocr CLI application.
package main

import (
	"fmt"
	"os"

	"smarttax/receipt-ocr/cmd/batch"
	"smarttax/receipt-ocr/cmd/correct"
	"smarttax/receipt-ocr/cmd/extract"
	"smarttax/receipt-ocr/cmd/refresh"
	"smarttax/receipt-ocr/cmd/root"
	"smarttax/receipt-ocr/cmd/templates"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(extract.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
	root.Cmd.AddCommand(correct.Cmd)
	root.Cmd.AddCommand(templates.Cmd)
	root.Cmd.AddCommand(refresh.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
