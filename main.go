// Package main is the entry point for the mutants CLI.
package main

import "gooze.dev/pkg/mutants/cmd"

func main() {
	cmd.Execute()
}
