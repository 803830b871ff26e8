// Package main provides the entry point for the loadaudit CLI.
package main

import "yqhp/loadaudit/cmd"

func main() {
	cmd.Execute()
}
