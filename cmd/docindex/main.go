package main

import "github.com/jbravobr/Inventory-Analyzer-sub000/internal/cli"

func main() {
	cli.Execute()
}
