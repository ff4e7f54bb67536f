package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/jhakala/libris/cmd"
)

// Indirection so tests can stub out command execution.
var execute = cmd.Execute

func main() {
	execute()
}
