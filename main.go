package main

import (
	"os"

	"github.com/smazurov/multistream/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
