package main

import (
	"os"

	"github.com/prathamesonar/signature-engine/cli"
)

func main() {
	cli.Main(os.Args[1:])
}
