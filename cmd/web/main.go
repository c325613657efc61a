// The web command runs the CSV validation HTTP service.
package main

import (
	"flag"
	"fmt"
	"os"

	"csvcert/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(app.Version)
		return
	}

	application, err := app.New(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
}
