// Command vantaged drives one Davis Vantage Pro/Pro2/Vue console over
// its serial port and runs the command dispatcher described in
// spec.md §4.8 in-process, with no transport attached to it (see
// cmd/vantaged-server for the HTTP front door), the way the teacher's cmd/remoteweather
// drives its own collaborators from a single flag-parsed entrypoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/chrissnell/vantaged/internal/app"
	"github.com/chrissnell/vantaged/internal/constants"
	"github.com/chrissnell/vantaged/internal/log"
	"github.com/chrissnell/vantaged/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "vantaged.yaml", "Path to YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("vantaged %s (%s/%s)\n", constants.Version, runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	if err := log.Init(*debug, 0); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.LoadConfig(*cfgFile)
	if err != nil {
		log.Errorf("failed to load configuration: %v", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, log.GetSugaredLogger())
	if err != nil {
		log.Errorf("failed to initialize application: %v", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		log.Errorf("application error: %v", err)
		os.Exit(1)
	}
}
