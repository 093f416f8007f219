package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
)

// Start parses the command line, sets up the url mapping and launches the
// HTTP server. It returns once the server has shut down after an
// interrupt.
func Start() {
	flags := pflag.NewFlagSet("rf-signal-server", pflag.ExitOnError)
	configFile := flags.String("config", "", "YAML config file")
	listen := flags.StringP("listen", "l", "", "listen address, overrides the config")
	debug := flags.Bool("debug", false, "log every request in full")
	flags.Parse(os.Args[1:])

	config := DefaultConfig()
	if *configFile != "" {
		var err error
		if config, err = LoadConfig(*configFile); err != nil {
			log.Fatal(err)
		}
	}
	if err := config.applyEnv(); err != nil {
		log.Fatal(err)
	}
	if *listen != "" {
		config.Listen = *listen
	}
	if *debug {
		config.Debug = true
	}

	s, err := newCollectorServer(config)
	if err != nil {
		log.Fatal(err)
	}
	signalCollectorServer := http.Server{Addr: config.Listen, Handler: s.routes()}
	signalCollectorServer.RegisterOnShutdown(func() {
		log.Print("Shutting down server")
	})
	idle := make(chan struct{})
	go func() {
		intr := make(chan os.Signal, 1)
		signal.Notify(intr, os.Interrupt)
		<-intr
		if err := signalCollectorServer.Shutdown(context.Background()); err != nil {
			log.Print(err)
		}
		close(idle)
	}()
	log.Printf("Server started on %s", config.Listen)
	if err := signalCollectorServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	<-idle
}
