package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/gologme/log"

	"github.com/spoolmail/spoolmail/internal/config"
	"github.com/spoolmail/spoolmail/internal/dns"
	"github.com/spoolmail/spoolmail/internal/smtpsender"
	"github.com/spoolmail/spoolmail/internal/smtpserver"
	"github.com/spoolmail/spoolmail/internal/storage/sqlite3"
	"github.com/spoolmail/spoolmail/internal/weblist"
)

var database = flag.String("database", "spoolmail.db", "SQLite database file")
var configfile = flag.String("config", "", "YAML configuration file (environment variables override it)")
var loglevel = flag.String("loglevel", "info", "Log level: error, warn, info or debug")

func main() {
	flag.Parse()

	green := color.New(color.FgGreen).SprintFunc()
	logger := log.New(os.Stdout, fmt.Sprintf("[ %s ] ", green("Spoolmail")), log.LstdFlags|log.Lmsgprefix)
	enableLogLevels(logger, *loglevel)

	var cfg *config.Config
	var err error
	if *configfile != "" {
		cfg, err = config.LoadFromFile(*configfile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logger.Fatalf("Configuration error: %v", err)
	}

	storage, err := sqlite3.NewSQLite3Storage(*database)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	logger.Printf("Using database file %q", *database)

	if cfg.Relay != nil {
		logger.Printf("Outbound relay configured: %s", cfg.Relay.Addr())
	} else {
		logger.Println("No outbound relay configured, delivering direct to MX")
	}

	mailer := smtpsender.NewMailer(cfg, logger, dns.NewResolver(dns.ResolverConfig{}))

	wg := &sync.WaitGroup{}
	wg.Add(2)

	go func() {
		defer wg.Done()

		backend := &smtpserver.Backend{
			Log:     logger,
			Config:  cfg,
			Storage: storage,
			Mailer:  mailer,
		}

		server := smtpserver.NewServer(backend)
		logger.Println("Listening for SMTP on:", server.Addr)
		if err := server.ListenAndServe(); err != nil {
			logger.Fatal(err)
		}
	}()

	go func() {
		defer wg.Done()

		listing := &weblist.Server{
			Log:     logger,
			Storage: storage,
			Lines:   cfg.HTTP.PreviewLines,
		}

		logger.Println("Listening for HTTP on:", cfg.HTTP.Listen)
		if err := http.ListenAndServe(cfg.HTTP.Listen, listing.Handler()); err != nil {
			logger.Fatal(err)
		}
	}()

	wg.Wait()
}

func enableLogLevels(logger *log.Logger, level string) {
	for _, l := range []string{"error", "warn", "info", "debug"} {
		logger.EnableLevel(l)
		if l == level {
			return
		}
	}
}
