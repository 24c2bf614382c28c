// Command dealias runs the region-based Doppler velocity dealiasing
// engine as a long-lived HTTP service: submit a sweep for dealiasing and
// retrieve past run summaries.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/velocity.report/internal/api"
	"github.com/banshee-data/velocity.report/internal/config"
	"github.com/banshee-data/velocity.report/internal/dealiasdb"
	"github.com/banshee-data/velocity.report/internal/security"
	"github.com/banshee-data/velocity.report/internal/version"
)

var (
	listen       = flag.String("listen", ":8080", "Listen address for the dealiasing HTTP API")
	dbPathFlag   = flag.String("db-path", "dealias_runs.db", "path to sqlite DB file for run history (defaults to dealias_runs.db)")
	configFile   = flag.String("config", config.DefaultConfigPath, "Path to JSON tuning configuration file")
	versionFlag  = flag.Bool("version", false, "Print version information and exit")
	versionShort = flag.Bool("v", false, "Print version information and exit (shorthand)")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stdout)

	if *versionFlag || *versionShort {
		fmt.Printf("dealias v%s (git SHA: %s)\n", version.Version, version.GitSHA)
		os.Exit(0)
	}

	if flag.NArg() > 0 && flag.Arg(0) == "version" {
		fmt.Printf("dealias v%s\n", version.Version)
		fmt.Printf("git SHA: %s\n", version.GitSHA)
		os.Exit(0)
	}

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to resolve working directory: %v", err)
	}
	if err := security.ValidatePathWithinAllowedDirs(*configFile, []string{cwd}); err != nil {
		log.Fatalf("rejected --config path %q: %v", *configFile, err)
	}

	tuningCfg, err := config.LoadDealiasConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load tuning config %q: %v", *configFile, err)
	}
	if err := tuningCfg.Validate(); err != nil {
		log.Fatalf("invalid tuning config %q: %v", *configFile, err)
	}

	log.Printf("dealias v%s (git SHA: %s)", version.Version, version.GitSHA)

	dbPath, err := filepath.Abs(*dbPathFlag)
	if err != nil {
		log.Fatalf("failed to resolve db path %q: %v", *dbPathFlag, err)
	}
	store, err := dealiasdb.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open run store %q: %v", dbPath, err)
	}
	defer store.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		apiServer := api.NewServer(store).WithDefaultOptions(tuningCfg.ToOptions())
		apiServer.ServeMux()
		if err := apiServer.Start(ctx, *listen); err != nil {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
