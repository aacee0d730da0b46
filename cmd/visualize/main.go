package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/mahesh-hegde/visualize/app/common"
	"github.com/mahesh-hegde/visualize/app/config"
	"github.com/mahesh-hegde/visualize/app/configurator"
	"github.com/mahesh-hegde/visualize/app/cube"
	"github.com/mahesh-hegde/visualize/app/docstore"
	"github.com/mahesh-hegde/visualize/app/persistence"
	"github.com/mahesh-hegde/visualize/app/server"
	"github.com/spf13/pflag"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "server":
		runServer()
	case "validate":
		runValidate()
	case "schema":
		runSchema()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: visualize <command> [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  server        Start the visualize server")
	fmt.Fprintln(os.Stderr, "  validate      Check a data directory and stored configurator states")
	fmt.Fprintln(os.Stderr, "  schema        Print the JSON schema of stored states")
}

func addLogFlags(flags *pflag.FlagSet) (format, level *string) {
	format = flags.String("log-format", "json", "log format: json, text or tint")
	level = flags.String("log-level", "info", "minimum log level")
	return format, level
}

func setupLogging(format, level string) {
	lvl, err := common.ParseLogLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger, err := common.NewLogger(os.Stderr, common.LogFormat(format), lvl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
}

func loadConfig(dataDir string) *config.VisualizeConfig {
	if dataDir == "" {
		slog.Error("--data-dir not provided, stopping")
		os.Exit(1)
	}
	conf, err := config.Load(dataDir)
	if err != nil {
		slog.Error("error while loading config", "err", err)
		os.Exit(1)
	}
	return conf
}

func openStores(conf *config.VisualizeConfig) (persistence.SessionStore, persistence.ChartStore, error) {
	idle := time.Duration(conf.SessionIdleSeconds) * time.Second
	if conf.Storage == config.StorageMemory {
		return persistence.NewMemorySessionStore(idle), persistence.NewMemoryChartStore(), nil
	}

	db, err := docstore.NewSQLiteDB(conf.DataDir, false)
	if err != nil {
		return nil, nil, err
	}
	charts := persistence.NewSQLiteChartStore(db)
	if err := charts.Init(); err != nil {
		return nil, nil, err
	}
	if conf.Storage == config.StorageRedis {
		sessions, err := persistence.NewRedisSessionStore(conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB,
			time.Duration(conf.Redis.TTLSeconds)*time.Second)
		if err != nil {
			return nil, nil, err
		}
		return sessions, charts, nil
	}
	sessions := persistence.NewSQLiteSessionStore(db)
	if err := sessions.Init(); err != nil {
		return nil, nil, err
	}
	return sessions, charts, nil
}

func runServer() {
	flags := pflag.NewFlagSet("server", pflag.ExitOnError)
	var address, dataDir, certDir string
	var port, rateLimit, gzipLevel int
	var acme, behindLB bool
	flags.StringVarP(&address, "address", "a", "localhost", "Server address to bind")
	flags.IntVarP(&port, "port", "p", 8080, "Server port to bind")
	flags.StringVarP(&dataDir, "data-dir", "d", "",
		"data directory holding config.yaml, the dataset catalog and the database")
	flags.StringVar(&certDir, "cert-dir", "", "directory with TLS certificates, enables TLS")
	flags.BoolVar(&acme, "acme", false, "obtain certificates through ACME into --cert-dir")
	flags.BoolVar(&behindLB, "behind-load-balancer", false, "rate limit by X-Forwarded-For instead of the peer address")
	flags.IntVar(&rateLimit, "rate-limit", 0, "requests per second per client, 0 disables")
	flags.IntVar(&gzipLevel, "gzip-level", 0, "gzip compression level, 0 disables")
	logFormat, logLevel := addLogFlags(flags)

	flags.Parse(os.Args[2:])
	setupLogging(*logFormat, *logLevel)
	conf := loadConfig(dataDir)

	catalog, err := cube.LoadCatalogFile(conf.CatalogPath())
	if err != nil {
		slog.Error("error while loading catalog", "err", err)
		os.Exit(1)
	}
	files := cube.NewFileSource(catalog)
	metadata := cube.NewCachedSource(files, time.Duration(conf.MetadataCacheSeconds)*time.Second)
	index, err := cube.NewCatalogIndex(catalog)
	if err != nil {
		slog.Error("error while indexing catalog", "err", err)
		os.Exit(1)
	}
	defer index.Close()

	if err := cube.Warm(context.Background(), metadata, files.Iris(), common.Locales, conf.WarmupConcurrency); err != nil {
		slog.Warn("some dataset metadata could not be prefetched", "err", err)
	}

	sessions, charts, err := openStores(conf)
	if err != nil {
		slog.Error("error while opening storage", "storage", conf.Storage, "err", err)
		os.Exit(1)
	}
	bridge := persistence.NewBridge(sessions, charts, metadata, conf.RedirectAllowed())
	controller := server.NewVisualizeController(conf, bridge, charts, metadata, index)

	server.StartServer(controller, conf, config.ServerRuntimeConfig{
		Addr:               address,
		Port:               port,
		CertDir:            certDir,
		AcmeEnabled:        acme,
		BehindLoadBalancer: behindLB,
		RateLimit:          rateLimit,
		GzipLevel:          gzipLevel,
	})
}

// runValidate loads the config and catalog of a data directory and decodes
// every state file given as an argument.
func runValidate() {
	flags := pflag.NewFlagSet("validate", pflag.ExitOnError)
	var dataDir string
	flags.StringVarP(&dataDir, "data-dir", "d", "", "data directory to check")
	logFormat, logLevel := addLogFlags(flags)
	flags.Parse(os.Args[2:])
	setupLogging(*logFormat, *logLevel)

	failed := false
	if dataDir != "" {
		conf := loadConfig(dataDir)
		catalog, err := cube.LoadCatalogFile(conf.CatalogPath())
		if err != nil {
			slog.Error("invalid catalog", "path", conf.CatalogPath(), "err", err)
			failed = true
		} else {
			slog.Info("catalog ok", "datasets", len(catalog.Datasets))
		}
		if conf.Storage == config.StorageSQLite {
			if err := reportPublished(conf.DataDir); err != nil {
				slog.Error("cannot read published charts", "err", err)
				failed = true
			}
		}
	}

	for _, path := range flags.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("cannot read state", "path", path, "err", err)
			failed = true
			continue
		}
		s, err := configurator.Decode(data)
		if err != nil {
			slog.Error("invalid state", "path", path, "err", err)
			failed = true
			continue
		}
		slog.Info("state ok", "path", path, "stage", s.Stage())
	}
	if failed {
		os.Exit(1)
	}
}

func reportPublished(dataDir string) error {
	if _, err := os.Stat(filepath.Join(dataDir, "visualize.db")); errors.Is(err, os.ErrNotExist) {
		slog.Info("no database yet")
		return nil
	}
	db, err := docstore.NewSQLiteDB(dataDir, true)
	if err != nil {
		return err
	}
	defer db.Close()
	counts, err := persistence.NewSQLiteChartStore(db).CountByDataset(context.Background())
	if err != nil {
		return err
	}
	for ds, n := range counts {
		slog.Info("published charts", "dataset", ds, "count", n)
	}
	return nil
}

func runSchema() {
	flags := pflag.NewFlagSet("schema", pflag.ExitOnError)
	var chartOnly bool
	flags.BoolVar(&chartOnly, "chart-config", false, "print the schema of a chart config only")
	flags.Parse(os.Args[2:])

	schema := configurator.Schema()
	if chartOnly {
		schema = chartconfig.Schema()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(schema); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
