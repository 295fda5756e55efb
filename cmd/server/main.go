package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/woozymasta/shpjson/internal/cache"
	"github.com/woozymasta/shpjson/internal/config"
	"github.com/woozymasta/shpjson/internal/converter"
	"github.com/woozymasta/shpjson/internal/fetch"
	"github.com/woozymasta/shpjson/internal/logger"
	"github.com/woozymasta/shpjson/internal/proj"
	"github.com/woozymasta/shpjson/internal/proj/libproj"
	"github.com/woozymasta/shpjson/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE"    description:"Path to configuration file (optional)"`
	Addr       string `short:"a" long:"addr"   env:"LISTEN_ADDRESS" description:"Address to listen on" default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"   env:"LISTEN_PORT"    description:"Port to listen on"    default:"8080"`
	CacheSize  int    `long:"cache-size"       env:"CACHE_SIZE"     description:"Cached results, overrides config"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg := config.Default()
	if opts.ConfigFile != "" {
		loaded, err := config.Load(opts.ConfigFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		cfg = loaded
	}
	if opts.CacheSize > 0 {
		cfg.CacheSize = opts.CacheSize
	}

	results, err := cache.New(cfg.CacheSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create result cache")
	}

	fetcher := fetch.Auto{Remote: fetch.NewHTTP(cfg.Timeout, log.Logger)}
	if cfg.AllowLocal {
		fetcher.Local = fetch.Local{}
	}

	conv, err := converter.New(fetcher,
		converter.WithCache(results),
		converter.WithResolver(proj.NewResolver(libproj.New(log.Logger))),
		converter.WithLogger(log.Logger),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create converter")
	}

	srvCtx := server.NewServerContext(cfg, conv)

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/api/convert", srvCtx.HandleConvert)
	mux.HandleFunc("/healthz", srvCtx.HandleHealth)

	handler := server.RequestLogger(mux)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("addr", listenAddr).
		Int("cache_size", cfg.CacheSize).
		Dur("fetch_timeout", cfg.Timeout).
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
