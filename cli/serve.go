package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	signatureengine "github.com/prathamesonar/signature-engine"
	"github.com/prathamesonar/signature-engine/config"
	"github.com/prathamesonar/signature-engine/integrity"
	"github.com/prathamesonar/signature-engine/server"
	"github.com/prathamesonar/signature-engine/store"
)

func ServeCommand(args []string) {
	serveFlags := flag.NewFlagSet("serve", flag.ExitOnError)

	var configPath string
	serveFlags.StringVar(&configPath, "config", "", "Path to a TOML or YAML config file")

	serveFlags.Usage = func() {
		fmt.Printf("Usage: %s serve [options]\n\n", os.Args[0])
		fmt.Println("Run the HTTP stamping service")
		fmt.Println("\nOptions:")
		serveFlags.PrintDefaults()
		fmt.Println("\nEnvironment:")
		fmt.Println("  PORT, DATABASE_URL, BASE_PDF, SIGN_LOCALE override the config file")
	}

	if err := serveFlags.Parse(args); err != nil {
		log.Printf("Failed to parse serve flags: %v", err)
		osExit(1)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Serve(ctx, cfg, os.Stderr); err != nil {
		log.Println(err)
		osExit(1)
	}
}

// Serve runs the service described by cfg until ctx is cancelled.
func Serve(ctx context.Context, cfg config.Config, logOutput io.Writer) error {
	logger := cfg.Log.NewLogger(logOutput)

	records, closeRecords, err := openRecords(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeRecords()

	stamper, err := NewStamper(cfg, logger, records)
	if err != nil {
		return err
	}

	srv := server.New(stamper, server.Options{
		BodyLimit:      cfg.Server.BodyLimit,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
		Records:        records,
	})

	return srv.Run(ctx, server.RunConfig{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout.Std(),
		WriteTimeout:    cfg.Server.WriteTimeout.Std(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Std(),
	})
}

// openRecords connects to Postgres when a database is configured and keeps
// records in memory otherwise.
func openRecords(ctx context.Context, db config.Database) (store.Store, func(), error) {
	if db.URL == "" {
		return store.NewMemory(), func() {}, nil
	}
	pg, err := store.Connect(ctx, db.URL)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

// NewStamper builds the stamping pipeline for cfg. Records go to the log
// and to records when it is not nil.
func NewStamper(cfg config.Config, logger *slog.Logger, records store.Store) (*signatureengine.Stamper, error) {
	recorders := []integrity.Recorder{integrity.LogRecorder{Logger: logger}}
	if records != nil {
		recorders = append(recorders, records)
	}

	stamper := &signatureengine.Stamper{
		Source:   signatureengine.FileSource{Path: cfg.Document.BasePath},
		Recorder: integrity.Multi(recorders...),
		Logger:   logger,
		Options: []signatureengine.Option{
			signatureengine.WithDateLayout(cfg.Document.Layout()),
			signatureengine.WithMaxImageSide(cfg.Document.MaxImageSide),
			signatureengine.WithMaxImagePixels(cfg.Document.MaxImagePixels),
		},
	}

	if cfg.Seal.PKCS12 != "" {
		sealer, err := integrity.LoadSealer(cfg.Seal.PKCS12, cfg.Seal.Password)
		if err != nil {
			return nil, err
		}
		sealer.TSA = integrity.TSA{
			URL:      cfg.Seal.TSAURL,
			Username: cfg.Seal.TSAUsername,
			Password: cfg.Seal.TSAPassword,
		}
		stamper.Sealer = sealer
	}

	return stamper, nil
}
