// sonde-import loads a datalogger text file into the sonde database.
//
// Usage: sonde-import [-loglevel level] <filepath> <practice_name>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/francesco74/sonde/internal/config"
	"github.com/francesco74/sonde/internal/database"
	"github.com/francesco74/sonde/internal/ingest"
	"github.com/francesco74/sonde/internal/logger"
	"github.com/francesco74/sonde/internal/repository"

	"go.uber.org/zap"
)

func main() {
	loglevel := flag.String("loglevel", "info", "log level: debug, info, warn, error")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-loglevel level] <filepath> <practice_name>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	filepath := flag.Arg(0)
	practiceName := flag.Arg(1)

	log, err := logger.New(*loglevel, "console", "sonde-import")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	file, err := os.Open(filepath)
	if err != nil {
		log.Fatal("Failed to open datalogger file", zap.String("filepath", filepath), zap.Error(err))
	}
	parsed, err := ingest.Parse(file, log)
	file.Close()
	if err != nil {
		log.Fatal("Failed to parse datalogger file", zap.String("filepath", filepath), zap.Error(err))
	}

	cfg := config.Load()
	db, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatal("Failed to ensure schema", zap.Error(err))
	}

	importer := ingest.NewImporter(
		repository.NewPostgresPracticesRepository(db),
		repository.NewPostgresReadingsRepository(db),
		log,
	)

	stats, err := importer.Import(ctx, practiceName, parsed)
	if err != nil {
		log.Fatal("Import failed", zap.String("practice", practiceName), zap.Error(err))
	}

	log.Info("Import finished",
		zap.String("practice", practiceName),
		zap.Int("readings_written", stats.ReadingsWritten),
		zap.Int("rows_skipped", stats.RowsSkipped),
	)
}
