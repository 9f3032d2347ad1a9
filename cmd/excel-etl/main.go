package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/lmittmann/tint"

	"github.com/sheetflow/excel-etl/internal/gcs"
	"github.com/sheetflow/excel-etl/internal/models"
	"github.com/sheetflow/excel-etl/internal/service"
)

//nolint:gochecknoglobals,revive // build variables
var (
	commit string = "unspecified"
	app    string = "excel-etl"
)

type config struct {
	LogFormat    string     `default:"text" split_words:"true"`
	LogLevel     slog.Level `default:"info" split_words:"true"`
	LogAddSource bool       `default:"false" split_words:"true"`

	OutputDir          string        `default:"." split_words:"true"`
	GCPCredentialsFile string        `split_words:"true"`
	HTTPTimeout        time.Duration `default:"30s" split_words:"true"`
}

func main() {
	var cfg config
	err := envconfig.Process("exceletl", &cfg)
	if err != nil {
		slog.Error("unable to parse config", slog.Any("error", err))
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <pipeline-config.json>\n", os.Args[0])
		os.Exit(2)
	}

	if err := mainErr(&cfg, os.Args[1]); err != nil {
		slog.Error("Pipeline run failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func mainErr(cfg *config, configPath string) error {
	log := configureLogger(cfg, os.Stdout)

	doc, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read pipeline config: %w", err)
	}

	pipeline, err := models.ParsePipelineConfig(doc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store service.Store
	if needsGCS(pipeline) {
		client, err := gcs.NewClient(ctx, cfg.GCPCredentialsFile)
		if err != nil {
			return fmt.Errorf("gcs client: %w", err)
		}
		defer client.Close()
		store = client
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	ps := service.NewPipelineService(cfg.OutputDir, store, httpClient, log)

	report, err := ps.RunPipeline(ctx, pipeline)
	if err != nil {
		return err
	}

	log.Info("Pipeline completed",
		slog.String("run_id", report.RunID),
		slog.String("output_file", report.OutputFile),
		slog.String("uploaded_to", report.UploadedTo),
	)

	fmt.Println(report.OutputFile)

	return nil
}

func needsGCS(cfg models.PipelineConfig) bool {
	if cfg.Output.GCSUpload != nil {
		return true
	}
	for _, src := range cfg.Sources {
		if src.Type == models.GCSSourceType {
			return true
		}
	}

	return false
}

func configureLogger(cfg *config, logOut io.Writer) *slog.Logger {
	//nolint: exhaustruct // optional config
	logOpts := &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: cfg.LogAddSource,
	}

	var logHandler slog.Handler
	switch cfg.LogFormat {
	case "json":
		logHandler = slog.NewJSONHandler(logOut, logOpts)
	default:
		//nolint:exhaustruct // optional config
		logHandler = tint.NewHandler(logOut, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: time.Kitchen,
		})
	}

	log := slog.New(logHandler)

	return log.With(
		slog.String("app", app),
		slog.String("commit_hash", commit),
		slog.String("goversion", runtime.Version()),
	)
}
