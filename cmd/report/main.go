package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"dealpulse/internal/config"
	"dealpulse/internal/dataprocessing"
	"dealpulse/internal/exporter"
	"dealpulse/internal/infrastructure"
	"dealpulse/internal/workbook"
	"dealpulse/pkg/contracts/domain"
)

// report exports the deal workbook without running the server: one deals
// table per kind, quarterly and sector series tables, and a KPI summary
// as JSON.
func main() {
	workbookPath := flag.String("workbook", "", "path to the deal workbook (defaults to the configured data.workbook_file)")
	outDir := flag.String("out", "", "output directory for CSV files (defaults to the configured data.exports_dir)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *workbookPath == "" {
		*workbookPath = cfg.Data.WorkbookFile
	}
	if *outDir == "" {
		*outDir = cfg.Data.ExportsDir
	}

	loader := workbook.NewLoader(logger)
	ds, err := loader.Load(*workbookPath)
	if err != nil {
		logger.Error("Failed to load workbook",
			slog.String("path", *workbookPath),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	writer := exporter.NewCSVWriter(logger, *outDir)
	summarizer := dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig())
	ctx := context.Background()
	written := 0

	for _, kind := range domain.DealKinds {
		records := ds.Records(kind)
		if len(records) == 0 {
			continue
		}

		layout, ok := ds.Layouts[kind]
		if !ok {
			layout = workbook.DefaultLayout(kind)
		}

		path, err := writer.WriteFile(fmt.Sprintf("%s_deals.csv", kind),
			exporter.DealTable(kind, layout, records))
		if err != nil {
			logger.Error("Failed to write deals table",
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("wrote deals table",
			slog.String("kind", string(kind)),
			slog.String("path", path),
			slog.Int("rows", len(records)))
		written++

		selector := dataprocessing.RawAmountSelector(dataprocessing.UnitMillions)
		quarterly := dataprocessing.AggregateByPeriod(records, selector, dataprocessing.AggregateOptions{})
		if _, err := writer.WriteFile(fmt.Sprintf("%s_quarterly.csv", kind),
			exporter.SeriesTable("Quarter", quarterly)); err != nil {
			logger.Error("Failed to write quarterly series",
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()))
			os.Exit(1)
		}

		sectors := dataprocessing.AggregateByCategory(records, selector,
			dataprocessing.SectorKey, dataprocessing.AggregateOptions{})
		if _, err := writer.WriteFile(fmt.Sprintf("%s_sectors.csv", kind),
			exporter.SeriesTable("Sector", sectors)); err != nil {
			logger.Error("Failed to write sector series",
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()))
			os.Exit(1)
		}

		summary := summarizer.Summarize(ctx, kind, records, selector)
		if _, err := writer.WriteJSONFile(fmt.Sprintf("%s_summary.json", kind), summary); err != nil {
			logger.Error("Failed to write summary",
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if written == 0 {
		logger.Warn("workbook contains no deal rows, nothing exported",
			slog.String("path", *workbookPath))
	}
}
