// Command pageconv converts each page of a PDF into pixel-faithful HTML
// through the agentic per-page refinement loop: generate, render, judge,
// decide, repeat until a fidelity target is met or the retry budget runs
// out.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pageconv/pageconv/internal/adapters/driven/config/env"
	configfile "github.com/pageconv/pageconv/internal/adapters/driven/config/file"
	"github.com/pageconv/pageconv/internal/adapters/driven/pagestore/file"
	"github.com/pageconv/pageconv/internal/adapters/driven/pdf"
	"github.com/pageconv/pageconv/internal/adapters/driven/render/chromedp"
	"github.com/pageconv/pageconv/internal/adapters/driven/store/sqlite"
	"github.com/pageconv/pageconv/internal/adapters/driven/visionmodel"
	"github.com/pageconv/pageconv/internal/adapters/driving/cli"
	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driving"
	"github.com/pageconv/pageconv/internal/core/services"
	"github.com/pageconv/pageconv/internal/logger"
)

// buildVersion is set via -ldflags "-X main.buildVersion=...".
var buildVersion string

func main() {
	if err := run(); err != nil {
		logger.Warn("%s", err)
		os.Exit(1)
	}
	os.Exit(cli.ExitCode())
}

func run() error {
	configStore, err := configfile.New("")
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}

	settings := configfile.LoadConvertSettings(configStore)
	settings = env.Resolve(settings)

	costTracker := services.NewCostTracker()
	checker := services.NewCredentialChecker(settings, visionmodel.ValidateConfig)

	factory := func(pdfPath string, settings domain.ConvertSettings) (driving.Converter, func() error, error) {
		return buildConverter(pdfPath, settings, costTracker)
	}

	cli.Init(factory, checker, settings, buildVersion)
	return cli.Execute()
}

// buildConverter opens every adapter a single `convert` run needs: the PDF
// ingestor (bound to pdfPath), a headless-Chromium renderer, the three
// vision-model roles, the on-disk page store, and (best-effort) a sqlite
// review catalog. The returned closer releases all of them in reverse
// order; callers must defer it.
func buildConverter(pdfPath string, settings domain.ConvertSettings, costTracker *services.CostTracker) (driving.Converter, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	ingestor, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, closeAll, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	closers = append(closers, ingestor.Close)

	renderer, err := chromedp.New(context.Background())
	if err != nil {
		return nil, closeAll, fmt.Errorf("starting headless renderer: %w", err)
	}
	closers = append(closers, renderer.Close)

	generatorModel, err := visionmodel.CreateAndValidate(settings.Generator, "generator", costTracker)
	if err != nil {
		return nil, closeAll, err
	}
	analyzerModel, err := visionmodel.CreateAndValidate(settings.Generator, "analyzer", costTracker)
	if err != nil {
		return nil, closeAll, err
	}
	judgeAModel, err := visionmodel.CreateAndValidate(settings.JudgeA, "judge_a", costTracker)
	if err != nil {
		return nil, closeAll, err
	}

	var judgeB *services.Judge
	if settings.MultiJudge.UseCrossModel && settings.JudgeB.IsConfigured() {
		judgeBModel, err := visionmodel.CreateAndValidate(settings.JudgeB, "judge_b", costTracker)
		if err != nil {
			return nil, closeAll, err
		}
		judgeB = services.NewJudge(judgeBModel)
	}

	outputDir := settings.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(filepath.Dir(pdfPath), documentStem(pdfPath)+"_pageconv")
	}
	pageStore, err := file.New(outputDir)
	if err != nil {
		return nil, closeAll, fmt.Errorf("opening page store at %s: %w", outputDir, err)
	}

	generator := services.NewGenerator(generatorModel)
	analyzer := services.NewAnalyzer(analyzerModel)
	judgeA := services.NewJudge(judgeAModel)
	multiJudge := services.NewMultiJudge(judgeA, judgeB, settings.MultiJudge)

	loop := services.NewLoop(ingestor, pageStore, generator, analyzer, multiJudge, renderer, settings)
	loop.CostTracker = costTracker

	if catalog, err := sqlite.New(outputDir); err != nil {
		logger.Warn("review catalog unavailable, continuing without it: %s", err)
	} else {
		loop.ReviewIndexer = catalog
		closers = append(closers, catalog.Close)
	}

	return loop, closeAll, nil
}

func documentStem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
