package main

import (
	"context"
	"io"
	"os"
	"time"

	"aireviewer/internal/logger"
	"aireviewer/internal/review"
	"aireviewer/internal/services"
	"aireviewer/internal/terminal"
	"aireviewer/internal/testutils"
	"aireviewer/pkg/reviewtypes"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review <file>",
	Short: "Review a file and propose fixes",
	Long: `Send the file to the configured model for review. Each proposed fix is shown next to
the current file and applied only when you accept it. The model's summary report is
printed at the end.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initServices(); err != nil {
			return err
		}
		return reviewFile(cmd.Context(), args[0], cmd.OutOrStdout(), cmd.InOrStdin())
	},
}

// reviewFile wires a review session from the registered services and runs it on path.
func reviewFile(ctx context.Context, path string, out io.Writer, in io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}

	configuration, err := services.GetGlobalConfigurationService()
	if err != nil {
		return err
	}
	settings, err := configuration.Settings()
	if err != nil {
		return err
	}
	factory, err := services.GetGlobalClientFactoryService()
	if err != nil {
		return err
	}
	differ, err := services.GetGlobalDiffService()
	if err != nil {
		return err
	}
	comparison, err := services.GetGlobalComparisonService()
	if err != nil {
		return err
	}
	markdown, err := services.GetGlobalMarkdownService()
	if err != nil {
		return err
	}

	diffTool, err := comparison.ResolveTool(settings.DiffTool)
	if err != nil {
		return &reviewtypes.ConfigError{Key: services.KeyDiffTool, Message: "diff tool unavailable", Err: err}
	}

	options := []terminal.Option{terminal.WithWriter(out), terminal.WithInput(in)}
	if testMode {
		lipgloss.SetColorProfile(termenv.Ascii)
		options = append(options, terminal.PlainText())
	}
	if outputFile != "" {
		mirror, err := os.OpenFile(outputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return &reviewtypes.StorageError{Op: "open", Path: outputFile, Err: err}
		}
		defer func() { _ = mirror.Close() }()
		options = append(options, terminal.WithMirror(mirror))
	}

	host := terminal.NewHost(differ, comparison, diffTool, options...)
	output := terminal.NewOutput(options...)

	driver := review.NewDriver(func(credential string) (reviewtypes.ModelClient, error) {
		return factory.GetClientForProvider(settings.Provider, credential, settings.Model)
	}, review.NewPrompter(host, output), review.DriverConfig{
		MaxToolTurns:   settings.MaxToolTurns,
		RequestTimeout: settings.RequestTimeout,
	})
	driver.SetIDGenerator(func() string { return testutils.GenerateUUID(testMode) })

	session := review.NewSession(host, output, configuration, driver)
	if !testMode {
		session.SetSummaryRenderer(markdown.RenderOrPlain)
	}

	logger.Debug("Starting review", "path", path, "provider", settings.Provider, "model", settings.Model, "diff_tool", diffTool)
	startedAt := testutils.GetCurrentTime(testMode)
	runErr := session.Start(ctx, path)
	finishedAt := testutils.GetCurrentTime(testMode)

	if transcriptPath != "" {
		if err := writeTranscript(path, settings, session, driver, runErr, startedAt, finishedAt.Sub(startedAt)); err != nil {
			logger.Error("Failed to write transcript", "path", transcriptPath, "error", err)
		} else {
			logger.Info("Transcript written", "path", transcriptPath)
		}
	}

	if runErr != nil {
		return reportedError{err: runErr}
	}
	return nil
}

func writeTranscript(path string, settings services.Settings, session *review.Session, driver *review.Driver, runErr error, startedAt time.Time, elapsed time.Duration) error {
	transcripts, err := services.GetGlobalTranscriptService()
	if err != nil {
		return err
	}

	transcript := services.Transcript{
		SessionID: testutils.GenerateUUID(testMode),
		File:      path,
		Provider:  settings.Provider,
		Model:     settings.Model,
		StartedAt: startedAt,
		Duration:  elapsed.Round(time.Millisecond).String(),
		Outcome:   "completed",
		Turns:     driver.History(),
	}
	if runErr != nil {
		transcript.Outcome = "failed"
		transcript.Error = runErr.Error()
	} else {
		transcript.Summary = session.LastSummary()
	}

	return transcripts.Write(transcriptPath, transcript)
}
