package main

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/training-tracker/internal/application"
	"github.com/example/training-tracker/internal/config"
	"github.com/example/training-tracker/internal/intake"
	"github.com/example/training-tracker/internal/persistence/sqlite"
)

// ingestCmd runs the intake flow against a convention document on disk,
// without going through the HTTP surface.
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a convention document and create its sessions",
	Long: `Ingest a convention document and create its sessions.

Examples:
  trainings ingest --file ./convention.pdf --trainer "Rali El kohen"
  trainings ingest --file ./scan.png --mime image/png --trainer "Marie Curie"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		trainer, _ := cmd.Flags().GetString("trainer")
		mimeType, _ := cmd.Flags().GetString("mime")

		if file == "" {
			return fmt.Errorf("--file is required")
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		if mimeType == "" {
			mimeType = mime.TypeByExtension(filepath.Ext(file))
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		storage, err := sqlite.Open(cfg.SQLiteDSN)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer storage.Close()

		ctx := context.Background()
		if err := storage.Migrate(ctx); err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}

		intakeClient := intake.NewClient(cfg.IntakeBaseURL, cfg.IntakeAPIKey, cfg.IntakeModel)
		service := application.NewSessionServiceWithLogger(
			newSessionRepositoryAdapter(storage),
			newExtractorAdapter(intakeClient),
			intakeClient,
			uuid.NewString,
			time.Now,
			slog.New(slog.NewTextHandler(os.Stderr, nil)),
		)

		sessions, err := service.IngestConvention(ctx, application.IngestParams{
			Data:        data,
			MIMEType:    mimeType,
			TrainerName: trainer,
		})
		if err != nil {
			return err
		}

		for _, session := range sessions {
			fmt.Fprintf(cmd.OutOrStdout(), "created session %s (%s, %s)\n", session.ID, session.TrainingName, session.Date)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("file", "", "path to the convention document")
	ingestCmd.Flags().String("trainer", "", "trainer name recorded on the sessions")
	ingestCmd.Flags().String("mime", "", "MIME type override (inferred from the extension when empty)")
}
