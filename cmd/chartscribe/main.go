package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/Nephrolytics-ai/chartscribe/pkg/blob"
	"github.com/Nephrolytics-ai/chartscribe/pkg/capture"
	"github.com/Nephrolytics-ai/chartscribe/pkg/config"
	"github.com/Nephrolytics-ai/chartscribe/pkg/ingest"
	"github.com/Nephrolytics-ai/chartscribe/pkg/logging"
	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/Nephrolytics-ai/chartscribe/pkg/pipeline"
	"github.com/Nephrolytics-ai/chartscribe/pkg/save"
	"github.com/Nephrolytics-ai/chartscribe/pkg/server"
	"github.com/Nephrolytics-ai/chartscribe/pkg/store"
	"github.com/Nephrolytics-ai/chartscribe/pkg/summarize"
	"github.com/Nephrolytics-ai/chartscribe/pkg/transcribe"
	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	rootCmd := &cobra.Command{
		Use:   "chartscribe",
		Short: "Transcribe and summarize patient-visit audio into structured records",
	}
	rootCmd.AddCommand(newServeCmd(cfg))
	rootCmd.AddCommand(newProcessCmd(cfg))
	rootCmd.AddCommand(newRecordCmd(cfg))
	return rootCmd.Execute()
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chartscribe HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			records, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("opening record store: %w", err)
			}
			defer records.Close()

			processor, err := buildProcessor(cfg)
			if err != nil {
				return err
			}

			audioDir := ""
			if cfg.BlobBackend == "fs" {
				audioDir = cfg.BlobDir
			}

			srv := server.New(processor, records, audioDir)
			logging.NewLogger(ctx).Infof("listening addr=%q db=%q blob=%q", cfg.ListenAddr, cfg.DBPath, cfg.BlobBackend)
			return http.ListenAndServe(cfg.ListenAddr, srv.Handler())
		},
	}
}

func newProcessCmd(cfg *config.Config) *cobra.Command {
	var patientName string

	cmd := &cobra.Command{
		Use:   "process <audio-url>",
		Short: "Run the transcription and summarization pipeline on one audio URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			processor, err := buildProcessor(cfg)
			if err != nil {
				return err
			}

			result, err := processor.Process(cmd.Context(), pipeline.Request{
				AudioURL:    args[0],
				PatientName: patientName,
				UserID:      "cli",
			})
			if err != nil {
				return err
			}

			fmt.Println("# Transcript")
			fmt.Println(result.Transcript)
			fmt.Println()
			fmt.Println("# Summary")
			fmt.Println(result.Summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&patientName, "patient", "p", "", "Patient name for summary context")
	return cmd
}

func newRecordCmd(cfg *config.Config) *cobra.Command {
	var form model.VisitForm
	var userID string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a visit from the microphone and save it as a new patient record",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			records, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("opening record store: %w", err)
			}
			defer records.Close()

			storage, err := buildStorage(ctx, cfg)
			if err != nil {
				return fmt.Errorf("building blob storage: %w", err)
			}

			processor, err := buildProcessor(cfg)
			if err != nil {
				return err
			}

			engine := capture.NewEngine(&capture.FFmpegDevice{})
			if err := engine.Start(ctx); err != nil {
				return err
			}

			fmt.Println("Recording... press Enter to stop.")
			_, _ = bufio.NewReader(os.Stdin).ReadString('\n')

			seconds := engine.Duration()
			artifact, err := engine.Stop()
			if artifact == nil {
				return fmt.Errorf("no audio captured: %w", err)
			}
			if err != nil {
				logging.NewLogger(ctx).Warnf("recorder shutdown: %v", err)
			}
			fmt.Printf("Captured %d seconds of audio (%d bytes).\n", seconds, len(artifact.Data))

			coordinator := save.NewCoordinator(records, storage, processor)
			rec, err := coordinator.Save(ctx, save.Request{
				Ref:    model.NewRecord(),
				Audio:  artifact,
				Form:   form,
				UserID: userID,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Saved record %s\n", rec.ID)
			fmt.Println()
			fmt.Println(rec.Summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "cli", "Owning user id")
	cmd.Flags().StringVarP(&form.Name, "name", "n", "", "Patient name")
	cmd.Flags().StringVar(&form.PatientAge, "age", "", "Patient age")
	cmd.Flags().StringVar(&form.VisitDate, "visit-date", "", "Visit date (ISO-8601)")
	cmd.Flags().StringVarP(&form.Title, "title", "t", "", "Record title")
	cmd.Flags().StringVar(&form.Description, "description", "", "Record description")
	return cmd
}

func buildProcessor(cfg *config.Config) (*pipeline.Processor, error) {
	transcriber, err := transcribe.New(cfg.TranscribeProvider, transcribeOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("building transcriber: %w", err)
	}

	summarizer, err := summarize.New(cfg.SummaryProvider, summarizeOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("building summarizer: %w", err)
	}

	return pipeline.NewProcessor(ingest.NewFetcher(), transcriber, summarizer), nil
}

// transcribeOptions selects the credential for the configured provider.
func transcribeOptions(cfg *config.Config) transcribe.Options {
	opts := transcribe.Options{Model: cfg.TranscribeModel}
	switch cfg.TranscribeProvider {
	case transcribe.ProviderGemini:
		opts.AuthToken = cfg.GeminiKey
	default:
		opts.AuthToken = cfg.OpenAIKey
	}
	return opts
}

// summarizeOptions wires each backend only with the settings it owns: the
// ollama URL never leaks into Bedrock's endpoint, and the OpenAI key never
// reaches another provider.
func summarizeOptions(cfg *config.Config) summarize.Options {
	opts := summarize.Options{Model: cfg.SummaryModel, SystemPrompt: cfg.SummaryPrompt}
	switch cfg.SummaryProvider {
	case summarize.ProviderOllama:
		opts.URL = cfg.OllamaURL
	case summarize.ProviderBedrock:
		// credentials and endpoint come from the AWS environment
	default:
		opts.AuthToken = cfg.OpenAIKey
	}
	return opts
}

// buildStorage resolves the configured blob backend. The fs backend is served
// by the HTTP process itself; the s3 backend needs AWS credentials in the env.
func buildStorage(ctx context.Context, cfg *config.Config) (blob.Storage, error) {
	switch cfg.BlobBackend {
	case "s3":
		return blob.NewS3Storage(ctx, cfg.S3Bucket, cfg.BlobBaseURL)
	default:
		return blob.NewFSStorage(cfg.BlobDir, cfg.BlobBaseURL), nil
	}
}
