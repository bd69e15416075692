package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/macrolens/menulens/internal/delivery/batch"
	"github.com/macrolens/menulens/internal/usecase"
)

var (
	runInput   string
	runOutput  string
	runWorkers int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract menus for a list of restaurants",
	Long: `Run the pipeline over a JSON array of restaurants and write one JSON
result per line, in completion order.

Input entries look like:
  {"id": "r1", "name": "Thai Garden", "url": "https://thaigarden.example", "location": "Austin, TX"}

Examples:
  menulens run --input restaurants.json                       # Results to stdout
  menulens run -i restaurants.json -o results.jsonl -w 8      # 8 workers`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if runWorkers > 0 {
			cfg.Pipeline.Workers = runWorkers
		}

		descs, err := batch.ReadFile(runInput)
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if runOutput != "" && runOutput != "-" {
			f, err := os.Create(runOutput)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			out = f
		}

		p, err := buildPipeline(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer p.Close()

		writer := batch.NewResultWriter(out)
		scheduler := usecase.NewScheduler(p.orchestrator, cfg.Pipeline.Workers, logger)

		logger.Info("batch started", zap.Int("restaurants", len(descs)), zap.Int("workers", cfg.Pipeline.Workers))
		runErr := scheduler.Run(ctx, descs, writer.Write)

		summary := writer.Summary()
		logger.Info("batch finished",
			zap.Int("restaurants", summary.Restaurants),
			zap.Int("succeeded", summary.Succeeded),
			zap.Int("items", summary.Items))

		if err := writer.Err(); err != nil {
			return err
		}
		if runErr != nil {
			return fmt.Errorf("batch interrupted after %d of %d restaurants: %w", summary.Restaurants, len(descs), runErr)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "JSON file with the restaurants to process")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "JSON lines output file (default stdout)")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "concurrent restaurants (overrides pipeline.workers)")
	_ = runCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(runCmd)
}
