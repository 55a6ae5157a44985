package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyframe-audio/pianissimo/config"
	"github.com/keyframe-audio/pianissimo/dataset"
	"github.com/keyframe-audio/pianissimo/fetch"
	"github.com/keyframe-audio/pianissimo/logging"
	"github.com/keyframe-audio/pianissimo/pipeline"
)

func main() {
	root := &cobra.Command{
		Use:           "pianissimo",
		Short:         "Piano / non-piano audio classifier",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			logging.SetLevel(logging.DebugLevel)
		}
	}

	root.AddCommand(downloadCmd(), manifestCmd(), trainCmd(), predictCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func downloadCmd() *cobra.Command {
	var (
		out   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download public piano note samples from the University of Iowa",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := fetch.NewDownloader()
			n, err := d.Download(cmd.Context(), out, limit)
			if err != nil {
				return err
			}
			fmt.Printf("downloaded %d files into %s\n", n, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "ml/data/raw/piano/uiowa", "output folder")
	cmd.Flags().IntVar(&limit, "limit", 60, "max number of files to download")

	return cmd
}

func manifestCmd() *cobra.Command {
	var (
		root string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Build the training manifest from labeled data folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := dataset.BuildManifest(root)
			if err != nil {
				return err
			}
			if err := dataset.WriteManifest(entries, out); err != nil {
				return err
			}
			fmt.Printf("manifest: %s (%d rows)\n", out, len(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "ml/data/raw", "raw data root")
	cmd.Flags().StringVar(&out, "out", "ml/data/labels/manifest.csv", "output manifest")

	return cmd
}

func trainCmd() *cobra.Command {
	var (
		manifest   string
		configPath string
		modelOut   string
		reportOut  string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the baseline piano/non-piano classifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			report, err := pipeline.Train(cmd.Context(), cfg, manifest, modelOut, reportOut)
			if err != nil {
				return err
			}

			fmt.Printf("model: %s\n", modelOut)
			fmt.Printf("report: %s\n", reportOut)
			fmt.Printf("val_auc=%.4f test_auc=%.4f\n", report.ValAUC, report.TestAUC)
			return nil
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "ml/data/labels/manifest.csv", "training manifest")
	cmd.Flags().StringVar(&configPath, "config", "ml/configs/train_config.yaml", "training configuration")
	cmd.Flags().StringVar(&modelOut, "model-out", "ml/models/baseline_logreg.json", "model artifact destination")
	cmd.Flags().StringVar(&reportOut, "report-out", "ml/reports/baseline_metrics.json", "metrics report destination")

	return cmd
}

func predictCmd() *cobra.Command {
	var (
		modelPath  string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "predict <audio-file>",
		Short: "Run the trained model on one audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			pred, err := pipeline.PredictFile(cmd.Context(), cfg.Extraction, modelPath, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("file=%s\n", pred.Path)
			fmt.Printf("piano_probability=%.4f\n", pred.PianoProbability)
			fmt.Printf("prediction=%s\n", pred.Label)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "ml/models/baseline_logreg.json", "model artifact")
	cmd.Flags().StringVar(&configPath, "config", "ml/configs/train_config.yaml", "training configuration")

	return cmd
}
