package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/ghadfield32/ml-preprocessing-utils/pkg/config"
	"github.com/ghadfield32/ml-preprocessing-utils/pkg/data"
	"github.com/ghadfield32/ml-preprocessing-utils/pkg/dataset"
	"github.com/ghadfield32/ml-preprocessing-utils/pkg/pipeline"
	"github.com/ghadfield32/ml-preprocessing-utils/pkg/prep"
)

//
// ---------------------- CLI FLAGS DOCUMENTATION ----------------------
//
// --input    : Path to input CSV file
// --mode     : train, predict or cluster
// --model    : Model type key for the artifact store. Default = lead_scoring
// --target   : Name of the label column (train mode; column is split off the CSV)
// --ordinal  : Comma-separated ordinal categorical columns
// --nominal  : Comma-separated nominal categorical columns
// --numeric  : Comma-separated numeric columns
// --config   : Optional YAML options file
// --preview  : Number of transformed rows to preview in console
// --debug    : Enable debug logging
//
// Example:
//   go run main.go --input leads.csv --mode train --target converted \
//     --nominal city,channel --numeric age,income --preview 5
//
// ---------------------------------------------------------------------
//

func previewFrame(f *dataset.Frame, n int) {
	if n > f.NumRows() {
		n = f.NumRows()
	}
	for _, c := range f.Columns {
		fmt.Printf("%-18s", c)
	}
	fmt.Println()
	for i := 0; i < n; i++ {
		for _, v := range f.Data[i] {
			fmt.Printf("%-18.6f", v)
		}
		fmt.Println()
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func main() {
	inputPath := flag.String("input", "", "Path to input CSV file")
	mode := flag.String("mode", "train", "Pipeline mode: train, predict or cluster")
	model := flag.String("model", "lead_scoring", "Model type key for the artifact store")
	target := flag.String("target", "", "Label column name (train mode)")
	ordinal := flag.String("ordinal", "", "Comma-separated ordinal categorical columns")
	nominal := flag.String("nominal", "", "Comma-separated nominal categorical columns")
	numeric := flag.String("numeric", "", "Comma-separated numeric columns")
	configPath := flag.String("config", "", "Optional YAML options file")
	preview := flag.Int("preview", 5, "Number of transformed rows to preview")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("--input is required")
	}

	var opts *config.Options
	if *configPath != "" {
		o, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		opts = &o
	}

	var targets []string
	if *target != "" {
		targets = []string{*target}
	}
	orch, err := pipeline.New(*model, targets, splitList(*ordinal), splitList(*nominal), splitList(*numeric),
		prep.Mode(*mode), opts, *debug)
	if err != nil {
		log.Fatalf("Error constructing pipeline: %v", err)
	}

	table, err := data.ReadCSV(*inputPath)
	if err != nil {
		log.Fatalf("Error reading CSV: %v", err)
	}
	fmt.Printf("Loaded raw data: %d rows, %d columns\n", table.NumRows(), len(table.Columns))

	switch prep.Mode(*mode) {
	case prep.ModeTrain:
		if *target == "" {
			log.Fatal("--target is required in train mode")
		}
		labels, ok := table.Column(*target)
		if !ok {
			log.Fatalf("Label column %q not found", *target)
		}
		features := table.DropColumns(*target)

		result, err := orch.PreprocessTrain(features, labels)
		if err != nil {
			log.Fatalf("Training preprocessing failed: %v", err)
		}
		fmt.Printf("Train split: %d rows, test split: %d rows, %d feature columns\n",
			result.TrainX.NumRows(), result.TestX.NumRows(), len(result.TrainX.Columns))
		previewFrame(result.TrainX, *preview)
		printReport(result.Report)

	case prep.ModePredict, prep.ModeCluster:
		result, err := orch.PreprocessPredict(table)
		if err != nil {
			log.Fatalf("Inference preprocessing failed: %v", err)
		}
		fmt.Printf("Transformed: %d rows, %d feature columns\n",
			result.X.NumRows(), len(result.X.Columns))
		previewFrame(result.X, *preview)
		printReport(result.Report)

	default:
		log.Fatalf("Unknown mode %q", *mode)
	}
}

func printReport(r *pipeline.Report) {
	fmt.Printf("\nRun %s (%s): %d recommendations\n", r.RunID, r.Mode, len(r.Records))
	for _, rec := range r.Records {
		if rec.Column != "" {
			fmt.Printf("  [%s] %s %s: %s\n", rec.Stage, rec.Action, rec.Column, rec.Detail)
		} else {
			fmt.Printf("  [%s] %s: %s\n", rec.Stage, rec.Action, rec.Detail)
		}
	}
}
