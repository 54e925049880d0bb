package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/address-dedupe/app/bootstrap"
	"github.com/address-dedupe/app/config"
	"github.com/address-dedupe/app/services"
	"github.com/address-dedupe/internal/dedupe"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// offlineService builds a DedupeService with in-memory stores only.
func offlineService() *services.DedupeService {
	logger := bootstrap.InitLogger()
	deps, err := bootstrap.NewCore(config.C, logger)
	if err != nil {
		log.Fatalf("Failed to initialize dedupe core: %v", err)
	}
	svc, err := services.NewDedupeService(deps, config.C, logger)
	if err != nil {
		log.Fatalf("Failed to initialize dedupe service: %v", err)
	}
	return svc
}

func createBatchCmd() *cobra.Command {
	var minStatus, output string

	cmd := &cobra.Command{
		Use:   "batch [records.jsonl]",
		Short: "Find duplicate pairs among records",
		Long:  `Reads one record per line ("-" for stdin) and writes one classified pair per line`,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			status, err := dedupe.ParseStatus(minStatus)
			if err != nil {
				log.Fatalf("Invalid --min-status: %v", err)
			}
			records, err := readRecordsFile(args[0])
			if err != nil {
				log.Fatalf("Failed to read records: %v", err)
			}

			svc := offlineService()
			result, err := svc.DedupeBatch(context.Background(), records, services.BatchOptions{MinStatus: status})
			if err != nil {
				log.Fatalf("Batch failed: %v", err)
			}

			out, closeOut := openOutput(output)
			defer closeOut()
			for _, p := range result.Pairs {
				if err := writeJSONLine(out, p); err != nil {
					log.Fatalf("Failed to write pair: %v", err)
				}
			}
			fmt.Fprintf(os.Stderr, "%d records, %d candidates, %d pairs, %d oversized blocks skipped (%s)\n",
				result.Records, result.Candidates, len(result.Pairs), result.SkippedBlocks, result.Duration)
		},
	}

	cmd.Flags().StringVar(&minStatus, "min-status", "NEEDS_REVIEW", "weakest status to report")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file")
	return cmd
}

func createHashCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "hash [records.jsonl]",
		Short: "Print the near-dupe keys of each record",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			records, err := readRecordsFile(args[0])
			if err != nil {
				log.Fatalf("Failed to read records: %v", err)
			}

			svc := offlineService()
			out, closeOut := openOutput(output)
			defer closeOut()
			for _, r := range records {
				a := r.Components
				if len(a) == 0 {
					lang := ""
					if len(r.Languages) > 0 {
						lang = r.Languages[0]
					}
					if a, err = svc.Parse(r.Raw, lang, ""); err != nil {
						log.Printf("Skipping record %s: %v", r.ID, err)
						continue
					}
				}
				labels, values := a.Split()
				keys, err := svc.Hashes(labels, values, r.Geo, nil, r.Languages)
				if err != nil {
					log.Printf("Skipping record %s: %v", r.ID, err)
					continue
				}
				if err := writeJSONLine(out, hashLine{ID: r.ID, Keys: keys}); err != nil {
					log.Fatalf("Failed to write keys: %v", err)
				}
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file")
	return cmd
}

type hashLine struct {
	ID   string   `json:"id"`
	Keys []string `json:"keys"`
}

func createClassifyCmd() *cobra.Command {
	var kind, languages string

	cmd := &cobra.Command{
		Use:   "classify [value1] [value2]",
		Short: "Classify two values of one field",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			var langs []string
			if languages != "" {
				langs = strings.Split(languages, ",")
			}
			status, err := offlineService().ClassifyField(args[0], args[1], kind, langs)
			if err != nil {
				log.Fatalf("Classification failed: %v", err)
			}
			fmt.Println(status)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "name", "field kind: "+strings.Join(fieldKindNames(), ", "))
	cmd.Flags().StringVar(&languages, "languages", "", "comma-separated language codes")
	return cmd
}

func fieldKindNames() []string {
	out := make([]string, len(dedupe.FieldKinds))
	for i, k := range dedupe.FieldKinds {
		out[i] = string(k)
	}
	return out
}

func createSeedCmd() *cobra.Command {
	var configure, dryRun bool

	cmd := &cobra.Command{
		Use:   "seed [records.jsonl]",
		Short: "Store reference records in MongoDB and index them in Meilisearch",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			records, err := readRecordsFile(args[0])
			if err != nil {
				log.Fatalf("Failed to read records: %v", err)
			}

			logger := bootstrap.InitLogger()
			defer logger.Sync()

			app, err := bootstrap.Build(context.Background(), config.C, logger)
			if err != nil {
				logger.Fatal("Failed to initialize services", zap.Error(err))
			}
			defer app.Close()

			if dryRun {
				v := app.Admin.ValidateRecords(records)
				fmt.Printf("validation passed: %v\n", v.Passed)
				for _, w := range v.Warnings {
					fmt.Println("  " + w)
				}
				return
			}

			res, err := app.Admin.SeedRecords(context.Background(), records, configure)
			if err != nil {
				logger.Fatal("Seed failed", zap.Error(err))
			}
			fmt.Printf("processed %d, stored %d, indexed %d in %dms\n",
				res.RecordsProcessed, res.RecordsStored, res.Indexed, res.ProcessingTimeMs)
		},
	}

	cmd.Flags().BoolVar(&configure, "configure-index", true, "apply index settings before indexing")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only validate the records")
	return cmd
}
