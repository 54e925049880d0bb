package main

import (
	"fmt"
	"log"
	"os"

	"github.com/address-dedupe/app/bootstrap"
	"github.com/spf13/cobra"
)

func main() {
	if err := bootstrap.LoadConfig(); err != nil {
		log.Fatalf("Cannot load dedupe config: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Address deduplication tools",
		Long:  `Classify duplicate addresses, generate near-dupe keys and seed reference records from JSONL files`,
	}

	rootCmd.AddCommand(createBatchCmd())
	rootCmd.AddCommand(createHashCmd())
	rootCmd.AddCommand(createClassifyCmd())
	rootCmd.AddCommand(createSeedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
