// Package main provides the load command-line tool that writes canonical
// batches into the document store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"contratosmadrid/internal/batch"
	"contratosmadrid/internal/config"
	"contratosmadrid/internal/formatter"
	"contratosmadrid/internal/loader"
	"contratosmadrid/internal/logger"
	"contratosmadrid/internal/store"
)

func main() {
	configFile := flag.String("config", "configs/pipeline.yaml", "Path to YAML configuration file")
	target := flag.String("target", "all", "What to load: companies, contracts or all")
	fromFlag := flag.String("from", "", "Start date override (YYYY-MM-DD)")
	toFlag := flag.String("to", "", "End date override (YYYY-MM-DD)")
	flag.Parse()

	if *target != "companies" && *target != "contracts" && *target != "all" {
		log.Fatalf("❌ Unknown target %q (want companies, contracts or all)", *target)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	logr := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	from, to := cfg.DateRange()

	if *fromFlag != "" {
		if from, err = time.Parse("2006-01-02", *fromFlag); err != nil {
			log.Fatalf("❌ Invalid -from date: %v", err)
		}
	}

	if *toFlag != "" {
		if to, err = time.Parse("2006-01-02", *toFlag); err != nil {
			log.Fatalf("❌ Invalid -to date: %v", err)
		}
	}

	st, err := store.OpenSQLite(cfg.Pipeline.Store.Path)
	if err != nil {
		log.Fatalf("❌ Failed to open store: %v", err)
	}
	defer st.Close()

	files, err := batch.Walk(cfg.Pipeline.BatchDir, from, to)
	if err != nil {
		log.Fatalf("❌ Failed to list batches: %v", err)
	}

	fmt.Printf("🚀 Loading %d batch(es) into %s\n", len(files), cfg.Pipeline.Store.Path)

	ctx := context.Background()
	companies := loader.NewCompanyWriter(st, logr)
	contracts := loader.NewContractWriter(st, logr)

	var rows [][]string

	var totalContracts, totalCompanies, totalUnresolved int

	for _, f := range files {
		records, err := batch.Read(f.Path)
		if err != nil {
			logr.Error("skipping unreadable batch", "file", f.Path, "error", err)

			continue
		}

		var companyUpserts, written, unresolved int

		// Companies for the day go in first, so link resolution sees the
		// freshest state for the batch.
		if *target == "companies" || *target == "all" {
			if companyUpserts, err = companies.WriteBatch(ctx, records); err != nil {
				log.Fatalf("❌ Company load failed for %s: %v", f.Date, err)
			}
		}

		if *target == "contracts" || *target == "all" {
			if written, unresolved, err = contracts.WriteBatch(ctx, records); err != nil {
				log.Fatalf("❌ Contract load failed for %s: %v", f.Date, err)
			}
		}

		totalContracts += written
		totalCompanies += companyUpserts
		totalUnresolved += unresolved

		rows = append(rows, []string{
			f.Date,
			strconv.Itoa(len(records)),
			strconv.Itoa(companyUpserts),
			strconv.Itoa(written),
			strconv.Itoa(unresolved),
		})
	}

	if len(rows) > 0 {
		fmt.Println()
		fmt.Print(formatter.RenderTable(
			[]string{"Day", "Batch size", "Company upserts", "Contracts written", "Unresolved links"},
			rows,
		))
	}

	fmt.Printf("\n✅ Load done: %d contract(s), %d company upsert(s), %d unresolved link(s)\n",
		totalContracts, totalCompanies, totalUnresolved)
}
