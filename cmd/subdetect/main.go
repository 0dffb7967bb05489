package main

import (
	"context"
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/dvloznov/moneymagic/internal/ingest"
	"github.com/dvloznov/moneymagic/internal/pipeline"
	"github.com/dvloznov/moneymagic/internal/report"
	"github.com/dvloznov/moneymagic/internal/statement"
)

type Params struct {
	Format string `descr:"Statement format" default:"auto" alts:"auto,csv,xlsx" strict:"true"`
	File   string `descr:"Path or gs:// URI of the statement file" positional:"true"`
}

func main() {
	boa.NewCmdT[Params]("subdetect").
		WithShort("Detect recurring subscriptions in a bank statement").
		WithLong("Parses a CSV or XLSX statement and lists merchants charged at a regular weekly, bi-weekly or monthly cadence, with their estimated monthly cost.").
		WithRunFunc(func(params *Params) {
			name, data, err := statement.Load(context.Background(), params.File)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
				os.Exit(1)
			}

			format := params.Format
			if format == "auto" {
				format = ingest.DetectFormat(name, "", data)
			}

			txs, err := ingest.Parse(format, data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing file: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("Loaded %d transactions\n\n", len(txs))

			subs := pipeline.DetectSubscriptions(pipeline.CategorizeTransactions(txs))
			report.WriteSubscriptions(os.Stdout, subs)
		}).
		Run()
}
