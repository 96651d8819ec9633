package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ubp-service/internal/fileio"
	"ubp-service/internal/ubp/export"
	"ubp-service/internal/ubp/service"
)

type calcOptions struct {
	sheet     string
	headerRow int
	format    string
	top       int
	out       string
}

func newCalcCmd(root *rootOptions) *cobra.Command {
	opts := &calcOptions{}
	cmd := &cobra.Command{
		Use:   "calc <mengenliste.xlsx>",
		Short: "Calculate UBP for a Mengenliste export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := root.logger(cmd)
			st, err := root.store(log)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			calc := service.NewCalculator(service.NewMatcher(st), log)
			run, err := calc.Run(f, filepath.Base(args[0]), fileio.Options{Sheet: opts.sheet, HeaderRow: opts.headerRow})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.out != "" {
				of, err := os.Create(opts.out)
				if err != nil {
					return err
				}
				defer of.Close()
				w = of
			}
			return render(w, opts, run)
		},
	}
	cmd.Flags().StringVar(&opts.sheet, "sheet", "Mengenliste", "sheet name")
	cmd.Flags().IntVar(&opts.headerRow, "header-row", 8, "header row (1-based)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "output format: table, json, csv, xlsx, pdf")
	cmd.Flags().IntVar(&opts.top, "top", 10, "number of top components in table output")
	cmd.Flags().StringVarP(&opts.out, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func render(w io.Writer, opts *calcOptions, run service.RunResult) error {
	res := run.Results
	switch opts.format {
	case "table", "":
		return renderTable(w, run, opts.top)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Summary   service.Summary          `json:"summary"`
			Parse     service.ParseStats       `json:"parse"`
			Rows      []service.Row            `json:"components"`
			Unmatched []service.UnmatchedGroup `json:"unmatched_by_material"`
		}{service.Summarize(res), run.Parse, service.Rows(res), service.UnmatchedByMaterial(res)})
	default:
		f, err := export.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		b, err := export.Render(f, res)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
}

func renderTable(w io.Writer, run service.RunResult, top int) error {
	res := run.Results
	sum := service.Summarize(res)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Datei:\t%s (%s)\n", run.File, run.Sheet)
	fmt.Fprintf(tw, "Total UBP:\t%s\n", export.FormatNumber(sum.TotalUBP))
	fmt.Fprintf(tw, "Gesamtgewicht:\t%.2f kg\n", sum.TotalWeightKg)
	fmt.Fprintf(tw, "Trefferquote:\t%.1f%% (%d/%d)\n", sum.MatchRate, sum.ComponentsMatched, sum.ComponentsTotal)
	fmt.Fprintf(tw, "Nicht zugeordnet:\t%d\n", sum.UnmatchedCount)

	fmt.Fprintln(tw, "\nMATERIAL\tUBP\tANTEIL")
	for _, b := range service.SortedMaterials(res) {
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\n", b.Name, export.FormatNumber(b.UBP), share(b.UBP, res.TotalUBP))
	}
	fmt.Fprintln(tw, "\nBESCHICHTUNG\tUBP\t")
	for _, b := range service.SortedCoatings(res) {
		fmt.Fprintf(tw, "%s\t%s\t\n", b.Name, export.FormatNumber(b.UBP))
	}
	fmt.Fprintln(tw, "\nPOS\tBEZEICHNUNG\tUBP\tKUMULIERT")
	for _, c := range service.TopN(res, top) {
		fmt.Fprintf(tw, "%g\t%s\t%s\t%.1f%%\n", c.Pos, c.Description, export.FormatNumber(c.UBPTotal), c.CumulativePct)
	}
	if len(res.Unmatched) > 0 {
		fmt.Fprintln(tw, "\nNICHT ZUGEORDNET\tANZAHL\tGEWICHT")
		for _, g := range service.UnmatchedByMaterial(res) {
			fmt.Fprintf(tw, "%s\t%d\t%.2f kg\n", orDash(g.Material), g.Count, g.WeightKg)
		}
	}
	return tw.Flush()
}

func share(v, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return v / total * 100
}

func orDash(s string) string {
	if s == "" {
		return "(leer)"
	}
	return s
}
