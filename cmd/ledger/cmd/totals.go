package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var totalsCmd = &cobra.Command{
	Use:   "totals [currency]",
	Short: "Show cost-basis totals",
	Long: `Show the FIFO lots and the weighted-average record of one
currency, or a summary of every tracked currency when none is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTotals,
}

func init() {
	rootCmd.AddCommand(totalsCmd)
}

func runTotals(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 1 {
		return totalsFor(a, args[0])
	}

	currencies, err := a.fifo.Currencies()
	if err != nil {
		return err
	}
	avgCurrencies, err := a.average.Currencies()
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, c := range append(currencies, avgCurrencies...) {
		if seen[c] {
			continue
		}
		seen[c] = true
		if err := totalsFor(a, c); err != nil {
			return err
		}
	}
	return nil
}

func totalsFor(a *app, currency string) error {
	lots, err := a.fifo.Lots(currency)
	if err != nil {
		return err
	}
	rec, err := a.average.Record(currency)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", rec.Currency)
	for _, lot := range lots {
		fmt.Printf("  lot %s  amount %s cost %s\n",
			lot.Time.Format("2006-01-02 15:04:05"), lot.Amount.String(), lot.Cost.String())
	}
	fifoTotal, err := a.fifo.TotalAmount(currency)
	if err != nil {
		return err
	}
	fmt.Printf("  fifo total    %s\n", fifoTotal.String())
	fmt.Printf("  average       %s units at %s\n", rec.Amount.String(), rec.Cost.String())
	return nil
}
