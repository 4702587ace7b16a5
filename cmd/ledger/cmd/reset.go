package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear ledger state",
	Long: `Clear selected parts of the ledger. Pick at least one of the
flags; --all clears everything.

Examples:
  ledger reset --lots --averages
  ledger reset --all`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var (
	resetOrders   bool
	resetLots     bool
	resetAverages bool
	resetWallet   bool
	resetAll      bool
)

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolVar(&resetOrders, "orders", false, "clear the order ledger; the id sequence restarts")
	resetCmd.Flags().BoolVar(&resetLots, "lots", false, "clear the FIFO lots")
	resetCmd.Flags().BoolVar(&resetAverages, "averages", false, "clear the weighted-average records")
	resetCmd.Flags().BoolVar(&resetWallet, "wallet", false, "clear the wallet balances")
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "clear everything")
}

func runReset(cmd *cobra.Command, args []string) error {
	if resetAll {
		resetOrders, resetLots, resetAverages, resetWallet = true, true, true, true
	}
	if !resetOrders && !resetLots && !resetAverages && !resetWallet {
		return fmt.Errorf("nothing selected; pass --orders, --lots, --averages, --wallet or --all")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if resetOrders {
		if err := a.ledger.Reset(); err != nil {
			return err
		}
		fmt.Println("orders cleared")
	}
	if resetLots {
		if err := a.fifo.Reset(); err != nil {
			return err
		}
		fmt.Println("fifo lots cleared")
	}
	if resetAverages {
		if err := a.average.Reset(); err != nil {
			return err
		}
		fmt.Println("average records cleared")
	}
	if resetWallet {
		if err := a.wallet.Reset(); err != nil {
			return err
		}
		fmt.Println("wallet cleared")
	}
	return nil
}
