package cmd

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance [currency]",
	Short: "Show wallet balances",
	Long: `Show the balance of one currency, or every currency when none is given.

Examples:
  ledger balance
  ledger balance BTC`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBalance,
}

var depositCmd = &cobra.Command{
	Use:   "deposit <currency> <amount>",
	Short: "Credit the wallet from outside the ledger",
	Args:  cobra.ExactArgs(2),
	RunE:  runDeposit,
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <currency> <amount>",
	Short: "Debit the wallet to outside the ledger",
	Args:  cobra.ExactArgs(2),
	RunE:  runWithdraw,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(depositCmd)
	rootCmd.AddCommand(withdrawCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 1 {
		bal, err := a.wallet.Balance(args[0])
		if err != nil {
			return err
		}
		fmt.Println(bal.String())
		return nil
	}

	balances, err := a.wallet.Balances()
	if err != nil {
		return err
	}
	currencies := make([]string, 0, len(balances))
	for c := range balances {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, c := range currencies {
		fmt.Printf("%-8s %s\n", c, balances[c].String())
	}
	return nil
}

func runDeposit(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	bal, err := a.wallet.Credit(args[0], amount)
	if err != nil {
		return err
	}
	fmt.Printf("%s balance %s\n", args[0], bal.String())
	return nil
}

func runWithdraw(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	bal, err := a.wallet.Debit(args[0], amount)
	if err != nil {
		return err
	}
	fmt.Printf("%s balance %s\n", args[0], bal.String())
	return nil
}
