package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/ledger/store"
	"github.com/rustyeddy/ledger/trade"
)

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Execute a buy or sell",
	Long: `Execute a trade: move money in the wallet, append the order
to the ledger and update the cost-basis trackers, as one unit.

The price is units of the quote currency per unit of the base
currency. The amount is denominated by --in: the base currency, the
quote currency, or "all" to move the entire relevant balance.

Examples:
  ledger trade buy BTC THB --price 100 --amount 1
  ledger trade sell BTC THB --price 150 --amount 450 --in quote
  ledger trade sell BTC THB --price 150 --in all`,
}

var tradeBuyCmd = &cobra.Command{
	Use:   "buy <base> <quote>",
	Short: "Buy the base currency with the quote currency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(store.Buy, args)
	},
}

var tradeSellCmd = &cobra.Command{
	Use:   "sell <base> <quote>",
	Short: "Sell the base currency for the quote currency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(store.Sell, args)
	},
}

var (
	tradePrice  string
	tradeAmount string
	tradeIn     string
	tradeFee    string
	tradeTax    string
	tradeMethod string
)

func init() {
	rootCmd.AddCommand(tradeCmd)
	tradeCmd.AddCommand(tradeBuyCmd)
	tradeCmd.AddCommand(tradeSellCmd)

	tradeCmd.PersistentFlags().StringVarP(&tradePrice, "price", "p", "", "price, quote per unit of base (required)")
	tradeCmd.PersistentFlags().StringVarP(&tradeAmount, "amount", "a", "", "trade amount, denominated per --in")
	tradeCmd.PersistentFlags().StringVar(&tradeIn, "in", "base", "amount denomination: base, quote or all")
	tradeCmd.PersistentFlags().StringVar(&tradeFee, "fee", "0", "fee in the quote currency")
	tradeCmd.PersistentFlags().StringVar(&tradeTax, "tax", "0", "tax in the quote currency")
	tradeCmd.PersistentFlags().StringVarP(&tradeMethod, "method", "m", "", "cost method: fifo, average or both (default from config)")
}

func runTrade(side store.Side, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	price, err := decimal.NewFromString(tradePrice)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	fee, err := decimal.NewFromString(tradeFee)
	if err != nil {
		return fmt.Errorf("fee: %w", err)
	}
	tax, err := decimal.NewFromString(tradeTax)
	if err != nil {
		return fmt.Errorf("tax: %w", err)
	}

	var quantity trade.Quantity
	switch tradeIn {
	case "base":
		quantity = trade.OfCurrency1
	case "quote":
		quantity = trade.OfCurrency2
	case "all":
		quantity = trade.All
	default:
		return fmt.Errorf("--in must be base, quote or all, got %q", tradeIn)
	}

	amount := decimal.Zero
	if quantity != trade.All {
		if tradeAmount == "" {
			return fmt.Errorf("--amount is required unless --in all")
		}
		amount, err = decimal.NewFromString(tradeAmount)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
	}

	methodName := tradeMethod
	if methodName == "" {
		methodName = a.cfg.Trading.Method
	}
	method, err := trade.ParseMethod(methodName)
	if err != nil {
		return err
	}

	res, err := a.executor.Execute(trade.Request{
		Side:      side,
		Currency1: args[0],
		Currency2: args[1],
		Price:     price,
		Amount:    amount,
		Quantity:  quantity,
		Fee:       fee,
		Tax:       tax,
		Method:    method,
	})
	if err != nil {
		return err
	}

	fmt.Printf("order %d  ref %s\n", res.Order.ID, res.Ref)
	fmt.Printf("spent    %s\n", res.Spent.String())
	fmt.Printf("received %s\n", res.Received.String())
	for _, lot := range res.Consumed {
		fmt.Printf("consumed %s acquired %s cost %s\n",
			lot.Amount.String(), lot.Time.Format("2006-01-02 15:04:05"), lot.Cost.String())
	}
	return nil
}
