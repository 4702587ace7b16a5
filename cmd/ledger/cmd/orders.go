package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/ledger/ledger"
	"github.com/rustyeddy/ledger/orderid"
	"github.com/rustyeddy/ledger/store"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Query and amend the order ledger",
	Long: `Query and display ledger orders.

Subcommands:
  list      - List every order
  get       - Show one order by id
  amend     - Overwrite fields of a stored order
  remaining - Report how many order ids are left

Examples:
  ledger orders list
  ledger orders get 13
  ledger orders amend 13 --price 101.5`,
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every order, id ascending",
	Args:  cobra.NoArgs,
	RunE:  runOrdersList,
}

var ordersGetCmd = &cobra.Command{
	Use:   "get <order-id>",
	Short: "Show one order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersGet,
}

var ordersAmendCmd = &cobra.Command{
	Use:   "amend <order-id>",
	Short: "Overwrite fields of a stored order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersAmend,
}

var ordersRemainingCmd = &cobra.Command{
	Use:   "remaining",
	Short: "Report how many order ids are left",
	Args:  cobra.NoArgs,
	RunE:  runOrdersRemaining,
}

var (
	amendSide     string
	amendCurrency string
	amendAmount   string
	amendPrice    string
	amendFee      string
	amendTax      string
)

func init() {
	rootCmd.AddCommand(ordersCmd)
	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersGetCmd)
	ordersCmd.AddCommand(ordersAmendCmd)
	ordersCmd.AddCommand(ordersRemainingCmd)

	ordersAmendCmd.Flags().StringVar(&amendSide, "side", "", "new side: BUY or SELL")
	ordersAmendCmd.Flags().StringVar(&amendCurrency, "currency", "", "new currency")
	ordersAmendCmd.Flags().StringVar(&amendAmount, "amount", "", "new amount")
	ordersAmendCmd.Flags().StringVar(&amendPrice, "price", "", "new price")
	ordersAmendCmd.Flags().StringVar(&amendFee, "fee", "", "new fee")
	ordersAmendCmd.Flags().StringVar(&amendTax, "tax", "", "new tax")
}

func parseOrderID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("order id %q: %w", s, err)
	}
	if !orderid.Validate(id) {
		return 0, fmt.Errorf("order id %d fails its checksum", id)
	}
	return id, nil
}

func printOrder(o store.Order) {
	fmt.Printf("%d  %s  %-4s %-8s amount %s price %s fee %s tax %s\n",
		o.ID, o.Time.Format(time.RFC3339), o.Side, o.Currency,
		o.Amount.String(), o.Price.String(), o.Fee.String(), o.Tax.String())
}

func runOrdersList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	orders, err := a.ledger.Orders()
	if err != nil {
		return err
	}
	for _, o := range orders {
		printOrder(o)
	}
	return nil
}

func runOrdersGet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	id, err := parseOrderID(args[0])
	if err != nil {
		return err
	}
	o, err := a.ledger.Get(id)
	if err != nil {
		return err
	}
	printOrder(o)
	return nil
}

func runOrdersAmend(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	id, err := parseOrderID(args[0])
	if err != nil {
		return err
	}

	var patch ledger.Patch
	if amendSide != "" {
		side := store.Side(amendSide)
		if side != store.Buy && side != store.Sell {
			return fmt.Errorf("side must be BUY or SELL, got %q", amendSide)
		}
		patch.Side = &side
	}
	if amendCurrency != "" {
		patch.Currency = &amendCurrency
	}
	for _, f := range []struct {
		value string
		dst   **decimal.Decimal
	}{
		{amendAmount, &patch.Amount},
		{amendPrice, &patch.Price},
		{amendFee, &patch.Fee},
		{amendTax, &patch.Tax},
	} {
		if f.value == "" {
			continue
		}
		d, err := decimal.NewFromString(f.value)
		if err != nil {
			return fmt.Errorf("amend value %q: %w", f.value, err)
		}
		*f.dst = &d
	}

	prev, err := a.ledger.Amend(id, patch)
	if err != nil {
		return err
	}
	fmt.Println("was:")
	printOrder(prev)

	now, err := a.ledger.Get(id)
	if err != nil {
		return err
	}
	fmt.Println("now:")
	printOrder(now)
	return nil
}

func runOrdersRemaining(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	remaining, err := a.ledger.Remaining()
	if err != nil {
		return err
	}
	fmt.Printf("%d of %d order ids remaining\n", remaining, orderid.Capacity())
	return nil
}
