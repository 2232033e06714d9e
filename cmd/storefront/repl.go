package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/prudhivi99/storefront/internal/bus"
	"github.com/prudhivi99/storefront/internal/models"
	"github.com/prudhivi99/storefront/internal/storefront"
)

const help = `commands:
  show                 list the cart
  product <id>         show a catalog product
  add [id]             add the shown (or given) product to the cart
  refresh              reload the cart
  select <id>          toggle one row
  all on|off           select or clear every row
  qty <id> <n>         change a quantity
  delete               delete the selected rows
  checkout             hand the selection to the order wizard
  date YYYY-MM-DD      set the delivery date
  next | prev          move through the wizard
  quit`

type terminalNotifier struct {
	out io.Writer
}

func (t *terminalNotifier) Notify(n storefront.Notification) {
	fmt.Fprintf(t.out, "[%s] %s: %s\n", n.Variant, n.Title, n.Message)
}

// run reads commands until quit, EOF or ctx ends. Components stay
// attached for the whole session.
func (p *page) run(ctx context.Context, in io.Reader, out io.Writer) error {
	p.card.Attach(ctx)
	p.order.Attach(ctx)
	defer p.order.Detach()
	defer p.card.Detach()
	defer p.cart.Detach()

	// A failed first load is already reported through the notifier.
	_ = p.cart.Attach(ctx)

	fmt.Fprintln(out, help)
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		fmt.Fprint(out, "> ")
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			quit, err := p.exec(ctx, out, strings.Fields(line))
			if err != nil {
				fmt.Fprintln(out, "error:", err)
			}
			if quit {
				return nil
			}
		}
	}
}

var errUsage = errors.New("bad arguments, type help")

func (p *page) exec(ctx context.Context, out io.Writer, args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}

	switch args[0] {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(out, help)
	case "show":
		p.show(out)
	case "product":
		if len(args) != 2 {
			return false, errUsage
		}
		p.bus.Publish(ctx, bus.ProductSelected{ProductID: args[1]})
		if product := p.card.Product(); product != nil {
			fmt.Fprintf(out, "%s  %s  (%d in stock)\n", product.Name, p.card.FormattedMSRP(), product.Stock)
		}
	case "add":
		if len(args) == 2 {
			p.bus.Publish(ctx, bus.ProductSelected{ProductID: args[1]})
		}
		return false, p.card.AddToCart(ctx)
	case "refresh":
		return false, p.cart.Refresh(ctx)
	case "select":
		if len(args) != 2 {
			return false, errUsage
		}
		return false, p.cart.ToggleOne(args[1])
	case "all":
		if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
			return false, errUsage
		}
		p.cart.SelectAll(args[1] == "on")
	case "qty":
		if len(args) != 3 {
			return false, errUsage
		}
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return false, errUsage
		}
		return false, p.cart.ChangeQuantity(args[1], n)
	case "delete":
		return false, p.cart.DeleteSelected(ctx)
	case "checkout":
		p.cart.Checkout(ctx)
		fmt.Fprintf(out, "%d item(s) ready, step %s\n", len(p.order.Selected()), p.order.Step())
	case "date":
		if len(args) != 2 {
			return false, errUsage
		}
		d, err := time.ParseInLocation(models.DateLayout, args[1], time.Local)
		if err != nil {
			return false, errUsage
		}
		p.order.SetDate(d)
	case "next":
		// Pending quantity edits reach the server before an order is placed.
		p.cart.FlushQuantity()
		if err := p.order.Next(ctx); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "step %s\n", p.order.Step())
	case "prev":
		if err := p.order.Previous(); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "step %s\n", p.order.Step())
	default:
		return false, fmt.Errorf("unknown command %q", args[0])
	}
	return false, nil
}

func (p *page) show(out io.Writer) {
	v := p.cart.View()
	if v.Empty {
		fmt.Fprintln(out, "cart is empty")
		return
	}

	for _, it := range v.Items {
		mark := " "
		if it.Selected {
			mark = "x"
		}
		fmt.Fprintf(out, "[%s] %-36s %-24s %10s x %d\n", mark, it.ID, it.Name, it.FormattedPrice, it.Quantity)
	}
	fmt.Fprintf(out, "select-all: %s  total: %s\n", v.SelectAll, storefront.FormatPrice(v.Total, 2))
}
