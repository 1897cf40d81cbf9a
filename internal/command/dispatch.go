package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockdesk/internal/chat"
	"stockdesk/internal/domain"
	"stockdesk/internal/services"
)

// Result is what one command-box line produced.
type Result struct {
	Message  string
	Order    *domain.Order
	Items    []domain.Item
	FromChat bool
}

// Dispatcher routes structured commands to the ledger and order processor.
// Input the grammar cannot read goes to the chat capability under a
// timeout; the reply gets exactly one re-parse through the same grammar,
// so model output passes the same validation as typed input. The ledger is
// never blocked waiting on the chat call.
type Dispatcher struct {
	Ledger  *services.StockLedger
	Orders  *services.OrderService
	Chat    chat.Asker
	Timeout time.Duration
}

const chatPrompt = `You translate inventory requests into exactly one command line using this grammar:
  add <qty> [color] <name> [size=S] [brand=B] [price=P] [category=C]
  restock <qty> [color] <name> [size=S] [brand=B]
  reduce <qty> [color] <name> [size=S] [brand=B]
  remove [color] <name> [size=S] [brand=B]
  order <qty> [color] <name> [size=S] [brand=B]
  list
Reply with the single command line and nothing else. If the request is not
about inventory, answer it in plain words instead.

Request: `

func (d *Dispatcher) Handle(ctx context.Context, text string) (Result, error) {
	cmd, err := Parse(text)
	if err != nil {
		if errors.Is(err, ErrUnknown) && d.Chat != nil {
			return d.askChat(ctx, text)
		}
		return Result{}, err
	}
	return d.run(cmd)
}

func (d *Dispatcher) run(cmd Command) (Result, error) {
	switch cmd.Verb {
	case "add":
		if err := d.Ledger.Add(cmd.Key(), cmd.Qty, cmd.Price, cmd.Category); err != nil {
			return Result{}, err
		}
		return Result{Message: fmt.Sprintf("added %d %s", cmd.Qty, cmd.Key().Label())}, nil

	case "restock":
		if err := d.Ledger.Restock(cmd.Key(), cmd.Qty); err != nil {
			return Result{}, err
		}
		return Result{Message: fmt.Sprintf("restocked %d %s", cmd.Qty, cmd.Key().Label())}, nil

	case "reduce":
		if _, err := d.Ledger.Reduce(cmd.Key(), cmd.Qty); err != nil {
			return Result{}, err
		}
		return Result{Message: fmt.Sprintf("removed %d from %s", cmd.Qty, cmd.Key().Label())}, nil

	case "remove":
		if err := d.Ledger.Remove(cmd.Key()); err != nil {
			return Result{}, err
		}
		return Result{Message: fmt.Sprintf("dropped %s from the ledger", cmd.Key().Label())}, nil

	case "order":
		o, err := d.Orders.Place(cmd.Key(), cmd.Qty)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Message: fmt.Sprintf("order %s placed: %d x %s", o.ID, o.Quantity, cmd.Key().Label()),
			Order:   &o,
		}, nil

	case "list", "stop":
		return Result{Message: "inventory summary", Items: d.Ledger.Snapshot()}, nil
	}
	return Result{}, ErrUnknown
}

func (d *Dispatcher) askChat(ctx context.Context, text string) (Result, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reply, err := d.Chat.Ask(ctx, chatPrompt+text)
	if err != nil {
		return Result{}, fmt.Errorf("chat: %w", err)
	}

	line := firstLine(reply)
	if cmd, perr := Parse(line); perr == nil {
		res, rerr := d.run(cmd)
		res.FromChat = true
		return res, rerr
	}
	// Not a command; surface the reply as-is.
	return Result{Message: strings.TrimSpace(reply), FromChat: true}, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(s, "` ")
}
