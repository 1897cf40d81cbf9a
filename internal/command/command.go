package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stockdesk/internal/domain"
	"stockdesk/internal/validate"
)

// ErrUnknown marks input the grammar does not recognize at all. The
// dispatcher may hand such input to the chat layer; anything else is a
// malformed use of a known verb and is reported to the caller directly.
var ErrUnknown = errors.New("unrecognized command")

// Command is the structured form of a command-box line. It is validated
// before anything reaches the ledger.
type Command struct {
	Verb     string
	Name     string
	Color    string
	Size     string
	Brand    string
	Category string
	Qty      int
	Price    decimal.Decimal
	HasPrice bool
}

func (c Command) Key() domain.ItemKey {
	return domain.NewItemKey(c.Name, c.Color, c.Size, c.Brand)
}

var verbAliases = map[string]string{
	"add":     "add",
	"restock": "restock",
	"reduce":  "reduce",
	"delete":  "reduce", // legacy phrasing: "delete 2 shirts" takes quantity off
	"remove":  "remove", // drops the item entirely
	"drop":    "remove",
	"order":   "order",
	"buy":     "order",
	"list":    "list",
	"stop":    "stop",
}

// verbs that act on a single item and therefore need a name
var itemVerbs = map[string]bool{"add": true, "restock": true, "reduce": true, "remove": true, "order": true}

// verbs that move quantity
var qtyVerbs = map[string]bool{"add": true, "restock": true, "reduce": true, "order": true}

// Parse reads one line of the command grammar:
//
//	<verb> [qty] [key=value ...] [color] <name...>
//
// e.g. "add 5 red shirts price=9.99", "order 2 shirts color=red size=m",
// "remove shirts brand=acme", "list". Unknown first tokens yield
// ErrUnknown; known verbs with bad arguments yield ErrInvalidInput.
func Parse(text string) (Command, error) {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return Command{}, ErrUnknown
	}
	verb, ok := verbAliases[tokens[0]]
	if !ok {
		return Command{}, ErrUnknown
	}

	cmd := Command{Verb: verb}
	var words []string
	for _, tok := range tokens[1:] {
		if k, v, found := strings.Cut(tok, "="); found {
			if err := cmd.setField(k, v); err != nil {
				return Command{}, err
			}
			continue
		}
		if cmd.Qty == 0 {
			if n, ok := validate.Qty(tok); ok {
				cmd.Qty = n
				continue
			}
		}
		words = append(words, tok)
	}

	// positional shorthand: "red shirts" is color + name, a single word is
	// just the name
	if cmd.Name == "" {
		if cmd.Color == "" && len(words) >= 2 {
			cmd.Color = words[0]
			words = words[1:]
		}
		cmd.Name = strings.Join(words, " ")
	}

	if itemVerbs[cmd.Verb] {
		name, ok := validate.Name(cmd.Name)
		if !ok {
			return Command{}, fmt.Errorf("%w: item name required", domain.ErrInvalidInput)
		}
		cmd.Name = name
	}
	if qtyVerbs[cmd.Verb] && cmd.Qty <= 0 {
		return Command{}, fmt.Errorf("%w: quantity required", domain.ErrInvalidInput)
	}
	return cmd, nil
}

func (c *Command) setField(k, v string) error {
	switch k {
	case "name":
		c.Name = v
	case "color":
		c.Color = v
	case "size":
		c.Size = v
	case "brand":
		c.Brand = v
	case "category":
		c.Category = v
	case "qty", "quantity":
		n, ok := validate.Qty(v)
		if !ok {
			return fmt.Errorf("%w: bad quantity %q", domain.ErrInvalidInput, v)
		}
		c.Qty = n
	case "price":
		p, ok := validate.Price(v)
		if !ok {
			return fmt.Errorf("%w: bad price %q", domain.ErrInvalidInput, v)
		}
		c.Price = p
		c.HasPrice = true
	default:
		return fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, k)
	}
	return nil
}
