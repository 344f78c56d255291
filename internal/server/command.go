package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Command keywords.
const (
	CmdMove         = "move"
	CmdDemand       = "demand"
	CmdSupply       = "supply"
	CmdWatch        = "watch"
	CmdUnwatch      = "unwatch"
	CmdListSupplies = "listsupplies"
	CmdListDemands  = "listdemands"
	CmdMySupplies   = "mysupplies"
	CmdMyDemands    = "mydemands"
	CmdQuit         = "quit"
)

// Replies that are not tables.
const (
	replyOK             = "OK\n"
	replyInvalidCommand = "Error: Invalid command\n"
	replyServerFull     = "Error: Server is full\n"
)

// ErrInvalidCommand is returned by ParseCommand for any line that is not
// exactly one of the known command forms.
var ErrInvalidCommand = errors.New("invalid command")

// number of integer arguments per keyword
var arity = map[string]int{
	CmdMove:         2,
	CmdDemand:       3,
	CmdSupply:       4,
	CmdWatch:        1,
	CmdUnwatch:      0,
	CmdListSupplies: 0,
	CmdListDemands:  0,
	CmdMySupplies:   0,
	CmdMyDemands:    0,
	CmdQuit:         0,
}

// Command is one parsed request line.
type Command struct {
	Name string
	Args []int
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return fmt.Sprintf("%s %v", c.Name, c.Args)
}

// ParseCommand decodes a single request line. The keyword is matched first,
// then the number of arguments, then each argument as a 32-bit decimal integer.
// Amounts, distances and radii must not be negative, and a supply must offer
// at least one unit of something. Surrounding whitespace, including a
// trailing "\r", is ignored.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty line: %w", ErrInvalidCommand)
	}

	name := fields[0]
	n, ok := arity[name]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q: %w", name, ErrInvalidCommand)
	}
	if len(fields)-1 != n {
		return Command{}, fmt.Errorf("%s takes %d arguments, got %d: %w",
			name, n, len(fields)-1, ErrInvalidCommand)
	}

	cmd := Command{Name: name}
	if n > 0 {
		cmd.Args = make([]int, n)
	}
	for i, f := range fields[1:] {
		v, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return Command{}, fmt.Errorf("%s argument %d: %v: %w", name, i+1, err, ErrInvalidCommand)
		}
		cmd.Args[i] = int(v)
	}

	if err := cmd.validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

func (c Command) validate() error {
	switch c.Name {
	case CmdMove:
		return nil
	case CmdSupply:
		if c.Args[1] == 0 && c.Args[2] == 0 && c.Args[3] == 0 {
			return fmt.Errorf("supply offers nothing: %w", ErrInvalidCommand)
		}
	}
	for i, v := range c.Args {
		if v < 0 {
			return fmt.Errorf("%s argument %d is negative: %w", c.Name, i+1, ErrInvalidCommand)
		}
	}
	return nil
}
