package server

import (
	"bytes"
	"fmt"
	"io"

	pool "github.com/libp2p/go-buffer-pool"

	"github.com/supdem/supdem/internal/market"
)

const (
	supplyHeader = "There are %d supplies in total.\n" +
		"X | Y | A | B | C | D |\n" +
		"-------+-------+-----+-----+-----+-------+\n"
	supplyRow = "%7d|%7d|%5d|%5d|%5d|%7d|\n"

	demandHeader = "There are %d demands in total.\n" +
		"X | Y | A | B | C |\n" +
		"-------+-------+-----+-----+-----+\n"
	demandRow = "%7d|%7d|%5d|%5d|%5d|\n"

	headerSize = 128
	// a supply row with every value within its column width; demand rows are shorter
	rowSize = 7 + 1 + 7 + 1 + 3*(5+1) + 7 + 1 + 1
)

// writeSupplies renders a supply table and writes it with a single call.
func writeSupplies(w io.Writer, supplies []market.Supply) error {
	buf := newTableBuffer(len(supplies))
	fmt.Fprintf(buf, supplyHeader, len(supplies))
	for _, s := range supplies {
		fmt.Fprintf(buf, supplyRow, s.Pos.X, s.Pos.Y, s.A, s.B, s.C, s.Distance)
	}
	return flushTable(w, buf)
}

// writeDemands renders a demand table and writes it with a single call.
func writeDemands(w io.Writer, demands []market.Demand) error {
	buf := newTableBuffer(len(demands))
	fmt.Fprintf(buf, demandHeader, len(demands))
	for _, d := range demands {
		fmt.Fprintf(buf, demandRow, d.Pos.X, d.Pos.Y, d.A, d.B, d.C)
	}
	return flushTable(w, buf)
}

func newTableBuffer(rows int) *bytes.Buffer {
	return bytes.NewBuffer(pool.Get(headerSize + rows*rowSize)[:0])
}

func flushTable(w io.Writer, buf *bytes.Buffer) error {
	_, err := w.Write(buf.Bytes())
	pool.Put(buf.Bytes())
	return err
}
