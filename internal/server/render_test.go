package server

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/supdem/supdem/internal/market"
)

func TestWriteSupplies(t *testing.T) {
	var buf bytes.Buffer
	err := writeSupplies(&buf, []market.Supply{
		{Pos: market.Point{X: 0, Y: 0}, Bundle: market.Bundle{A: 4, B: 4, C: 4}, Distance: 10},
		{Pos: market.Point{X: -12, Y: 345}, Bundle: market.Bundle{A: 1, B: 22, C: 333}, Distance: 7},
	})
	require.NoError(t, err)

	want := "There are 2 supplies in total.\n" +
		"X | Y | A | B | C | D |\n" +
		"-------+-------+-----+-----+-----+-------+\n" +
		"      0|      0|    4|    4|    4|     10|\n" +
		"    -12|    345|    1|   22|  333|      7|\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("supply table mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteDemands(t *testing.T) {
	var buf bytes.Buffer
	err := writeDemands(&buf, []market.Demand{
		{Pos: market.Point{X: 2, Y: 2}, Bundle: market.Bundle{A: 1, B: 1, C: 1}},
	})
	require.NoError(t, err)

	want := "There are 1 demands in total.\n" +
		"X | Y | A | B | C |\n" +
		"-------+-------+-----+-----+-----+\n" +
		"      2|      2|    1|    1|    1|\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("demand table mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteEmptyTables(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSupplies(&buf, nil))
	require.NoError(t, writeDemands(&buf, nil))

	want := "There are 0 supplies in total.\n" +
		"X | Y | A | B | C | D |\n" +
		"-------+-------+-----+-----+-----+-------+\n" +
		"There are 0 demands in total.\n" +
		"X | Y | A | B | C |\n" +
		"-------+-------+-----+-----+-----+\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("empty tables mismatch (-want +got):\n%s", diff)
	}
}

func TestTableBufferSizes(t *testing.T) {
	require.Len(t, fmt.Sprintf(supplyRow, -999999, 9999999, 99999, 99999, 99999, 9999999), rowSize)
	require.LessOrEqual(t, len(fmt.Sprintf(demandRow, -999999, 9999999, 99999, 99999, 99999)), rowSize)
	require.LessOrEqual(t, len(fmt.Sprintf(supplyHeader, 1<<31-1)), headerSize)
	require.LessOrEqual(t, len(fmt.Sprintf(demandHeader, 1<<31-1)), headerSize)

	buf := newTableBuffer(2)
	require.GreaterOrEqual(t, buf.Cap(), headerSize+2*rowSize)
}
