package market

import "fmt"

// Notification texts pushed to clients. Each ends in a newline so that it can
// be written to the connection as-is.

func demandFulfilledMsg(d Demand, s Supply) string {
	return fmt.Sprintf("Your demand at (%d,%d), [%d,%d,%d] is fulfilled by a supply at (%d,%d).\n",
		d.Pos.X, d.Pos.Y, d.A, d.B, d.C, s.Pos.X, s.Pos.Y)
}

func supplyDeliveredMsg(s Supply, d Demand) string {
	return fmt.Sprintf("Your supply at (%d,%d), [%d,%d,%d] with distance %d is delivered to a demand at (%d,%d) [%d,%d,%d].\n",
		s.Pos.X, s.Pos.Y, s.A, s.B, s.C, s.Distance,
		d.Pos.X, d.Pos.Y, d.A, d.B, d.C)
}

const supplyRemovedMsg = "Your supply is removed from map.\n"

func supplyInsertedMsg(s Supply) string {
	return fmt.Sprintf("A supply [%d,%d,%d] is inserted at (%d,%d).\n",
		s.A, s.B, s.C, s.Pos.X, s.Pos.Y)
}
