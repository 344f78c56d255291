package market

// match runs one full matching pass: demands are visited in ascending slot
// order and each is settled against the first supply, in ascending slot
// order, that is close enough and large enough. Later demands see the
// supplies as left by earlier settlements. Caller must hold m.mtx.
//
// Only occupied slots are visited, which does not change the outcome of the
// first-slot-wins rule.
func (m *Market) match() int {
	matches := 0
	for _, dslot := range m.store.DemandSlots() {
		d, ok := m.store.Demand(dslot)
		if !ok {
			continue
		}

		sslot := -1
		m.store.EachSupply(func(slot int, s *Supply) bool {
			if canMatch(*d, *s) {
				sslot = slot
				return false
			}
			return true
		})
		if sslot < 0 {
			continue
		}

		m.settle(dslot, sslot)
		matches++
	}
	return matches
}

// canMatch reports whether s can fulfil d.
func canMatch(d Demand, s Supply) bool {
	return s.Eligible() &&
		d.Pos.Distance(s.Pos) < s.Distance &&
		s.Bundle.Covers(d.Bundle)
}

// settle fulfils the demand in dslot from the supply in sslot: both owners
// are notified, the supply is reduced by the demand, the demand is removed,
// and the supply is removed as well once nothing is left of it.
func (m *Market) settle(dslot, sslot int) {
	d, _ := m.store.Demand(dslot)
	s, _ := m.store.Supply(sslot)
	demand, supply := *d, *s

	m.notify(demand.Owner, demandFulfilledMsg(demand, supply))
	m.notify(supply.Owner, supplyDeliveredMsg(supply, demand))

	s.Bundle = s.Bundle.Sub(demand.Bundle)
	m.store.RemoveDemand(dslot)
	m.metrics.Matches.Add(1)

	m.logger.Debug("matched",
		"demand_owner", demand.Owner, "supply_owner", supply.Owner,
		"demand_slot", dslot, "supply_slot", sslot, "remaining", s.Bundle)

	if s.Bundle.IsZero() {
		m.notify(supply.Owner, supplyRemovedMsg)
		m.store.RemoveSupply(sslot)
		m.metrics.DepletedSupplies.Add(1)
	}
}
