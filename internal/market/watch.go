package market

// triggerWatches tells every watcher within range that the supply in slot
// appeared. It runs after the matching pass, so a supply consumed entirely by
// that pass is never announced and a partly consumed one is announced with
// what is left. Caller must hold m.mtx.
func (m *Market) triggerWatches(slot int) int {
	s, ok := m.store.Supply(slot)
	if !ok {
		return 0
	}
	supply := *s

	var watchers []Handle
	m.store.EachWatch(func(_ int, w Watch) bool {
		if inWatchRange(w, supply.Pos) {
			watchers = append(watchers, w.Owner)
		}
		return true
	})

	if len(watchers) == 0 {
		return 0
	}
	msg := supplyInsertedMsg(supply)
	for _, h := range watchers {
		m.notify(h, msg)
	}
	m.metrics.WatchNotifications.Add(float64(len(watchers)))
	return len(watchers)
}

// inWatchRange reports whether p lies within w. A zero radius never fires.
func inWatchRange(w Watch, p Point) bool {
	return w.Radius > 0 && w.Pos.Distance(p) <= w.Radius
}
