// Package sync holds the mutex type shared by the market, the notification
// queues and the connection writers.
package sync

import "sync"

// Mutex is the global marketplace lock and the per-client queue lock.
type Mutex struct {
	sync.Mutex
}
