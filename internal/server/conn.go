package server

import (
	"io"

	tmsync "github.com/supdem/supdem/libs/sync"
)

// connWriter serialises writes to a connection shared by the command and
// notification tasks of a session. Every Write is one whole message, so
// replies and notifications never interleave mid-line.
type connWriter struct {
	mtx tmsync.Mutex
	w   io.Writer
}

func newConnWriter(w io.Writer) *connWriter {
	return &connWriter{w: w}
}

func (cw *connWriter) Write(p []byte) (int, error) {
	cw.mtx.Lock()
	defer cw.mtx.Unlock()
	return cw.w.Write(p)
}

func (cw *connWriter) WriteString(s string) error {
	cw.mtx.Lock()
	defer cw.mtx.Unlock()
	_, err := io.WriteString(cw.w, s)
	return err
}
