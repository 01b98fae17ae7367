package core

import "time"

// fakeProber is a FileProber backed by an in-memory map, so tests can set
// up filesystem state without touching disk.
type fakeProber map[string]FileInfo

func (f fakeProber) Probe(path string) FileInfo {
	return f[path]
}

func mtime(seconds int64) time.Time {
	return time.Unix(seconds, 0)
}
