package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DebugSink keeps a side copy of every rendered report on local disk,
// pruned to the Max most recent files. A nil sink disables the copy.
type DebugSink struct {
	Dir string
	Max int
}

func (s *DebugSink) Create(jobNo string) (io.WriteCloser, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("Job_%s_%d.pdf", jobNo, time.Now().UnixMilli())
	f, err := os.Create(filepath.Join(s.Dir, filepath.Clean(name)))
	if err != nil {
		return nil, err
	}
	s.prune()
	return f, nil
}

// prune removes the oldest debug copies beyond Max. Errors are ignored;
// the sink is a debugging aid, never load-bearing.
func (s *DebugSink) prune() {
	if s.Max <= 0 {
		return
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".pdf" {
			names = append(names, e.Name())
		}
	}
	if len(names) <= s.Max {
		return
	}
	// Timestamped suffixes make lexical order creation order per job;
	// mod time is the reliable global order.
	sort.Slice(names, func(i, j int) bool {
		fi, err1 := os.Stat(filepath.Join(s.Dir, names[i]))
		fj, err2 := os.Stat(filepath.Join(s.Dir, names[j]))
		if err1 != nil || err2 != nil {
			return names[i] < names[j]
		}
		return fi.ModTime().Before(fj.ModTime())
	})
	for _, name := range names[:len(names)-s.Max] {
		_ = os.Remove(filepath.Join(s.Dir, name))
	}
}
