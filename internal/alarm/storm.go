package alarm

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chrissnell/vantaged/internal/weather"
)

// StormArchive is the append-only storm record store described in
// spec.md §4.7 ("append-only text file of {start, end,
// total-rain-inches}; query by date range"). Its OnStormClosed method
// is meant to be passed to weather.NewStormDetector.
type StormArchive struct {
	mu   sync.Mutex
	path string
}

func NewStormArchive(path string) *StormArchive {
	return &StormArchive{path: path}
}

// OnStormClosed appends a finished storm interval. Errors are
// discarded — this is used directly as a weather.StormDetector
// callback, which has no error return, and StormArchive holds no
// logger, so a failed write is not reported anywhere.
func (s *StormArchive) OnStormClosed(interval weather.StormInterval) {
	_ = s.Append(interval)
}

func (s *StormArchive) Append(interval weather.StormInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s\t%s\t%.2f\n",
		interval.Start.Format(time.RFC3339), interval.End.Format(time.RFC3339), interval.TotalRainfall)
	return err
}

// Query returns storms whose start time falls within [start, end].
func (s *StormArchive) Query(start, end time.Time) ([]weather.StormInterval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []weather.StormInterval
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.SplitN(scanner.Text(), "\t", 3)
		if len(fields) != 3 {
			continue
		}
		st, err1 := time.Parse(time.RFC3339, fields[0])
		en, err2 := time.Parse(time.RFC3339, fields[1])
		var rain float64
		if _, err3 := fmt.Sscanf(fields[2], "%f", &rain); err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		if !st.Before(start) && !st.After(end) {
			out = append(out, weather.StormInterval{Start: st, End: en, TotalRainfall: rain})
		}
	}
	return out, scanner.Err()
}
