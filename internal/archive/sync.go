package archive

import (
	"context"
	"fmt"

	"github.com/chrissnell/vantaged/internal/decode"
	"github.com/chrissnell/vantaged/internal/protocol"
)

// SynchronizeWithConsole wakes the console and requests every archive
// record since the current newest via DMPAFT, appending whatever
// comes back. Retries up to SyncRetries times (fresh wakeup each
// attempt) before giving up, matching ArchiveManager::synchronizeArchive.
func (m *Manager) SynchronizeWithConsole(ctx context.Context, eng *protocol.Engine, dec *decode.Decoder) error {
	m.mu.Lock()
	since := m.newest
	m.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= SyncRetries; attempt++ {
		if err := eng.Wakeup(ctx); err != nil {
			lastErr = err
			continue
		}
		recs, err := eng.DMPAFT(ctx, dec, since)
		if err != nil {
			lastErr = err
			continue
		}
		if _, err := m.Append(recs); err != nil {
			return fmt.Errorf("archive: append synced records: %w", err)
		}
		return nil
	}
	return fmt.Errorf("archive: synchronize failed after %d attempts: %w", SyncRetries, lastErr)
}
