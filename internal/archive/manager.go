// Package archive implements the durable local record store that
// augments the console's small circular buffer: an append-only file
// of 52-byte records, a ratio-seek time-range query, synchronization
// against the console, rotating backups, and verification. Grounded
// on original_source/source/vws/ArchiveManager.cpp.
package archive

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/vantaged/internal/decode"
	"github.com/chrissnell/vantaged/internal/packet"
)

const (
	backupFilenameTail = "weather-archive.dat"
	saveFilePrefix     = "save_"
	verifyLogName      = "archive-verify.log"

	// BackupRetainDays is how long rotated backups are kept before
	// trimBackupsLocked deletes them.
	BackupRetainDays = 30

	// SyncRetries bounds SynchronizeWithConsole's wakeup+DMPAFT attempts.
	SyncRetries = 5
)

// Manager owns one archive file and everything derived from it: the
// in-memory {oldest, newest, count} range, its backup directory, its
// per-record replay directory, and its verification log. All file
// access is serialized by mu, mirroring the teacher's single mutex
// guarding every archive operation.
type Manager struct {
	mu sync.Mutex

	path       string
	packetDir  string
	backupDir  string
	verifyLog  string
	logger     *zap.SugaredLogger
	decoder    *decode.Decoder
	archivePeriod time.Duration

	oldest          time.Time
	newest          time.Time
	count           int
	archivingActive bool
	nextBackupTime  time.Time
}

// Open opens (creating if necessary) the archive file at dataDir's
// conventional layout and establishes its time range.
func Open(dataDir string, archivePeriod time.Duration, dec *decode.Decoder, logger *zap.SugaredLogger) (*Manager, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("archive: create data directory: %w", err)
	}
	m := &Manager{
		path:          filepath.Join(dataDir, backupFilenameTail),
		packetDir:     filepath.Join(dataDir, "packets"),
		backupDir:     filepath.Join(dataDir, "backup"),
		verifyLog:     filepath.Join(dataDir, verifyLogName),
		logger:        logger,
		decoder:       dec,
		archivePeriod: archivePeriod,
	}
	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", m.path, err)
	}
	defer f.Close()
	if err := m.refreshRange(f); err != nil {
		return nil, err
	}
	return m, nil
}

// Range reports the archive's current {oldest, newest, count}.
func (m *Manager) Range() (oldest, newest time.Time, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.oldest, m.newest, m.count
}

// ArchivingActive reports whether the newest record falls within one
// archive period of now — the console is still actively recording.
func (m *Manager) ArchivingActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.archivingActive
}

func (m *Manager) refreshRange(f *os.File) error {
	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("archive: stat: %w", err)
	}
	m.count = int(fi.Size() / packet.RecordSize)
	if m.count == 0 {
		m.oldest = time.Time{}
		m.newest = time.Time{}
		m.archivingActive = false
		return nil
	}
	first := make([]byte, packet.RecordSize)
	if _, err := f.ReadAt(first, 0); err != nil {
		return fmt.Errorf("archive: read first record: %w", err)
	}
	last := make([]byte, packet.RecordSize)
	if _, err := f.ReadAt(last, fi.Size()-packet.RecordSize); err != nil {
		return fmt.Errorf("archive: read last record: %w", err)
	}
	oldestRec, err := packet.Decode(first, m.decoder)
	if err != nil {
		return fmt.Errorf("archive: decode first record: %w", err)
	}
	newestRec, err := packet.Decode(last, m.decoder)
	if err != nil {
		return fmt.Errorf("archive: decode last record: %w", err)
	}
	m.oldest = oldestRec.EpochTime(time.Local)
	m.newest = newestRec.EpochTime(time.Local)
	m.determineIfArchivingActiveLocked()
	return nil
}

func (m *Manager) determineIfArchivingActiveLocked() {
	if m.newest.IsZero() {
		m.archivingActive = false
		return
	}
	m.archivingActive = time.Since(m.newest) <= m.archivePeriod
}

// Append writes every record in recs whose decoded time is strictly
// greater than the current newest, in the order given, and returns how
// many were actually written. Accepted records are also materialized
// to packets/YYYY/MM/DD/ap-HH-MM.dat for offline replay.
func (m *Manager) Append(recs []*packet.Record) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(recs) == 0 {
		return 0, nil
	}

	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("archive: open for append: %w", err)
	}
	defer f.Close()

	written := 0
	for _, rec := range recs {
		t := rec.EpochTime(time.Local)
		if !m.newest.IsZero() && !t.After(m.newest) {
			m.logger.Debugw("skipping archive record not newer than current newest", "time", t)
			continue
		}
		if _, err := f.Write(rec.Encode()); err != nil {
			return written, fmt.Errorf("archive: write record: %w", err)
		}
		if m.oldest.IsZero() {
			m.oldest = t
		}
		m.newest = t
		m.count++
		written++
		if err := m.savePacketFile(rec, t); err != nil {
			m.logger.Warnw("failed to save replay packet file", "error", err)
		}
	}
	m.determineIfArchivingActiveLocked()
	return written, nil
}

func (m *Manager) savePacketFile(rec *packet.Record, t time.Time) error {
	dir := filepath.Join(m.packetDir, fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", t.Month()), fmt.Sprintf("%02d", t.Day()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("ap-%02d-%02d.dat", t.Hour(), t.Minute())
	return os.WriteFile(filepath.Join(dir, name), rec.Encode(), 0o644)
}

// Query returns every record with start ≤ decodedTime ≤ end via a
// ratio-seek plus bounded linear scan: interpolate the expected byte
// offset from the archive's time range, then scan forward past the
// target and back to the first qualifying record, then stream forward
// collecting until end is passed. Correct because Append's filter
// keeps the file monotone in time.
func (m *Manager) Query(start, end time.Time) ([]*packet.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count == 0 || start.After(m.newest) {
		return []*packet.Record{}, nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		return nil, fmt.Errorf("archive: open for query: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("archive: stat: %w", err)
	}

	offset, err := m.findStartOffset(f, fi.Size(), start)
	if err != nil {
		return nil, fmt.Errorf("archive: position stream: %w", err)
	}

	records := []*packet.Record{}
	buf := make([]byte, packet.RecordSize)
	for pos := offset; pos < fi.Size(); pos += packet.RecordSize {
		if _, err := f.ReadAt(buf, pos); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("archive: read record at %d: %w", pos, err)
		}
		rec, err := packet.Decode(buf, m.decoder)
		if err != nil {
			return nil, fmt.Errorf("archive: decode record at %d: %w", pos, err)
		}
		t := rec.EpochTime(time.Local)
		if t.Before(start) {
			continue
		}
		if t.After(end) {
			break
		}
		records = append(records, rec)
	}
	return records, nil
}

// findStartOffset locates the byte offset of the first record whose
// decoded time is ≥ searchTime.
func (m *Manager) findStartOffset(f *os.File, fileSize int64, searchTime time.Time) (int64, error) {
	if m.count < 2 || !searchTime.After(m.oldest) {
		return 0, nil
	}
	if searchTime.After(m.newest) {
		return fileSize, nil
	}

	archiveRange := m.newest.Sub(m.oldest).Seconds()
	searchDelta := searchTime.Sub(m.oldest).Seconds()
	ratio := searchDelta / archiveRange
	loc := int64(math.Round(float64(fileSize) * ratio))
	loc -= loc % packet.RecordSize

	buf := make([]byte, packet.RecordSize)
	pos := loc
	searchUnix := searchTime.Unix()

	for pos < fileSize {
		if _, err := f.ReadAt(buf, pos); err != nil {
			return 0, err
		}
		rec, err := packet.Decode(buf, m.decoder)
		if err != nil {
			return 0, err
		}
		if rec.EpochTime(time.Local).Unix() >= searchUnix {
			break
		}
		pos += packet.RecordSize
	}
	if pos > fileSize {
		pos = fileSize
	}

	for pos > 0 {
		prev := pos - packet.RecordSize
		if _, err := f.ReadAt(buf, prev); err != nil {
			return 0, err
		}
		rec, err := packet.Decode(buf, m.decoder)
		if err != nil {
			return 0, err
		}
		if rec.EpochTime(time.Local).Unix() < searchUnix {
			break
		}
		pos = prev
	}
	return pos, nil
}

// Clear truncates the archive file and resets the in-memory range.
// Only meaningful once a backup has been taken.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := os.Truncate(m.path, 0); err != nil {
		return fmt.Errorf("archive: truncate: %w", err)
	}
	m.oldest = time.Time{}
	m.newest = time.Time{}
	m.count = 0
	m.archivingActive = false
	return nil
}

// Backup copies the current archive file into the backup directory at
// most once per 24 hours, then trims backups older than
// BackupRetainDays.
func (m *Manager) Backup(now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.nextBackupTime.IsZero() && now.Before(m.nextBackupTime) {
		return nil
	}
	m.nextBackupTime = now.Add(24 * time.Hour)

	if err := os.MkdirAll(m.backupDir, 0o755); err != nil {
		return fmt.Errorf("archive: create backup dir: %w", err)
	}
	dest := filepath.Join(m.backupDir, fmt.Sprintf("%s_%s", now.Format("2006-01-02"), backupFilenameTail))
	if err := copyFile(m.path, dest); err != nil {
		return fmt.Errorf("archive: backup copy: %w", err)
	}
	m.logger.Infow("backed up archive file", "source", m.path, "dest", dest)
	return m.trimBackupsLocked(now)
}

func (m *Manager) trimBackupsLocked(now time.Time) error {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("archive: read backup dir: %w", err)
	}
	cutoff := now.Add(-time.Duration(BackupRetainDays) * 24 * time.Hour)
	for _, ent := range entries {
		if ent.IsDir() || len(ent.Name()) == 0 || ent.Name()[0] != '2' {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(m.backupDir, ent.Name())
			if err := os.Remove(path); err != nil {
				m.logger.Warnw("failed to delete expired backup", "path", path, "error", err)
			} else {
				m.logger.Infow("deleted expired backup", "path", path)
			}
		}
	}
	return nil
}

// Restore moves the current archive aside to a dated save file and
// copies backupFile in as the new current archive. On copy failure
// the saved file is moved back.
func (m *Manager) Restore(backupFile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	saveFile := filepath.Join(m.backupDir, fmt.Sprintf("%s%s_%s", saveFilePrefix, time.Now().Format("2006-01-02"), backupFilenameTail))
	if err := os.Rename(m.path, saveFile); err != nil {
		return fmt.Errorf("archive: move current archive aside: %w", err)
	}
	if err := copyFile(backupFile, m.path); err != nil {
		if renameErr := os.Rename(saveFile, m.path); renameErr != nil {
			m.logger.Errorw("failed to move saved archive back after failed restore", "error", renameErr)
		}
		return fmt.Errorf("archive: restore from %s: %w", backupFile, err)
	}

	f, err := os.Open(m.path)
	if err != nil {
		return fmt.Errorf("archive: reopen after restore: %w", err)
	}
	defer f.Close()
	return m.refreshRange(f)
}

// ListBackups returns the names of every backup file (those whose
// name begins with "2", i.e. a year).
func (m *Manager) ListBackups() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("archive: read backup dir: %w", err)
	}
	var names []string
	for _, ent := range entries {
		if !ent.IsDir() && len(ent.Name()) > 0 && ent.Name()[0] == '2' {
			names = append(names, ent.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
