package eeprom

import "context"

// ArchivePeriod reads the console's configured archive interval, in
// minutes, from EE_ARCHIVE_PERIOD_ADDRESS. The address is itself
// protected against EEWR/EEBWR (see protocol.IsProtected); changing it
// is only possible through the SETPER console command.
func (s *Store) ArchivePeriod(ctx context.Context) (int, error) {
	buf, err := s.engine.EEBRD(ctx, AddrArchivePeriod, 1)
	if err != nil {
		return 0, err
	}
	return int(buf[0]), nil
}
