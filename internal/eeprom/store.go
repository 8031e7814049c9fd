package eeprom

import (
	"context"

	"github.com/chrissnell/vantaged/internal/protocol"
)

// Store reads and writes the console's typed configuration blocks
// through a protocol Engine.
type Store struct {
	engine *protocol.Engine
}

// NewStore wraps eng for typed EEPROM access.
func NewStore(eng *protocol.Engine) *Store {
	return &Store{engine: eng}
}

// IsProtected reports whether addr falls in the console's protected
// range, so a command dispatcher can reject a write before ever
// reaching the protocol engine.
func IsProtected(addr uint16) bool {
	return protocol.IsProtected(addr)
}

// Position reads the station's configured latitude, longitude, and
// elevation.
func (s *Store) Position(ctx context.Context) (Position, error) {
	buf, err := s.engine.EEBRD(ctx, AddrLatitude, 6)
	if err != nil {
		return Position{}, err
	}
	return DecodePosition(buf), nil
}

// SetPosition writes p's latitude, longitude, and elevation.
func (s *Store) SetPosition(ctx context.Context, p Position) error {
	return s.engine.EEBWR(ctx, AddrLatitude, EncodePosition(p))
}

// TimeSettings reads the configured time zone / DST / GMT offset
// block.
func (s *Store) TimeSettings(ctx context.Context) (TimeSettings, error) {
	buf, err := s.engine.EEBRD(ctx, AddrTimeFields, timeFieldsSize)
	if err != nil {
		return TimeSettings{}, err
	}
	return DecodeTimeSettings(buf)
}

// SetTimeSettings writes t.
func (s *Store) SetTimeSettings(ctx context.Context, t TimeSettings) error {
	return s.engine.EEBWR(ctx, AddrTimeFields, EncodeTimeSettings(t))
}

// Units reads the configured display units.
func (s *Store) Units(ctx context.Context) (Units, error) {
	buf, err := s.engine.EEBRD(ctx, AddrUnitBits, 2)
	if err != nil {
		return Units{}, err
	}
	return DecodeUnits(buf)
}

// SetUnits writes u, computing its inverted checksum byte.
func (s *Store) SetUnits(ctx context.Context, u Units) error {
	return s.engine.EEBWR(ctx, AddrUnitBits, EncodeUnits(u))
}

// SetupBits reads the configured display/hardware setup byte.
func (s *Store) SetupBits(ctx context.Context) (SetupBits, error) {
	buf, err := s.engine.EEBRD(ctx, AddrSetupBits, 1)
	if err != nil {
		return SetupBits{}, err
	}
	return DecodeSetupBits(buf)
}

// SetSetupBits writes sb. Note: the rain-collector size it carries
// only takes effect for subsequent decoding once the caller also
// passes it to ConfigureRainCollector.
func (s *Store) SetSetupBits(ctx context.Context, sb SetupBits) error {
	return s.engine.EEBWR(ctx, AddrSetupBits, EncodeSetupBits(sb))
}

// rainClickSizeSetter is satisfied by decode.Decoder; kept narrow here
// so this package doesn't need to import internal/decode.
type rainClickSizeSetter interface {
	SetRainClickSize(inches float64)
}

// ConfigureRainCollector reads the console's configured collector size
// and applies it to dec, per spec.md's process-wide "must be set
// before any rain decoding" rule.
func (s *Store) ConfigureRainCollector(ctx context.Context, dec rainClickSizeSetter) error {
	sb, err := s.SetupBits(ctx)
	if err != nil {
		return err
	}
	dec.SetRainClickSize(sb.RainCollector.Inches())
	return nil
}
