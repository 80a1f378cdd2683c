package afl

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// EpochMillis is a timestamp persisted and transmitted as milliseconds
// since the Unix epoch, per the wire/persisted layout this package
// implements. It stores as a plain bigint column rather than a
// timestamptz, and marshals to/from a JSON number rather than an RFC3339
// string.
type EpochMillis int64

// NowMillis returns t truncated to millisecond resolution as an EpochMillis.
func NowMillis(t time.Time) EpochMillis {
	return EpochMillis(t.UnixMilli())
}

// Time converts back to a time.Time in UTC.
func (m EpochMillis) Time() time.Time {
	return time.UnixMilli(int64(m)).UTC()
}

func (m EpochMillis) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%d", int64(m))), nil
}

func (m *EpochMillis) UnmarshalJSON(data []byte) error {
	var n int64
	if _, err := fmt.Sscanf(string(data), "%d", &n); err != nil {
		return fmt.Errorf("afl: decoding epoch millis: %w", err)
	}
	*m = EpochMillis(n)
	return nil
}

// Value implements driver.Valuer so gorm stores this as a plain integer.
func (m EpochMillis) Value() (driver.Value, error) {
	return int64(m), nil
}

// Scan implements sql.Scanner.
func (m *EpochMillis) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*m = EpochMillis(v)
	case nil:
		*m = 0
	default:
		return fmt.Errorf("afl: cannot scan %T into EpochMillis", src)
	}
	return nil
}
