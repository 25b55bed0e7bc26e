package address

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidParcel is returned for block/lot input that is not numeric or is
// too long to pad.
var ErrInvalidParcel = errors.New("invalid parcel identifier")

const (
	blockWidth = 4
	lotWidth   = 3
)

// Parcel is an assessor block and optional lot, both zero-padded.
type Parcel struct {
	Block string
	Lot   string
}

// Key is the composite block+lot identifier used by the datasets (blklot,
// parcel_number, mapblklot).
func (p Parcel) Key() string { return p.Block + p.Lot }

func (p Parcel) String() string {
	if p.Lot == "" {
		return p.Block
	}
	return p.Block + "/" + p.Lot
}

// IsZero reports whether p was never set.
func (p Parcel) IsZero() bool { return p.Block == "" }

// HasLot reports whether p names a single lot rather than a whole block.
func (p Parcel) HasLot() bool { return p.Lot != "" }

// ParseParcel accepts "BLOCK/LOT", "BLOCK" or a bare seven digit composite
// such as "3512016".
func ParseParcel(s string) (Parcel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Parcel{}, fmt.Errorf("%w: empty", ErrInvalidParcel)
	}

	block, lot, hasLot := strings.Cut(s, "/")
	block = strings.TrimSpace(block)
	lot = strings.TrimSpace(lot)
	if !hasLot && len(block) == blockWidth+lotWidth {
		block, lot = block[:blockWidth], block[blockWidth:]
		hasLot = true
	}

	b, err := pad(block, blockWidth)
	if err != nil {
		return Parcel{}, fmt.Errorf("%w: block %q: %v", ErrInvalidParcel, block, err)
	}
	p := Parcel{Block: b}
	if hasLot && lot != "" {
		l, err := pad(lot, lotWidth)
		if err != nil {
			return Parcel{}, fmt.Errorf("%w: lot %q: %v", ErrInvalidParcel, lot, err)
		}
		p.Lot = l
	}
	return p, nil
}

// EncodeParcel pads the block and lot of s:
//
//	EncodeParcel("12/3") == ("0012", "003")
//	EncodeParcel("12")   == ("0012", "")
func EncodeParcel(s string) (block, lot string, err error) {
	p, err := ParseParcel(s)
	if err != nil {
		return "", "", err
	}
	return p.Block, p.Lot, nil
}

func pad(s string, width int) (string, error) {
	if s == "" {
		return "", errors.New("missing")
	}
	if len(s) > width {
		return "", fmt.Errorf("longer than %d digits", width)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", errors.New("not numeric")
		}
	}
	return strings.Repeat("0", width-len(s)) + s, nil
}
