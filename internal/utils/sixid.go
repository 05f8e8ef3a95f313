package utils

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// SixIDHookFunc lets tests force the next generated ID.
type SixIDHookFunc func() (id SixID, override bool)

// NewSixIDHook overrides NewSixID when set and returning override=true.
var NewSixIDHook SixIDHookFunc

// sixIDSubtype is the user-defined BSON binary subtype SixIDs are stored under.
const sixIDSubtype byte = 0x80

// SixID is a 6-byte document ID, rendered as 10 Crockford Base32 characters.
type SixID [6]byte

// NewSixID returns a random SixID.
func NewSixID() SixID {
	if NewSixIDHook != nil {
		if id, override := NewSixIDHook(); override {
			return id
		}
	}

	var id SixID
	if _, err := rand.Read(id[:]); err != nil {
		return SixID{}
	}
	return id
}

// IsZero reports whether the ID is unset.
func (u SixID) IsZero() bool {
	return u == SixID{}
}

const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var crockfordDecodeMap = func() map[byte]byte {
	m := make(map[byte]byte, 64)
	for i := 0; i < len(crockfordAlphabet); i++ {
		c := crockfordAlphabet[i]
		m[c] = byte(i)
		if c >= 'A' && c <= 'Z' {
			m[c+('a'-'A')] = byte(i)
		}
	}
	// Crockford treats these as visually ambiguous aliases.
	m['O'], m['o'] = 0, 0
	m['I'], m['i'] = 1, 1
	m['L'], m['l'] = 1, 1
	return m
}()

// String encodes the ID as Crockford Base32, least significant bits first.
func (u SixID) String() string {
	out := make([]byte, 0, 10)
	var bits uint
	var n uint
	for _, b := range u {
		bits |= uint(b) << n
		n += 8
		for n >= 5 {
			out = append(out, crockfordAlphabet[bits&0x1F])
			bits >>= 5
			n -= 5
		}
	}
	if n > 0 {
		out = append(out, crockfordAlphabet[bits&0x1F])
	}
	return string(out)
}

// ParseSixID decodes the 10 character form produced by String. Hyphens and spaces are ignored.
func ParseSixID(s string) (SixID, error) {
	s = strings.NewReplacer("-", "", " ", "").Replace(s)
	if len(s) != 10 {
		return SixID{}, errors.New("invalid SixID: expected 10 characters")
	}

	var id SixID
	var bits uint64
	var n uint
	idx := 0
	for i := 0; i < len(s); i++ {
		v, ok := crockfordDecodeMap[s[i]]
		if !ok {
			return SixID{}, fmt.Errorf("invalid SixID: unexpected character %q", s[i])
		}
		bits |= uint64(v) << n
		n += 5
		for n >= 8 && idx < len(id) {
			id[idx] = byte(bits)
			idx++
			bits >>= 8
			n -= 8
		}
	}
	if idx != len(id) {
		return SixID{}, errors.New("invalid SixID: could not decode 6 bytes")
	}
	return id, nil
}

// MustParseSixID is ParseSixID for literals in tests and fixtures.
func MustParseSixID(s string) SixID {
	id, err := ParseSixID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// MarshalBSONValue stores the ID as binary subtype 0x80.
func (u SixID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.Binary, bsoncore.AppendBinary(nil, sixIDSubtype, u[:]), nil
}

// UnmarshalBSONValue accepts binary subtype 0x80 of length 6, or null as the zero ID.
func (u *SixID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null {
		*u = SixID{}
		return nil
	}
	if t != bsontype.Binary {
		return fmt.Errorf("invalid BSON type %s for SixID", t)
	}
	subtype, bin, _, ok := bsoncore.ReadBinary(data)
	if !ok {
		return errors.New("malformed BSON binary for SixID")
	}
	if subtype != sixIDSubtype || len(bin) != len(u) {
		return errors.New("invalid BSON binary for SixID: wrong subtype or length")
	}
	copy(u[:], bin)
	return nil
}

// MarshalJSON renders the Base32 string.
func (u SixID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON accepts the Base32 string; an empty string yields the zero ID.
func (u *SixID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*u = SixID{}
		return nil
	}
	parsed, err := ParseSixID(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
