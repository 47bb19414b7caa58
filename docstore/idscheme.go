package docstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrUnknownIDScheme is returned by IDSchemeByName for unsupported names.
var ErrUnknownIDScheme = errors.New("unknown id scheme")

// IDScheme describes identifiers that embed their creation timestamp.
//
// Implementations guarantee that, for identifiers matching Pattern(), the textual order of ids
// minted at different instants follows the order of those instants, and that every id minted at or
// after an instant t is textually >= LowerBound(t). This lets stores select "minted since" with a
// plain string comparison.
type IDScheme interface {
	Name() string
	NewID(at time.Time) string
	// Timestamp extracts the minting time. It reports false for ids that do not have the scheme's shape.
	Timestamp(id string) (time.Time, bool)
	// LowerBound returns the smallest possible id minted at the given instant.
	LowerBound(at time.Time) string
	// Pattern is an anchored, case-sensitive regular expression describing the id shape.
	Pattern() string
	// Precision is the resolution of the embedded timestamp.
	Precision() time.Duration
}

const (
	IDSchemeUUIDv7   = "uuidv7"
	IDSchemeULID     = "ulid"
	IDSchemeObjectID = "objectid"
)

// IDSchemeByName returns the IDScheme for one of the names IDSchemeUUIDv7, IDSchemeULID, IDSchemeObjectID.
func IDSchemeByName(name string) (IDScheme, error) {
	switch strings.ToLower(name) {
	case IDSchemeUUIDv7:
		return UUIDv7Scheme{}, nil
	case IDSchemeULID:
		return ULIDScheme{}, nil
	case IDSchemeObjectID:
		return ObjectIDScheme{}, nil
	default:
		return nil, errors.Join(ErrUnknownIDScheme, fmt.Errorf("%q", name))
	}
}

/***** UUIDv7 *****/

const uuidV7Pattern = `^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`

var uuidV7Regexp = regexp.MustCompile(uuidV7Pattern)

// UUIDv7Scheme mints RFC 9562 version 7 UUIDs in their lowercase canonical form.
type UUIDv7Scheme struct{}

func (UUIDv7Scheme) Name() string {
	return IDSchemeUUIDv7
}

func (UUIDv7Scheme) NewID(at time.Time) string {
	u := uuid.Must(uuid.NewV7())
	putUnixMilli48(u[:6], at)

	return u.String()
}

func (UUIDv7Scheme) Timestamp(id string) (time.Time, bool) {
	if !uuidV7Regexp.MatchString(id) {
		return time.Time{}, false
	}

	u, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}, false
	}

	return unixMilli48(u[:6]), true
}

func (UUIDv7Scheme) LowerBound(at time.Time) string {
	var u uuid.UUID
	putUnixMilli48(u[:6], at)
	u[6] = 0x70 // version 7
	u[8] = 0x80 // RFC 9562 variant

	return u.String()
}

func (UUIDv7Scheme) Pattern() string {
	return uuidV7Pattern
}

func (UUIDv7Scheme) Precision() time.Duration {
	return time.Millisecond
}

func putUnixMilli48(dst []byte, at time.Time) {
	ms := uint64(at.UnixMilli()) //nolint:gosec
	dst[0] = byte(ms >> 40)
	dst[1] = byte(ms >> 32)
	dst[2] = byte(ms >> 24)
	dst[3] = byte(ms >> 16)
	dst[4] = byte(ms >> 8)
	dst[5] = byte(ms)
}

func unixMilli48(src []byte) time.Time {
	ms := int64(src[0])<<40 | int64(src[1])<<32 | int64(src[2])<<24 |
		int64(src[3])<<16 | int64(src[4])<<8 | int64(src[5])

	return time.UnixMilli(ms).UTC()
}

/***** ULID *****/

const ulidPattern = `^[0-7][0-9A-HJKMNP-TV-Z]{25}$`

var ulidRegexp = regexp.MustCompile(ulidPattern)

// ULIDScheme mints ULIDs in their canonical upper-case Crockford base32 form.
type ULIDScheme struct{}

func (ULIDScheme) Name() string {
	return IDSchemeULID
}

func (ULIDScheme) NewID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}

func (ULIDScheme) Timestamp(id string) (time.Time, bool) {
	if !ulidRegexp.MatchString(id) {
		return time.Time{}, false
	}

	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, false
	}

	return ulid.Time(u.Time()).UTC(), true
}

func (ULIDScheme) LowerBound(at time.Time) string {
	var u ulid.ULID
	_ = u.SetTime(ulid.Timestamp(at))

	return u.String()
}

func (ULIDScheme) Pattern() string {
	return ulidPattern
}

func (ULIDScheme) Precision() time.Duration {
	return time.Millisecond
}

/***** ObjectID *****/

const objectIDPattern = `^[0-9a-f]{24}$`

var objectIDRegexp = regexp.MustCompile(objectIDPattern)

// ObjectIDScheme mints MongoDB ObjectIDs rendered as lowercase hex.
type ObjectIDScheme struct{}

func (ObjectIDScheme) Name() string {
	return IDSchemeObjectID
}

func (ObjectIDScheme) NewID(at time.Time) string {
	oid := primitive.NewObjectID()
	binary.BigEndian.PutUint32(oid[0:4], uint32(at.Unix())) //nolint:gosec

	return oid.Hex()
}

func (ObjectIDScheme) Timestamp(id string) (time.Time, bool) {
	if !objectIDRegexp.MatchString(id) {
		return time.Time{}, false
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return time.Time{}, false
	}

	return oid.Timestamp().UTC(), true
}

func (ObjectIDScheme) LowerBound(at time.Time) string {
	return primitive.NewObjectIDFromTimestamp(at).Hex()
}

func (ObjectIDScheme) Pattern() string {
	return objectIDPattern
}

func (ObjectIDScheme) Precision() time.Duration {
	return time.Second
}
