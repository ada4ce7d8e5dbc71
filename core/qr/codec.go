// Package qr decodes and encodes the booklet QR payloads:
//
//	T4|BM|<year>|<classCode>|<studentNumber>|<materialCode>[|<crc>]
package qr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/trezcool/workbook/core"
)

const (
	Prefix     = Version + sep + RecordType + sep
	Version    = "T4"
	RecordType = "BM"

	sep       = "|"
	minFields = 6
	minYear   = 2000
	maxYear   = 2100
)

var (
	// errors
	ErrMalformedPayload = core.NewDomainError(core.KindInvalid, "malformed_payload", "malformed QR payload")

	materialCodeRegex = regexp.MustCompile(`^[A-Z0-9]+$`)
)

// WarnMissingChecksum is carried by payloads scanned without a checksum segment.
const WarnMissingChecksum = "missing checksum, continuing"

// Identity is the structured content of a booklet QR payload.
type Identity struct {
	Version       string `json:"version"`
	RecordType    string `json:"record_type"`
	Year          int    `json:"year"`
	ClassCode     string `json:"class_code"`
	StudentNumber int    `json:"student_number"`
	MaterialCode  string `json:"material_code"`
	Checksum      string `json:"checksum,omitempty"`
}

// Payload returns the canonical (normalized) payload of the identity, without checksum.
// It is the lookup key of booklets.
func (id Identity) Payload() string {
	return strings.Join(id.fields(), sep)
}

// Encode returns the canonical payload followed by its checksum, as printed on booklets.
func (id Identity) Encode() string {
	p := id.Payload()
	return p + sep + Checksum(p)
}

func (id Identity) fields() []string {
	version, recType := id.Version, id.RecordType
	if version == "" {
		version = Version
	}
	if recType == "" {
		recType = RecordType
	}
	return []string{
		version,
		recType,
		fmt.Sprintf("%04d", id.Year),
		id.ClassCode,
		fmt.Sprintf("%03d", id.StudentNumber),
		id.MaterialCode,
	}
}

// Decoded is the result of a successful Decode.
type Decoded struct {
	Identity
	Payload string // canonical payload
	Warning string // non-fatal checksum warning, if any
}

// Sanitize strips trailing line terminators then surrounding whitespace, as left by scanner devices.
func Sanitize(raw string) string {
	return strings.TrimSpace(strings.TrimRight(raw, "\r\n"))
}

// Decode parses a raw scanned string.
// A missing or mismatching checksum does not fail decoding, it is reported in Decoded.Warning.
func Decode(raw string) (Decoded, error) {
	s := Sanitize(raw)
	if !strings.HasPrefix(s, Prefix) {
		return Decoded{}, ErrMalformedPayload.WithReason("payload must start with " + Prefix)
	}

	fields := strings.Split(s, sep)
	if len(fields) < minFields {
		return Decoded{}, ErrMalformedPayload.WithReason(fmt.Sprintf("expected at least %d fields, got %d", minFields, len(fields)))
	}

	year, err := strconv.Atoi(fields[2])
	if err != nil || year < minYear || year > maxYear {
		return Decoded{}, ErrMalformedPayload.WithReason(fmt.Sprintf("year must be an integer between %d and %d", minYear, maxYear))
	}
	number, err := strconv.Atoi(fields[4])
	if err != nil || number <= 0 {
		return Decoded{}, ErrMalformedPayload.WithReason("student number must be a positive integer")
	}
	if !materialCodeRegex.MatchString(fields[5]) {
		return Decoded{}, ErrMalformedPayload.WithReason("material code must only contain A-Z and 0-9")
	}

	id := Identity{
		Version:       fields[0],
		RecordType:    fields[1],
		Year:          year,
		ClassCode:     fields[3],
		StudentNumber: number,
		MaterialCode:  fields[5],
	}
	if len(fields) > minFields {
		id.Checksum = fields[minFields]
	}

	dec := Decoded{Identity: id, Payload: id.Payload()}
	if id.Checksum == "" {
		dec.Warning = WarnMissingChecksum
	} else {
		// the checksum covers the fields as scanned, not the canonical ones
		want := Checksum(strings.Join(fields[:minFields], sep))
		if !strings.EqualFold(id.Checksum, want) {
			dec.Warning = fmt.Sprintf("checksum mismatch (read: %s / computed: %s)", id.Checksum, want)
		}
	}
	return dec, nil
}
