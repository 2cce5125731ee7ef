package model

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// RecordID identifies a record. It is unique within an index.
type RecordID int64

// BlockID identifies a data block.
type BlockID int64

// NodeID identifies an index block. Node ids are never reused.
type NodeID int64

// DefaultDelimiter separates the fields of a record line.
const DefaultDelimiter = ","

// ErrParse is returned for malformed record lines.
var ErrParse = errors.New("parse error")

// ErrUnformattable is returned by FormatRecord for records that would not
// parse back to themselves.
var ErrUnformattable = errors.New("record has no line form")

// Record is a named point in d-dimensional space.
type Record struct {
	ID RecordID
	// Name is free text. Records written as lines must not carry the
	// delimiter or a line break in it.
	Name   string
	Coords []float64
}

// Dims returns the dimensionality of the record.
func (r Record) Dims() int { return len(r.Coords) }

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	return Record{ID: r.ID, Name: r.Name, Coords: slices.Clone(r.Coords)}
}

// String returns a human readable representation of the record.
func (r Record) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ID: %d, Name: %s, Coordinates: ", r.ID, r.Name)
	for i, c := range r.Coords {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(c, 'g', -1, 64))
	}
	return sb.String()
}

// ParseRecord parses one record line with exactly dims coordinates.
// An empty delim selects DefaultDelimiter.
func ParseRecord(line, delim string, dims int) (Record, error) {
	if delim == "" {
		delim = DefaultDelimiter
	}
	fields := strings.Split(strings.TrimRight(line, "\r\n"), delim)
	if len(fields) != dims+2 {
		return Record{}, fmt.Errorf("%w: expected %d fields, got %d: %q", ErrParse, dims+2, len(fields), line)
	}

	id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: record id %q: %w", ErrParse, fields[0], err)
	}

	coords := make([]float64, dims)
	for i := range coords {
		raw := strings.TrimSpace(fields[i+2])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Record{}, fmt.Errorf("%w: coordinate %d %q: %w", ErrParse, i, raw, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Record{}, fmt.Errorf("%w: coordinate %d %q is not finite", ErrParse, i, raw)
		}
		coords[i] = v
	}

	return Record{ID: RecordID(id), Name: fields[1], Coords: coords}, nil
}

// FormatRecord renders r in the line format accepted by ParseRecord.
// Names containing delim or a line break have no line form and are
// rejected with ErrUnformattable.
func FormatRecord(r Record, delim string) (string, error) {
	if delim == "" {
		delim = DefaultDelimiter
	}
	if strings.Contains(r.Name, delim) || strings.ContainsAny(r.Name, "\r\n") {
		return "", fmt.Errorf("%w: name %q of record %d", ErrUnformattable, r.Name, r.ID)
	}
	if i := slices.IndexFunc(r.Coords, func(c float64) bool { return math.IsNaN(c) || math.IsInf(c, 0) }); i >= 0 {
		return "", fmt.Errorf("%w: coordinate %d of record %d is %g", ErrUnformattable, i, r.ID, r.Coords[i])
	}
	parts := make([]string, 0, len(r.Coords)+2)
	parts = append(parts, strconv.FormatInt(int64(r.ID), 10), r.Name)
	for _, c := range r.Coords {
		parts = append(parts, strconv.FormatFloat(c, 'g', -1, 64))
	}
	return strings.Join(parts, delim), nil
}
