// Package stream reads the newline-delimited JSON result export written by
// the load-testing runtime (one self-describing record per line).
package stream

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// TypePoint marks a record carrying a single observation
const TypePoint = "Point"

// Record is one line of the result export
type Record struct {
	Type   string     `json:"type"`
	Metric string     `json:"metric"`
	Data   *PointData `json:"data"`

	// Raw holds the trimmed line the record was decoded from
	Raw []byte `json:"-"`
}

// PointData is the payload of a Point record
type PointData struct {
	Time  string            `json:"time,omitempty"`
	Value *float64          `json:"value"`
	Tags  map[string]string `json:"tags,omitempty"`
}

// IsPoint returns true if the record is a point observation with a value
func (r *Record) IsPoint() bool {
	return r.Type == TypePoint && r.Data != nil && r.Data.Value != nil
}

// Value returns the observed value, or 0 if the record has none
func (r *Record) Value() float64 {
	if r.Data == nil || r.Data.Value == nil {
		return 0
	}
	return *r.Data.Value
}

// Reader walks a result stream one line at a time. Lines that fail to decode
// are skipped and counted; they never stop the walk. Only I/O errors do.
type Reader struct {
	r       *bufio.Reader
	record  Record
	err     error
	lines   int
	skipped int
	done    bool
}

// NewReader creates a Reader over r
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next advances to the next decodable record. It returns false at the end of
// the stream or on a read error; check Err afterwards.
func (s *Reader) Next() bool {
	for !s.done {
		line, err := s.r.ReadBytes('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = fmt.Errorf("failed to read result stream: %w", err)
				s.done = true
				return false
			}
			s.done = true
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		s.lines++

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			s.skipped++
			continue
		}
		rec.Raw = line
		s.record = rec
		return true
	}
	return false
}

// Record returns the record decoded by the last successful Next
func (s *Reader) Record() *Record {
	return &s.record
}

// Err returns the first I/O error encountered, if any
func (s *Reader) Err() error {
	return s.err
}

// Lines returns the number of non-blank lines read so far
func (s *Reader) Lines() int {
	return s.lines
}

// Skipped returns the number of lines that could not be decoded
func (s *Reader) Skipped() int {
	return s.skipped
}
