// Package calib loads and hands out the two calibration inputs the core
// needs: the angle-to-angle mapping table and the per-pixel mask. Both are
// treated as immutable once loaded; callers hold a Handle, a thin
// reference-counted wrapper around a shared, never-mutated table, so that a
// Reload in progress never invalidates a segment a consumer is still
// reading.
//
// Grounded on the teacher's config loader (size cap, extension check, then
// parse — internal/config, formerly LoadTuningConfig) for the CSV path, and
// on its fixed-record binary parsing style (internal/lidar/parse/extract.go)
// for the binary blob path.
package calib

import (
	"bufio"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync/atomic"
)

// MappingRecordCount is the fixed number of records in the mapping table.
const MappingRecordCount = 1_226_561

// mappingRecordSize is the byte size of one binary mapping record: 4 signed
// 32-bit integers (x, y, theta, phi).
const mappingRecordSize = 4 * 4

const maxMappingFileSize = 256 * 1024 * 1024 // generous cap; records are fixed-size

// MappingRecord is one entry of the angle-to-angle mapping table.
type MappingRecord struct {
	X, Y, Theta, Phi int32
}

// MappingTable is the immutable, fully-loaded mapping table.
type MappingTable struct {
	Records [MappingRecordCount]MappingRecord
}

// MappingHandle is a reference-counted, read-only handle to a MappingTable.
// Multiple Output Segments may share one handle; the table itself is never
// mutated after Load returns it, so concurrent readers need no locking.
type MappingHandle struct {
	table *MappingTable
	refs  *int64
}

// Table returns the underlying immutable table.
func (h MappingHandle) Table() *MappingTable {
	if h.table == nil {
		return nil
	}
	return h.table
}

// Valid reports whether this handle carries a table at all (a zero
// MappingHandle is the "calibration unavailable" value).
func (h MappingHandle) Valid() bool { return h.table != nil }

// Retain increments the reference count and returns the same handle, for
// callers handing a copy to a second owner (e.g. a second Output Segment
// referencing the same table).
func (h MappingHandle) Retain() MappingHandle {
	if h.refs != nil {
		atomic.AddInt64(h.refs, 1)
	}
	return h
}

// Release decrements the reference count. The Go runtime reclaims the
// backing array once nothing references it; Release exists so callers can
// track outstanding readers for diagnostics, not to drive an explicit free.
func (h MappingHandle) Release() {
	if h.refs != nil {
		atomic.AddInt64(h.refs, -1)
	}
}

func newMappingHandle(t *MappingTable) MappingHandle {
	refs := new(int64)
	*refs = 1
	return MappingHandle{table: t, refs: refs}
}

// LoadMappingTableBinary reads a fixed-record binary mapping table: exactly
// MappingRecordCount records of 4 little-endian signed int32 values each.
func LoadMappingTableBinary(path string) (MappingHandle, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return MappingHandle{}, fmt.Errorf("calib: stat mapping file: %w", err)
	}
	if fi.Size() > maxMappingFileSize {
		return MappingHandle{}, fmt.Errorf("calib: mapping file too large: %d bytes", fi.Size())
	}
	want := int64(MappingRecordCount * mappingRecordSize)
	if fi.Size() != want {
		return MappingHandle{}, fmt.Errorf("calib: mapping file is %d bytes, want %d", fi.Size(), want)
	}

	f, err := os.Open(path)
	if err != nil {
		return MappingHandle{}, fmt.Errorf("calib: open mapping file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 1<<20)
	table := &MappingTable{}
	var buf [mappingRecordSize]byte
	for i := 0; i < MappingRecordCount; i++ {
		if _, err := readFull(r, buf[:]); err != nil {
			return MappingHandle{}, fmt.Errorf("calib: reading record %d: %w", i, err)
		}
		table.Records[i] = MappingRecord{
			X:     int32(binary.LittleEndian.Uint32(buf[0:4])),
			Y:     int32(binary.LittleEndian.Uint32(buf[4:8])),
			Theta: int32(binary.LittleEndian.Uint32(buf[8:12])),
			Phi:   int32(binary.LittleEndian.Uint32(buf[12:16])),
		}
	}
	return newMappingHandle(table), nil
}

// LoadMappingTableCSV reads a CSV mapping table, one record per row: x, y,
// theta, phi.
func LoadMappingTableCSV(path string) (MappingHandle, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return MappingHandle{}, fmt.Errorf("calib: stat mapping file: %w", err)
	}
	if fi.Size() > maxMappingFileSize {
		return MappingHandle{}, fmt.Errorf("calib: mapping file too large: %d bytes", fi.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return MappingHandle{}, fmt.Errorf("calib: open mapping file: %w", err)
	}
	defer f.Close()

	rd := csv.NewReader(bufio.NewReaderSize(f, 1<<20))
	rd.FieldsPerRecord = 4
	rd.ReuseRecord = true

	table := &MappingTable{}
	i := 0
	for {
		row, err := rd.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return MappingHandle{}, fmt.Errorf("calib: reading CSV row %d: %w", i, err)
		}
		if i >= MappingRecordCount {
			return MappingHandle{}, fmt.Errorf("calib: CSV has more than %d records", MappingRecordCount)
		}
		rec, err := parseMappingRow(row)
		if err != nil {
			return MappingHandle{}, fmt.Errorf("calib: row %d: %w", i, err)
		}
		table.Records[i] = rec
		i++
	}
	if i != MappingRecordCount {
		return MappingHandle{}, fmt.Errorf("calib: CSV has %d records, want %d", i, MappingRecordCount)
	}
	return newMappingHandle(table), nil
}

func parseMappingRow(row []string) (MappingRecord, error) {
	vals := make([]int32, 4)
	for i, s := range row {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return MappingRecord{}, fmt.Errorf("field %d: %w", i, err)
		}
		vals[i] = int32(n)
	}
	return MappingRecord{X: vals[0], Y: vals[1], Theta: vals[2], Phi: vals[3]}, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
