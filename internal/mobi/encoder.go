// Package mobi writes a minimal two-record PDB/MOBI book: a PalmDOC and MOBI
// header in record 0 followed by the whole document as one uncompressed
// UTF-8 text record.
//
// There is no EXTH block, no compression and no 4096-byte text chunking, so
// compatibility with real readers beyond basic cases is not guaranteed.
package mobi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"html"
	"math"
	"time"
	"unicode/utf8"

	"github.com/jackzampolin/quire/internal/types"
)

// MediaType is the MIME type of an encoded book.
const MediaType = "application/x-mobi8-ebook"

// Layout constants. Every offset in the file is derived from these.
const (
	pdbNameLen       = 32
	pdbHeaderLen     = 78
	recordInfoLen    = 8
	recordCount      = 2
	palmDocHeaderLen = 16
	mobiHeaderLen    = 232

	record0Offset = pdbHeaderLen + recordCount*recordInfoLen
	record1Offset = record0Offset + palmDocHeaderLen + mobiHeaderLen

	// MinSize is the length of a file whose text record is empty.
	MinSize = record1Offset
)

// Header values.
const (
	palmEpochOffset = 2082844800 // seconds from 1904-01-01 to 1970-01-01
	textRecordSize  = 4096
	encodingUTF8    = 65001
	mobiTypeBook    = 2
	fileVersion     = 6
	compressionNone = 1
	uniqueIDSeed    = 1
	mobiUniqueID    = 0x51554952 // "QUIR"

	pdbType    = "BOOK"
	pdbCreator = "MOBI"
	mobiIdent  = "MOBI"
)

// PDB header field offsets.
const (
	offAttributes   = 32
	offVersion      = 34
	offCreationDate = 36
	offModDate      = 40
	offBackupDate   = 44
	offModNumber    = 48
	offAppInfo      = 52
	offSortInfo     = 56
	offType         = 60
	offCreator      = 64
	offUniqueIDSeed = 68
	offNextRecord   = 72
	offNumRecords   = 76
)

// PalmDOC header field offsets, relative to record 0.
const (
	offCompression = 0
	offUnused      = 2
	offTextLength  = 4
	offRecordCount = 8
	offRecordSize  = 10
	offPosition    = 12
)

// MOBI header field offsets, relative to the end of the PalmDOC header.
const (
	offIdent     = 0
	offHeaderLen = 4
	offMobiType  = 8
	offEncoding  = 12
	offUniqueID  = 16
	offFileVer   = 20
	offEXTHFlags = 112
)

// Encoder produces MOBI files.
type Encoder struct {
	Now func() time.Time
}

// NewEncoder returns an encoder stamped with the wall clock.
func NewEncoder() *Encoder {
	return &Encoder{Now: time.Now}
}

// WrapDocument returns the HTML document stored in the text record.
func WrapDocument(title, body string) string {
	t := html.EscapeString(title)
	return "<html><head><title>" + t + "</title></head><body><h1>" + t + "</h1>" + body + "</body></html>"
}

// Encode builds the file for body under title.
func (e *Encoder) Encode(title, body string) ([]byte, error) {
	text := []byte(WrapDocument(title, body))
	if uint64(len(text)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: text record of %d bytes exceeds 4 GiB", types.ErrPackagingFailure, len(text))
	}

	buf := make([]byte, record1Offset, record1Offset+len(text))
	stamp := e.palmTime()

	// PDB header.
	copy(buf[:pdbNameLen-1], pdbName(title))
	be.PutUint16(buf[offAttributes:], 0)
	be.PutUint16(buf[offVersion:], 0)
	be.PutUint32(buf[offCreationDate:], stamp)
	be.PutUint32(buf[offModDate:], stamp)
	be.PutUint32(buf[offBackupDate:], 0)
	be.PutUint32(buf[offModNumber:], 0)
	be.PutUint32(buf[offAppInfo:], 0)
	be.PutUint32(buf[offSortInfo:], 0)
	copy(buf[offType:offType+4], pdbType)
	copy(buf[offCreator:offCreator+4], pdbCreator)
	be.PutUint32(buf[offUniqueIDSeed:], uniqueIDSeed)
	be.PutUint32(buf[offNextRecord:], 0)
	be.PutUint16(buf[offNumRecords:], recordCount)

	// Record info table: offset, then attributes (0) and a 24-bit id.
	offsets := [recordCount]uint32{record0Offset, record1Offset}
	for i, off := range offsets {
		entry := buf[pdbHeaderLen+i*recordInfoLen:]
		be.PutUint32(entry[0:], off)
		be.PutUint32(entry[4:], uint32(i)&0x00FFFFFF)
	}

	// Record 0: PalmDOC header.
	palm := buf[record0Offset : record0Offset+palmDocHeaderLen]
	be.PutUint16(palm[offCompression:], compressionNone)
	be.PutUint16(palm[offUnused:], 0)
	be.PutUint32(palm[offTextLength:], uint32(len(text)))
	be.PutUint16(palm[offRecordCount:], 1)
	be.PutUint16(palm[offRecordSize:], textRecordSize)
	be.PutUint32(palm[offPosition:], 0)

	// Record 0: MOBI header. Fields not set here stay zero.
	mh := buf[record0Offset+palmDocHeaderLen : record1Offset]
	copy(mh[offIdent:offIdent+4], mobiIdent)
	be.PutUint32(mh[offHeaderLen:], mobiHeaderLen)
	be.PutUint32(mh[offMobiType:], mobiTypeBook)
	be.PutUint32(mh[offEncoding:], encodingUTF8)
	be.PutUint32(mh[offUniqueID:], mobiUniqueID)
	be.PutUint32(mh[offFileVer:], fileVersion)
	be.PutUint32(mh[offEXTHFlags:], 0)

	// Record 1.
	buf = append(buf, text...)
	return buf, nil
}

func (e *Encoder) palmTime() uint32 {
	now := time.Now
	if e != nil && e.Now != nil {
		now = e.Now
	}
	return uint32(now().Unix() + palmEpochOffset)
}

var be = binary.BigEndian

// pdbName truncates title to at most 31 bytes without splitting a rune.
func pdbName(title string) []byte {
	b := []byte(title)
	// NUL would terminate the name early.
	b = bytes.ReplaceAll(b, []byte{0}, []byte{' '})
	if len(b) <= pdbNameLen-1 {
		return b
	}
	n := pdbNameLen - 1
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return b[:n]
}
