package mobi

import (
	"bytes"
	"errors"
	"fmt"
	"time"
)

// ErrMalformed is returned by Decode for buffers that do not follow the layout.
var ErrMalformed = errors.New("malformed mobi file")

// RecordInfo is one entry of the PDB record table.
type RecordInfo struct {
	Offset     uint32 `json:"offset" yaml:"offset"`
	Attributes uint8  `json:"attributes" yaml:"attributes"`
	ID         uint32 `json:"id" yaml:"id"`
}

// File is the decoded structure of a MOBI book written by Encoder.
type File struct {
	Name     string       `json:"name" yaml:"name"`
	Created  time.Time    `json:"created" yaml:"created"`
	Modified time.Time    `json:"modified" yaml:"modified"`
	Type     string       `json:"type" yaml:"type"`
	Creator  string       `json:"creator" yaml:"creator"`
	Records  []RecordInfo `json:"records" yaml:"records"`

	Compression     uint16 `json:"compression" yaml:"compression"`
	TextLength      uint32 `json:"text_length" yaml:"text_length"`
	TextRecordCount uint16 `json:"text_record_count" yaml:"text_record_count"`
	TextRecordSize  uint16 `json:"text_record_size" yaml:"text_record_size"`

	Identifier   string `json:"identifier" yaml:"identifier"`
	HeaderLength uint32 `json:"header_length" yaml:"header_length"`
	MobiType     uint32 `json:"mobi_type" yaml:"mobi_type"`
	Encoding     uint32 `json:"encoding" yaml:"encoding"`
	UniqueID     uint32 `json:"unique_id" yaml:"unique_id"`
	FileVersion  uint32 `json:"file_version" yaml:"file_version"`
	EXTHFlags    uint32 `json:"exth_flags" yaml:"exth_flags"`

	Text []byte `json:"-" yaml:"-"`
}

// Decode parses a buffer produced by Encoder, checking that the record table
// points at the headers and text where the layout puts them.
func Decode(data []byte) (*File, error) {
	if len(data) < pdbHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the PDB header", ErrMalformed, len(data))
	}

	f := &File{
		Name:     string(bytes.TrimRight(data[:pdbNameLen], "\x00")),
		Created:  fromPalm(be.Uint32(data[offCreationDate:])),
		Modified: fromPalm(be.Uint32(data[offModDate:])),
		Type:     string(data[offType : offType+4]),
		Creator:  string(data[offCreator : offCreator+4]),
	}

	n := int(be.Uint16(data[offNumRecords:]))
	if n != recordCount {
		return nil, fmt.Errorf("%w: expected %d records, found %d", ErrMalformed, recordCount, n)
	}
	if len(data) < pdbHeaderLen+n*recordInfoLen {
		return nil, fmt.Errorf("%w: record table truncated", ErrMalformed)
	}
	for i := 0; i < n; i++ {
		entry := data[pdbHeaderLen+i*recordInfoLen:]
		f.Records = append(f.Records, RecordInfo{
			Offset:     be.Uint32(entry[0:]),
			Attributes: entry[4],
			ID:         be.Uint32(entry[4:]) & 0x00FFFFFF,
		})
	}

	r0, r1 := int64(f.Records[0].Offset), int64(f.Records[1].Offset)
	if r0 != record0Offset || r1 != r0+palmDocHeaderLen+mobiHeaderLen {
		return nil, fmt.Errorf("%w: record offsets %d, %d do not match layout", ErrMalformed, r0, r1)
	}
	if int64(len(data)) < r1 {
		return nil, fmt.Errorf("%w: record 0 truncated", ErrMalformed)
	}

	palm := data[r0 : r0+palmDocHeaderLen]
	f.Compression = be.Uint16(palm[offCompression:])
	f.TextLength = be.Uint32(palm[offTextLength:])
	f.TextRecordCount = be.Uint16(palm[offRecordCount:])
	f.TextRecordSize = be.Uint16(palm[offRecordSize:])

	mh := data[r0+palmDocHeaderLen : r1]
	f.Identifier = string(mh[offIdent : offIdent+4])
	f.HeaderLength = be.Uint32(mh[offHeaderLen:])
	f.MobiType = be.Uint32(mh[offMobiType:])
	f.Encoding = be.Uint32(mh[offEncoding:])
	f.UniqueID = be.Uint32(mh[offUniqueID:])
	f.FileVersion = be.Uint32(mh[offFileVer:])
	f.EXTHFlags = be.Uint32(mh[offEXTHFlags:])

	if f.Identifier != mobiIdent {
		return nil, fmt.Errorf("%w: missing MOBI identifier", ErrMalformed)
	}
	if end := r1 + int64(f.TextLength); end != int64(len(data)) {
		return nil, fmt.Errorf("%w: text length %d does not match %d trailing bytes", ErrMalformed, f.TextLength, int64(len(data))-r1)
	}
	f.Text = data[r1:]

	return f, nil
}

func fromPalm(v uint32) time.Time {
	return time.Unix(int64(v)-palmEpochOffset, 0).UTC()
}
