package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for stored records. Fields are written in declaration
// order; times are Unix microseconds in UTC and vectors are a varint length
// followed by fixed-width float32s.
var (
	IDMUS         = idMUS{}
	VectorMUS     = vectorMUS{}
	DocumentMUS   = documentMUS{}
	CheckpointMUS = checkpointMUS{}
)

var (
	_ mus.Serializer[ID]         = IDMUS
	_ mus.Serializer[[]float32]  = VectorMUS
	_ mus.Serializer[Document]   = DocumentMUS
	_ mus.Serializer[Checkpoint] = CheckpointMUS
)

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

// timeMUS stores a time as Unix microseconds and decodes it in UTC.
type timeMUS struct{}

func (timeMUS) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (timeMUS) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (timeMUS) Size(v time.Time) (size int) {
	return varint.Int64.Size(v.UnixMicro())
}

func (timeMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

var timeSer = timeMUS{}

type vectorMUS struct{}

func (vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func (vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := vectorLength(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	v = make([]float32, length)
	var n1 int
	for i := range v {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (vectorMUS) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return
}

func (vectorMUS) Skip(bs []byte) (n int, err error) {
	length, n, err := vectorLength(bs)
	if err != nil {
		return n, err
	}
	var n1 int
	for range length {
		n1, err = raw.Float32.Skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// vectorLength reads the element count and checks it against the remaining bytes.
func vectorLength(bs []byte) (length, n int, err error) {
	length, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return 0, n, err
	}
	if length < 0 || length > (len(bs)-n)/4 {
		return 0, n, ErrMalformedRecord
	}
	return length, n, nil
}

type documentMUS struct{}

func (documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(v.URL, bs[n:])
	n += ord.String.Marshal(v.DateString, bs[n:])
	n += varint.Int64.Marshal(v.Timestamp, bs[n:])
	n += ord.String.Marshal(string(v.Source), bs[n:])
	n += VectorMUS.Marshal(v.Vector, bs[n:])
	n += timeSer.Marshal(v.InsertedAt, bs[n:])
	return
}

func (documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.URL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DateString, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Timestamp, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var source string
	source, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Source = Source(source)
	v.Vector, n1, err = VectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	return
}

func (documentMUS) Size(v Document) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Text)
	size += ord.String.Size(v.URL)
	size += ord.String.Size(v.DateString)
	size += varint.Int64.Size(v.Timestamp)
	size += ord.String.Size(string(v.Source))
	size += VectorMUS.Size(v.Vector)
	return size + timeSer.Size(v.InsertedAt)
}

func (documentMUS) Skip(bs []byte) (n int, err error) {
	skips := []func([]byte) (int, error){
		IDMUS.Skip,
		ord.String.Skip,
		ord.String.Skip,
		ord.String.Skip,
		varint.Int64.Skip,
		ord.String.Skip,
		VectorMUS.Skip,
		timeSer.Skip,
	}
	return skipAll(bs, skips)
}

type checkpointMUS struct{}

func (checkpointMUS) Marshal(v Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += IDMUS.Marshal(v.LastID, bs[n:])
	n += varint.Int.Marshal(v.Processed, bs[n:])
	n += timeSer.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (checkpointMUS) Unmarshal(bs []byte) (v Checkpoint, n int, err error) {
	v.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.LastID, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Processed, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	return
}

func (checkpointMUS) Size(v Checkpoint) (size int) {
	size = ord.String.Size(v.Name)
	size += IDMUS.Size(v.LastID)
	size += varint.Int.Size(v.Processed)
	return size + timeSer.Size(v.UpdatedAt)
}

func (checkpointMUS) Skip(bs []byte) (n int, err error) {
	return skipAll(bs, []func([]byte) (int, error){
		ord.String.Skip,
		IDMUS.Skip,
		varint.Int.Skip,
		timeSer.Skip,
	})
}

func skipAll(bs []byte, skips []func([]byte) (int, error)) (n int, err error) {
	for _, skip := range skips {
		var n1 int
		n1, err = skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}
