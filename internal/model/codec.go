package model

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/pierrec/lz4/v4"
)

// headerSize 为 LZ4 帧之前的小端 uint64 载荷长度。
const headerSize = 8

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor enc mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cbor dec mode: %v", err))
	}
}

// EncodeMember 将 m 序列化为：CBOR 载荷的 uint64 小端长度，随后是 LZ4 帧压缩的载荷。
func EncodeMember(m *Member) ([]byte, error) {
	payload, err := encMode.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode member: %w", err)
	}

	var buf bytes.Buffer
	var header [headerSize]byte
	binary.LittleEndian.PutUint64(header[:], uint64(len(payload)))
	buf.Write(header[:])

	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("compress member: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress member: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeMember 是 EncodeMember 的逆操作，并重建 pid 查找表。
func DecodeMember(data []byte) (*Member, error) {
	if len(data) < headerSize {
		return nil, ErrMemberTruncated
	}
	size := binary.LittleEndian.Uint64(data[:headerSize])

	zr := lz4.NewReader(bytes.NewReader(data[headerSize:]))
	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress member: %w", err)
	}
	if uint64(len(payload)) != size {
		return nil, fmt.Errorf("member payload is %d bytes, header says %d", len(payload), size)
	}

	var m Member
	if err := decMode.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("decode member: %w", err)
	}
	if err := m.init(); err != nil {
		return nil, fmt.Errorf("decode member: %w", err)
	}
	return &m, nil
}
