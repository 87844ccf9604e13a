package layer

import (
	"encoding/binary"

	"github.com/pion/dtls/v2/pkg/protocol"
	"github.com/pion/dtls/v2/pkg/protocol/extension"
)

const (
	clientHelloFixedSize = 34
	RandomLength         = 32
)

type MessageClientHello struct {
	Version            DTLSVersion
	Random             [RandomLength]byte
	Cookie             []byte
	SessionID          []byte
	CipherSuites       []CipherSuiteID
	CompressionMethods []*protocol.CompressionMethod
	Extensions         []extension.Extension
}

func (m *MessageClientHello) Marshal() ([]byte, error) {
	if len(m.Cookie) > 255 {
		return nil, errCookieTooLong
	}

	out := make([]byte, clientHelloFixedSize)
	binary.BigEndian.PutUint16(out, uint16(m.Version))
	copy(out[2:], m.Random[:])

	out = append(out, byte(len(m.SessionID)))
	out = append(out, m.SessionID...)
	out = append(out, byte(len(m.Cookie)))
	out = append(out, m.Cookie...)
	out = append(out, encodeCipherSuiteIDs(m.CipherSuites)...)
	out = append(out, protocol.EncodeCompressionMethods(m.CompressionMethods)...)

	extensions, err := extension.Marshal(m.Extensions) // 包含2字节的总长度
	if err != nil {
		return nil, err
	}
	return append(out, extensions...), nil
}

func (m *MessageClientHello) Unmarshal(data []byte) error {
	if len(data) < clientHelloFixedSize {
		return errBufferTooSmall
	}
	m.Version = DTLSVersion(binary.BigEndian.Uint16(data))
	copy(m.Random[:], data[2:])

	offset := clientHelloFixedSize

	// SessionID
	if len(data) < offset+1 {
		return errBufferTooSmall
	}
	n := int(data[offset])
	offset++
	if len(data) < offset+n {
		return errBufferTooSmall
	}
	m.SessionID = append([]byte{}, data[offset:offset+n]...)
	offset += n

	// Cookie
	if len(data) < offset+1 {
		return errBufferTooSmall
	}
	n = int(data[offset])
	offset++
	if len(data) < offset+n {
		return errBufferTooSmall
	}
	m.Cookie = append([]byte{}, data[offset:offset+n]...)
	offset += n

	// CipherSuites
	cipherSuites, err := decodeCipherSuiteIDs(data[offset:])
	if err != nil {
		return err
	}
	m.CipherSuites = cipherSuites
	offset += int(binary.BigEndian.Uint16(data[offset:])) + 2

	// CompressionMethods
	if len(data) < offset+1 {
		return errBufferTooSmall
	}
	compressionMethods, err := protocol.DecodeCompressionMethods(data[offset:])
	if err != nil {
		return err
	}
	m.CompressionMethods = compressionMethods
	offset += int(data[offset]) + 1

	// Extensions 未知类型的扩展会被忽略
	extensions, err := extension.Unmarshal(data[offset:])
	if err != nil {
		return err
	}
	m.Extensions = extensions

	return nil
}

func (m *MessageClientHello) MessageType() MessageType {
	return TypeClientHello
}
