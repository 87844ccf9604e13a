package layer

import (
	"encoding/binary"

	"github.com/pion/dtls/v2/pkg/crypto/elliptic"
	"github.com/pion/dtls/v2/pkg/crypto/hash"
	"github.com/pion/dtls/v2/pkg/crypto/signature"
)

// MessageServerKeyExchange 只支持 named_curve 形式的 ECDHE 参数
type MessageServerKeyExchange struct {
	EllipticCurveType  elliptic.CurveType
	NamedCurve         elliptic.Curve
	PublicKey          []byte
	HashAlgorithm      hash.Algorithm
	SignatureAlgorithm signature.Algorithm
	Signature          []byte
}

func (m *MessageServerKeyExchange) Marshal() ([]byte, error) {
	if len(m.PublicKey) > 255 {
		return nil, errPublicKeyTooLong
	}

	out := []byte{byte(m.EllipticCurveType)}
	out = binary.BigEndian.AppendUint16(out, uint16(m.NamedCurve))
	out = append(out, byte(len(m.PublicKey)))
	out = append(out, m.PublicKey...)

	out = append(out, byte(m.HashAlgorithm), byte(m.SignatureAlgorithm))
	out = binary.BigEndian.AppendUint16(out, uint16(len(m.Signature)))
	out = append(out, m.Signature...)

	return out, nil
}

func (m *MessageServerKeyExchange) Unmarshal(data []byte) error {
	if len(data) < 4 {
		return errBufferTooSmall
	}
	m.EllipticCurveType = elliptic.CurveType(data[0])
	m.NamedCurve = elliptic.Curve(binary.BigEndian.Uint16(data[1:]))

	publicKeyLength := int(data[3])
	offset := 4
	if len(data) < offset+publicKeyLength+4 {
		return errBufferTooSmall
	}
	m.PublicKey = append([]byte{}, data[offset:offset+publicKeyLength]...)
	offset += publicKeyLength

	m.HashAlgorithm = hash.Algorithm(data[offset])
	m.SignatureAlgorithm = signature.Algorithm(data[offset+1])
	signatureLength := int(binary.BigEndian.Uint16(data[offset+2:]))
	offset += 4
	if len(data) < offset+signatureLength {
		return errBufferTooSmall
	}
	m.Signature = append([]byte{}, data[offset:offset+signatureLength]...)

	return nil
}

// SignedParams 返回签名覆盖的 ECDH 参数字节
func (m *MessageServerKeyExchange) SignedParams() []byte {
	params := []byte{byte(m.EllipticCurveType)}
	params = binary.BigEndian.AppendUint16(params, uint16(m.NamedCurve))
	params = append(params, byte(len(m.PublicKey)))
	return append(params, m.PublicKey...)
}

func (m *MessageServerKeyExchange) MessageType() MessageType {
	return TypeServerKeyExchange
}
