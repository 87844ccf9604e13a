package layer

import "encoding/binary"

type CipherSuiteID uint16

// 唯一支持的密码套件
const TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256 CipherSuiteID = 0xc02f

func (c CipherSuiteID) String() string {
	switch c {
	case TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256:
		return "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256"
	default:
		return "Uknown CipherSuite"
	}
}

func decodeCipherSuiteIDs(buf []byte) ([]CipherSuiteID, error) {
	if len(buf) < 2 {
		return nil, errBufferTooSmall
	}
	cipherSuitesLength := int(binary.BigEndian.Uint16(buf[0:]))
	if len(buf) < cipherSuitesLength+2 {
		return nil, errBufferTooSmall
	}

	cipherSuitesCount := cipherSuitesLength >> 1
	cipherSuites := make([]CipherSuiteID, cipherSuitesCount)
	for i := 0; i < cipherSuitesCount; i++ {
		cipherSuites[i] = CipherSuiteID(binary.BigEndian.Uint16(buf[(i<<1)+2:]))
	}
	return cipherSuites, nil
}

func encodeCipherSuiteIDs(cipherSuites []CipherSuiteID) []byte {
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, uint16(len(cipherSuites)<<1))
	for _, id := range cipherSuites {
		out = binary.BigEndian.AppendUint16(out, uint16(id))
	}
	return out
}
