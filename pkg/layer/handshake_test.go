package layer

import (
	"testing"

	"github.com/pion/dtls/v2/pkg/crypto/elliptic"
	"github.com/pion/dtls/v2/pkg/crypto/hash"
	"github.com/pion/dtls/v2/pkg/crypto/signature"
	"github.com/pion/dtls/v2/pkg/protocol"
	"github.com/pion/dtls/v2/pkg/protocol/extension"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientHelloRoundTrip(t *testing.T) {
	hello := &MessageClientHello{
		Version:      Version1_2,
		Cookie:       []byte{0xAB, 0xCD},
		SessionID:    []byte{},
		CipherSuites: []CipherSuiteID{TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256},
		CompressionMethods: []*protocol.CompressionMethod{
			{},
		},
		Extensions: []extension.Extension{
			&extension.SupportedEllipticCurves{
				EllipticCurves: []elliptic.Curve{elliptic.X25519},
			},
		},
	}
	for i := range hello.Random {
		hello.Random[i] = byte(i)
	}

	hand := &Handshake{Message: hello}
	data, err := hand.Marshal()
	require.NoError(t, err)

	parsed := &Handshake{}
	require.NoError(t, parsed.Unmarshal(data))
	assert.Equal(t, TypeClientHello, parsed.Header.MessageType)
	assert.True(t, parsed.Header.IsFullMessage())

	got := parsed.Message.(*MessageClientHello)
	assert.Equal(t, hello.Random, got.Random)
	assert.Equal(t, hello.Cookie, got.Cookie)
	assert.Equal(t, hello.CipherSuites, got.CipherSuites)
	require.Len(t, got.Extensions, 1)
	curves := got.Extensions[0].(*extension.SupportedEllipticCurves)
	assert.Equal(t, []elliptic.Curve{elliptic.X25519}, curves.EllipticCurves)
}

func TestClientHelloCookieTooLong(t *testing.T) {
	hello := &MessageClientHello{
		Version: Version1_2,
		Cookie:  make([]byte, 256),
	}
	_, err := hello.Marshal()
	assert.ErrorIs(t, err, errCookieTooLong)
}

func TestServerKeyExchangeRoundTrip(t *testing.T) {
	keyExchange := &MessageServerKeyExchange{
		EllipticCurveType:  elliptic.CurveTypeNamedCurve,
		NamedCurve:         elliptic.X25519,
		PublicKey:          []byte{0x01, 0x02, 0x03, 0x04},
		HashAlgorithm:      hash.SHA256,
		SignatureAlgorithm: signature.RSA,
		Signature:          []byte{0xAA, 0xBB, 0xCC},
	}
	data, err := keyExchange.Marshal()
	require.NoError(t, err)

	parsed := &MessageServerKeyExchange{}
	require.NoError(t, parsed.Unmarshal(data))
	assert.Equal(t, keyExchange, parsed)

	// 签名覆盖的区域是曲线参数加长度前缀的公钥
	assert.Equal(t, []byte{0x03, 0x00, 0x1d, 0x04, 0x01, 0x02, 0x03, 0x04}, keyExchange.SignedParams())
}

func TestServerKeyExchangeTruncated(t *testing.T) {
	keyExchange := &MessageServerKeyExchange{
		EllipticCurveType:  elliptic.CurveTypeNamedCurve,
		NamedCurve:         elliptic.X25519,
		PublicKey:          []byte{0x01, 0x02},
		HashAlgorithm:      hash.SHA256,
		SignatureAlgorithm: signature.RSA,
		Signature:          []byte{0xAA},
	}
	data, err := keyExchange.Marshal()
	require.NoError(t, err)

	parsed := &MessageServerKeyExchange{}
	assert.ErrorIs(t, parsed.Unmarshal(data[:5]), errBufferTooSmall)
	assert.ErrorIs(t, parsed.Unmarshal(data[:len(data)-1]), errBufferTooSmall)
}

func TestHandshakeRefusesFragment(t *testing.T) {
	hand := &Handshake{
		Header:  HandshakeHeader{FragmentOffset: 10},
		Message: &MessageServerHelloDone{},
	}
	_, err := hand.Marshal()
	assert.ErrorIs(t, err, errUnableToMarshalFragmented)

	hand = &Handshake{}
	_, err = hand.Marshal()
	assert.ErrorIs(t, err, errHandshakeMessageUnset)
}

func TestCertificateRoundTrip(t *testing.T) {
	cert := &MessageCertificate{
		Certificate: [][]byte{
			{0x01, 0x02, 0x03},
			{0x04, 0x05},
		},
	}
	data, err := cert.Marshal()
	require.NoError(t, err)

	parsed := &MessageCertificate{}
	require.NoError(t, parsed.Unmarshal(data))
	assert.Equal(t, cert.Certificate, parsed.Certificate)

	// 总长度对不上
	assert.ErrorIs(t, parsed.Unmarshal(data[:len(data)-1]), errLengthMismatch)
}

func TestHelloVerifyRequestRoundTrip(t *testing.T) {
	verify := &MessageHelloVerifyRequest{
		Version: Version1_2,
		Cookie:  []byte{0xAB, 0xCD, 0xEF},
	}
	data, err := verify.Marshal()
	require.NoError(t, err)

	parsed := &MessageHelloVerifyRequest{}
	require.NoError(t, parsed.Unmarshal(data))
	assert.Equal(t, verify, parsed)
}
