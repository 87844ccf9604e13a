package handshake

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"

	"github.com/pion/dtls/v2/pkg/crypto/elliptic"
	"github.com/pion/dtls/v2/pkg/crypto/hash"
	"github.com/pion/dtls/v2/pkg/crypto/prf"
	"github.com/pion/dtls/v2/pkg/crypto/signature"
	"github.com/pion/dtls/v2/pkg/protocol"
	"github.com/pion/dtls/v2/pkg/protocol/extension"
	log "github.com/sirupsen/logrus"
	"github.com/yly97/dtlsc/pkg/ciphersuite"
	"github.com/yly97/dtlsc/pkg/layer"
)

// sendClientHelloLocked 构造并发送ClientHello，
// 首次发送后进入ExpectingServerHello，cookie挑战触发的重发不改变状态
func (c *Conn) sendClientHelloLocked(retransmit bool) error {
	clientHello := &layer.MessageClientHello{
		Version:      layer.Version1_2,
		Random:       c.state.clientRandom,
		Cookie:       c.state.cookie,
		SessionID:    []byte{},
		CipherSuites: []layer.CipherSuiteID{layer.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256},
		CompressionMethods: []*protocol.CompressionMethod{
			{}, // null
		},
		Extensions: []extension.Extension{
			&extension.SupportedEllipticCurves{
				EllipticCurves: []elliptic.Curve{elliptic.X25519},
			},
		},
	}

	if err := c.writeRecords(newHandshakeRecord(clientHello)); err != nil {
		return err
	}
	if !retransmit {
		c.state.state = ExpectingServerHello
	}
	log.Debugf("sent ClientHello, cookie length %d", len(c.state.cookie))
	return nil
}

// onHelloVerifyRequest 收到重复的cookie直接丢弃，
// 新cookie触发一次ClientHello重发，状态不变以便server反复挑战
func (c *Conn) onHelloVerifyRequest(m *layer.MessageHelloVerifyRequest) error {
	if c.state.state != ExpectingServerHello {
		return errWrongState
	}
	if bytes.Equal(c.state.cookie, m.Cookie) {
		return errDuplicateCookie
	}

	c.state.cookie = append([]byte{}, m.Cookie...)
	return c.sendClientHelloLocked(true)
}

func (c *Conn) onServerHello(m *layer.MessageServerHello) error {
	if c.state.state != ExpectingServerHello {
		return errWrongState
	}
	if m.CipherSuite != layer.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256 {
		return errUnsupportedParameter
	}

	copy(c.state.serverRandom[:], m.Random[:])

	keypair, err := newECDHEKeypair(c.config.keyScalar(c.state.clientRandom[:]))
	if err != nil {
		return err
	}
	c.state.keypair = keypair
	c.state.cipherSuiteID = m.CipherSuite

	c.state.clearReassembly()
	c.state.state = ExpectingCertificate
	log.Debugf("negotiated %s", m.CipherSuite)
	return nil
}

func (c *Conn) onCertificate(m *layer.MessageCertificate) error {
	if c.state.state != ExpectingCertificate {
		return errWrongState
	}
	if len(m.Certificate) == 0 {
		return errNoPublicKey
	}

	cert, err := x509.ParseCertificate(m.Certificate[0])
	if err != nil {
		return err
	}
	publicKey, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return errNoPublicKey
	}

	c.state.peerCertificate = cert
	c.state.peerPublicKey = publicKey
	c.state.state = ExpectingServerKeyExchange
	return nil
}

// onServerKeyExchange 依次校验曲线类型、曲线、哈希和签名算法，
// 再验证ECDH参数上的签名，全部通过后派生主密钥并初始化记录保护
func (c *Conn) onServerKeyExchange(m *layer.MessageServerKeyExchange) error {
	if c.state.state != ExpectingServerKeyExchange {
		return errWrongState
	}
	if m.EllipticCurveType != elliptic.CurveTypeNamedCurve {
		return errUnsupportedParameter
	}
	if m.NamedCurve != elliptic.X25519 {
		return errUnsupportedParameter
	}
	if m.HashAlgorithm != hash.SHA256 {
		return errUnsupportedParameter
	}
	if m.SignatureAlgorithm != signature.RSA {
		return errUnsupportedParameter
	}

	digest := m.HashAlgorithm.Digest(m.SignedParams())
	if err := rsa.VerifyPKCS1v15(c.state.peerPublicKey, m.HashAlgorithm.CryptoHash(), digest, m.Signature); err != nil {
		return errSignatureMismatch
	}

	preMasterSecret, err := c.state.keypair.sharedSecret(m.PublicKey)
	if err != nil {
		return err
	}

	suite := &ciphersuite.TLSEcdheRsaWithAes128GcmSha256{}
	if c.state.cipherSuiteID != suite.ID() {
		return errUnsupportedParameter
	}

	masterSecret, err := prf.MasterSecret(preMasterSecret, c.state.clientRandom[:], c.state.serverRandom[:], suite.HashFunc())
	if err != nil {
		return err
	}
	if err := suite.Init(masterSecret, c.state.clientRandom[:], c.state.serverRandom[:], true); err != nil {
		return err
	}

	c.state.cipherSuite = suite
	c.state.masterSecret = masterSecret
	c.state.state = ExpectingServerHelloDone
	log.Debug("master secret derived")
	return nil
}

func (c *Conn) onServerHelloDone(m *layer.MessageServerHelloDone) error {
	if c.state.state != ExpectingServerHelloDone {
		return errWrongState
	}

	c.state.state = ExpectingChangeCipherSpec
	return c.sendFinalFlightLocked()
}

// sendFinalFlightLocked ClientKeyExchange和ChangeCipherSpec在当前epoch明文发送，
// 之后递增epoch，Finished在新epoch加密发送，三条记录合并为一次写出
func (c *Conn) sendFinalFlightLocked() error {
	var out bytes.Buffer

	keyExchange := newHandshakeRecord(&layer.MessageClientKeyExchange{
		PublicKey: c.state.keypair.publicKey,
	})
	data, err := c.marshalRecord(keyExchange)
	if err != nil {
		return err
	}
	out.Write(data)

	if data, err = c.marshalRecord(newChangeCipherSpecRecord()); err != nil {
		return err
	}
	out.Write(data)

	c.incrementEpoch()

	// Finished只带一个字节的占位负载，不是标准的verify data
	finished := newHandshakeRecord(&layer.MessageFinished{
		VerifyData: []byte{0x01},
	})
	if data, err = c.marshalRecord(finished); err != nil {
		return err
	}
	out.Write(data)

	log.Debugf("sending final flight, epoch %d", c.epoch)
	return c.transport.Write(out.Bytes())
}
