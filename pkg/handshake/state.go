package handshake

import (
	"crypto/rsa"
	"crypto/x509"

	"github.com/yly97/dtlsc/pkg/ciphersuite"
	"github.com/yly97/dtlsc/pkg/layer"
)

// ClientState 握手状态机的状态，线性推进，
// 只有cookie挑战会让ExpectingServerHello原地重入
type ClientState uint8

const (
	Initializing ClientState = iota
	ExpectingServerHello
	ExpectingCertificate
	ExpectingServerKeyExchange
	ExpectingServerHelloDone
	ExpectingChangeCipherSpec
)

func (s ClientState) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case ExpectingServerHello:
		return "ExpectingServerHello"
	case ExpectingCertificate:
		return "ExpectingCertificate"
	case ExpectingServerKeyExchange:
		return "ExpectingServerKeyExchange"
	case ExpectingServerHelloDone:
		return "ExpectingServerHelloDone"
	case ExpectingChangeCipherSpec:
		return "ExpectingChangeCipherSpec"
	default:
		return "Uknown"
	}
}

// sessionState 每次连接尝试的会话状态，reset时整体替换不做合并
type sessionState struct {
	state        ClientState
	clientRandom [layer.RandomLength]byte
	serverRandom [layer.RandomLength]byte
	cookie       []byte

	cipherSuiteID layer.CipherSuiteID
	keypair       *ecdheKeypair

	peerCertificate *x509.Certificate
	peerPublicKey   *rsa.PublicKey

	cipherSuite  *ciphersuite.TLSEcdheRsaWithAes128GcmSha256
	masterSecret []byte

	// Certificate分片重组，只在首个分片到完整之间有效
	fragmentBuffer   []byte
	fragmentReceived uint32
}

func (s *sessionState) clearReassembly() {
	s.fragmentBuffer = nil
	s.fragmentReceived = 0
}
