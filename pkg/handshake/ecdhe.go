package handshake

import (
	"github.com/pion/dtls/v2/pkg/crypto/elliptic"
	"github.com/pion/dtls/v2/pkg/crypto/prf"
	"golang.org/x/crypto/curve25519"
)

// ecdheKeypair x25519密钥协商的本端密钥对
type ecdheKeypair struct {
	curve      elliptic.Curve
	privateKey []byte
	publicKey  []byte
}

func newECDHEKeypair(scalar []byte) (*ecdheKeypair, error) {
	publicKey, err := curve25519.X25519(scalar, curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	return &ecdheKeypair{
		curve:      elliptic.X25519,
		privateKey: scalar,
		publicKey:  publicKey,
	}, nil
}

func (k *ecdheKeypair) sharedSecret(peerPublicKey []byte) ([]byte, error) {
	return prf.PreMasterSecret(peerPublicKey, k.privateKey, k.curve)
}
