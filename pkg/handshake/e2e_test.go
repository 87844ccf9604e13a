package handshake

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/pion/dtls/v2/pkg/crypto/elliptic"
	"github.com/pion/dtls/v2/pkg/crypto/hash"
	"github.com/pion/dtls/v2/pkg/crypto/prf"
	"github.com/pion/dtls/v2/pkg/crypto/signature"
	"github.com/pion/dtls/v2/pkg/protocol/recordlayer"
	"github.com/pion/transport/v2/dpipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yly97/dtlsc/pkg/ciphersuite"
	"github.com/yly97/dtlsc/pkg/layer"
	"github.com/yly97/dtlsc/pkg/transport"
)

// scriptedServer 按固定剧本应答的server端，只够跑完一次握手
type scriptedServer struct {
	conn         net.Conn
	key          *rsa.PrivateKey
	certificate  []byte
	keypair      *ecdheKeypair
	serverRandom [layer.RandomLength]byte
	clientRandom []byte
}

func (s *scriptedServer) readDatagram() ([]byte, error) {
	buf := make([]byte, 8192)
	s.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	n, err := s.conn.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (s *scriptedServer) readClientHello(wantCookie []byte) error {
	data, err := s.readDatagram()
	if err != nil {
		return err
	}
	record := &layer.Record{}
	if err := record.Unmarshal(data); err != nil {
		return err
	}
	hello, ok := record.Content.(*layer.Handshake).Message.(*layer.MessageClientHello)
	if !ok {
		return fmt.Errorf("expected ClientHello, got %T", record.Content)
	}
	if !bytes.Equal(hello.Cookie, wantCookie) {
		return fmt.Errorf("cookie: got %v, want %v", hello.Cookie, wantCookie)
	}
	s.clientRandom = hello.Random[:]
	return nil
}

func (s *scriptedServer) run() error {
	// flight0 ClientHello不带cookie
	if err := s.readClientHello([]byte{}); err != nil {
		return err
	}

	// cookie挑战
	verify := marshalHandshakeMessages(1, 0, 0, &layer.MessageHelloVerifyRequest{
		Version: layer.Version1_2,
		Cookie:  []byte{0xAB},
	})
	if err := s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	if _, err := s.conn.Write(verify); err != nil {
		return err
	}

	// flight1 带cookie的ClientHello
	if err := s.readClientHello([]byte{0xAB}); err != nil {
		return err
	}

	// flight2 ServerHello和Certificate共享一条记录，
	// ServerKeyExchange和ServerHelloDone各占一条，三条记录一个datagram
	hello := &layer.MessageServerHello{
		Version:     layer.Version1_2,
		Random:      s.serverRandom,
		SessionID:   []byte{},
		CipherSuite: layer.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		Extensions:  []byte{},
	}
	certificate := &layer.MessageCertificate{Certificate: [][]byte{s.certificate}}

	keyExchange := &layer.MessageServerKeyExchange{
		EllipticCurveType:  elliptic.CurveTypeNamedCurve,
		NamedCurve:         elliptic.X25519,
		PublicKey:          s.keypair.publicKey,
		HashAlgorithm:      hash.SHA256,
		SignatureAlgorithm: signature.RSA,
	}
	digest := hash.SHA256.Digest(keyExchange.SignedParams())
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, hash.SHA256.CryptoHash(), digest)
	if err != nil {
		return err
	}
	keyExchange.Signature = sig

	var flight bytes.Buffer
	flight.Write(marshalHandshakeMessages(1, 1, 1, hello, certificate))
	flight.Write(marshalHandshakeMessages(1, 2, 3, keyExchange))
	flight.Write(marshalHandshakeMessages(1, 3, 4, &layer.MessageServerHelloDone{}))
	if _, err := s.conn.Write(flight.Bytes()); err != nil {
		return err
	}

	// 最后一组记录必须在同一个datagram里
	data, err := s.readDatagram()
	if err != nil {
		return err
	}
	rawRecords, err := recordlayer.UnpackDatagram(data)
	if err != nil {
		return err
	}
	if len(rawRecords) != 3 {
		return fmt.Errorf("final flight: got %d records, want 3", len(rawRecords))
	}

	// ClientKeyExchange 明文，epoch 1
	record := &layer.Record{}
	if err := record.Unmarshal(rawRecords[0]); err != nil {
		return err
	}
	clientKeyExchange, ok := record.Content.(*layer.Handshake).Message.(*layer.MessageClientKeyExchange)
	if !ok {
		return fmt.Errorf("expected ClientKeyExchange, got %T", record.Content)
	}
	if record.Header.Epoch != 1 {
		return fmt.Errorf("ClientKeyExchange epoch: got %d, want 1", record.Header.Epoch)
	}

	// ChangeCipherSpec 单字节0x01
	record = &layer.Record{}
	if err := record.Unmarshal(rawRecords[1]); err != nil {
		return err
	}
	if _, ok := record.Content.(*layer.ChangeCipherSpec); !ok {
		return fmt.Errorf("expected ChangeCipherSpec, got %T", record.Content)
	}

	// Finished 加密，epoch 2且序号归零
	header := &layer.RecordHeader{}
	if err := header.Unmarshal(rawRecords[2]); err != nil {
		return err
	}
	if header.Epoch != 2 {
		return fmt.Errorf("Finished epoch: got %d, want 2", header.Epoch)
	}
	if header.SequenceNumber != 0 {
		return fmt.Errorf("Finished sequence: got %d, want 0", header.SequenceNumber)
	}

	preMasterSecret, err := prf.PreMasterSecret(clientKeyExchange.PublicKey, s.keypair.privateKey, elliptic.X25519)
	if err != nil {
		return err
	}
	suite := &ciphersuite.TLSEcdheRsaWithAes128GcmSha256{}
	masterSecret, err := prf.MasterSecret(preMasterSecret, s.clientRandom, s.serverRandom[:], suite.HashFunc())
	if err != nil {
		return err
	}
	if err := suite.Init(masterSecret, s.clientRandom, s.serverRandom[:], false); err != nil {
		return err
	}

	plain, err := suite.Decrypt(rawRecords[2])
	if err != nil {
		return err
	}
	record = &layer.Record{}
	if err := record.Unmarshal(plain); err != nil {
		return err
	}
	hand := record.Content.(*layer.Handshake)
	finished, ok := hand.Message.(*layer.MessageFinished)
	if !ok {
		return fmt.Errorf("expected Finished, got %T", hand.Message)
	}
	if !bytes.Equal(finished.VerifyData, []byte{0x01}) {
		return fmt.Errorf("Finished payload: got %v, want [1]", finished.VerifyData)
	}
	// 消息序号从连接建立起单调递增：CH(0) CH(1) CKX(2) Finished(3)
	if hand.Header.MessageSequence != 3 {
		return fmt.Errorf("Finished message sequence: got %d, want 3", hand.Header.MessageSequence)
	}

	return nil
}

func TestHandshakeEndToEnd(t *testing.T) {
	clientEnd, serverEnd := dpipe.Pipe()

	key, der := generateServerCert(t)
	scalar := make([]byte, 32)
	rand.Read(scalar)
	keypair, err := newECDHEKeypair(scalar)
	require.NoError(t, err)

	server := &scriptedServer{
		conn:        serverEnd,
		key:         key,
		certificate: der,
		keypair:     keypair,
	}
	rand.Read(server.serverRandom[:])

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.run()
	}()

	tconn := transport.NewConn(clientEnd)
	conn := NewConn(tconn, &Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go tconn.ReadLoop(ctx, conn.HandleDatagram)

	require.NoError(t, conn.Connect(ctx))
	require.NoError(t, <-serverErr)

	assert.Equal(t, ExpectingChangeCipherSpec, conn.State())

	conn.mu.Lock()
	defer conn.mu.Unlock()
	assert.Equal(t, uint16(2), conn.epoch)
	assert.Equal(t, uint64(1), conn.sequenceNumber)
	assert.NotEmpty(t, conn.state.masterSecret)
}
