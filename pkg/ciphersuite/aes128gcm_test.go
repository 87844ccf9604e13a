package ciphersuite

import (
	"crypto/rand"
	"testing"

	"github.com/pion/dtls/v2/pkg/crypto/prf"
	"github.com/pion/dtls/v2/pkg/protocol"
	"github.com/pion/dtls/v2/pkg/protocol/recordlayer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yly97/dtlsc/pkg/layer"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	preMasterSecret := []byte("1234567890qwertyuiopasdfghjklzxc")
	clientRandom := make([]byte, 32)
	rand.Read(clientRandom)
	serverRandom := make([]byte, 32)
	rand.Read(serverRandom)

	client := &TLSEcdheRsaWithAes128GcmSha256{}
	assert.False(t, client.IsInitialized())

	masterSecret, err := prf.MasterSecret(preMasterSecret, clientRandom, serverRandom, client.HashFunc())
	require.NoError(t, err)

	require.NoError(t, client.Init(masterSecret, clientRandom, serverRandom, true))
	assert.True(t, client.IsInitialized())

	server := &TLSEcdheRsaWithAes128GcmSha256{}
	require.NoError(t, server.Init(masterSecret, clientRandom, serverRandom, false))

	payload := []byte{0x01}
	record := &recordlayer.RecordLayer{
		Header: recordlayer.Header{
			Version:     protocol.Version1_2,
			Epoch:       2,
			ContentType: protocol.ContentTypeApplicationData,
		},
		Content: &protocol.ApplicationData{Data: payload},
	}

	raw, err := record.Marshal()
	require.NoError(t, err)

	encrypted, err := client.Encrypt(record, raw)
	require.NoError(t, err)
	assert.NotEqual(t, raw, encrypted)

	decrypted, err := server.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, payload, decrypted[layer.RecordHeaderSize:])
}

// 相同输入派生的密钥必须一致
func TestInitDeterministic(t *testing.T) {
	preMasterSecret := []byte("abcdefghijklmnopqrstuvwxyz012345")
	clientRandom := make([]byte, 32)
	serverRandom := make([]byte, 32)
	for i := range clientRandom {
		clientRandom[i] = byte(i)
		serverRandom[i] = byte(255 - i)
	}

	a := &TLSEcdheRsaWithAes128GcmSha256{}
	masterSecret, err := prf.MasterSecret(preMasterSecret, clientRandom, serverRandom, a.HashFunc())
	require.NoError(t, err)

	masterSecret2, err := prf.MasterSecret(preMasterSecret, clientRandom, serverRandom, a.HashFunc())
	require.NoError(t, err)
	assert.Equal(t, masterSecret, masterSecret2)

	require.NoError(t, a.Init(masterSecret, clientRandom, serverRandom, true))

	b := &TLSEcdheRsaWithAes128GcmSha256{}
	require.NoError(t, b.Init(masterSecret2, clientRandom, serverRandom, false))

	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	record := &recordlayer.RecordLayer{
		Header: recordlayer.Header{
			Version:     protocol.Version1_2,
			Epoch:       2,
			ContentType: protocol.ContentTypeApplicationData,
		},
		Content: &protocol.ApplicationData{Data: payload},
	}

	raw, err := record.Marshal()
	require.NoError(t, err)

	encrypted, err := a.Encrypt(record, raw)
	require.NoError(t, err)

	decrypted, err := b.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, payload, decrypted[layer.RecordHeaderSize:])
}

func TestUseBeforeInit(t *testing.T) {
	c := &TLSEcdheRsaWithAes128GcmSha256{}
	_, err := c.Decrypt([]byte{0x16, 0xfe, 0xfd})
	assert.ErrorIs(t, err, errCipherSuiteNotInit)
}
