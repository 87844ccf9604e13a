// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package ciphersuite 只提供客户端需要的一个密码套件，
// 密钥派生和记录加解密都复用pion的实现
package ciphersuite

import (
	"crypto/sha256"
	"errors"
	"hash"
	"sync/atomic"

	"github.com/pion/dtls/v2/pkg/crypto/ciphersuite"
	"github.com/pion/dtls/v2/pkg/crypto/prf"
	"github.com/pion/dtls/v2/pkg/protocol/recordlayer"
	"github.com/yly97/dtlsc/pkg/layer"
)

var errCipherSuiteNotInit = errors.New("cipher suite has not been initialized")

// TLSEcdheRsaWithAes128GcmSha256 实现AES-128-GCM记录保护
type TLSEcdheRsaWithAes128GcmSha256 struct {
	gcm atomic.Value // *ciphersuite.GCM
}

func (c *TLSEcdheRsaWithAes128GcmSha256) ID() layer.CipherSuiteID {
	return layer.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256
}

func (c *TLSEcdheRsaWithAes128GcmSha256) String() string {
	return c.ID().String()
}

func (c *TLSEcdheRsaWithAes128GcmSha256) HashFunc() func() hash.Hash {
	return sha256.New
}

func (c *TLSEcdheRsaWithAes128GcmSha256) IsInitialized() bool {
	return c.gcm.Load() != nil
}

func (c *TLSEcdheRsaWithAes128GcmSha256) Init(masterSecret, clientRandom, serverRandom []byte, isClient bool) error {
	const (
		prfMacLen = 0
		prfKeyLen = 16
		prfIvLen  = 4
	)

	keys, err := prf.GenerateEncryptionKeys(masterSecret, clientRandom, serverRandom, prfMacLen, prfKeyLen, prfIvLen, c.HashFunc())
	if err != nil {
		return err
	}

	var gcm *ciphersuite.GCM
	if isClient {
		gcm, err = ciphersuite.NewGCM(keys.ClientWriteKey, keys.ClientWriteIV, keys.ServerWriteKey, keys.ServerWriteIV)
	} else {
		gcm, err = ciphersuite.NewGCM(keys.ServerWriteKey, keys.ServerWriteIV, keys.ClientWriteKey, keys.ClientWriteIV)
	}
	if err != nil {
		return err
	}
	c.gcm.Store(gcm)

	return nil
}

func (c *TLSEcdheRsaWithAes128GcmSha256) Encrypt(pkt *recordlayer.RecordLayer, raw []byte) ([]byte, error) {
	gcm, ok := c.gcm.Load().(*ciphersuite.GCM)
	if !ok {
		return nil, errCipherSuiteNotInit
	}
	return gcm.Encrypt(pkt, raw)
}

func (c *TLSEcdheRsaWithAes128GcmSha256) Decrypt(in []byte) ([]byte, error) {
	gcm, ok := c.gcm.Load().(*ciphersuite.GCM)
	if !ok {
		return nil, errCipherSuiteNotInit
	}
	return gcm.Decrypt(in)
}
