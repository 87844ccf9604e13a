package handshake

// Config 握手相关的可选配置
type Config struct {
	// KeyScalar 返回ECDH使用的私钥标量。默认直接取client random，
	// 与对接的旧实现保持字节级一致，但没有前向保密性，
	// 需要前向保密的场合应该换成独立生成的随机标量
	KeyScalar func(clientRandom []byte) []byte
}

func (c *Config) keyScalar(clientRandom []byte) []byte {
	if c != nil && c.KeyScalar != nil {
		return c.KeyScalar(clientRandom)
	}
	return append([]byte{}, clientRandom...)
}
