package layer

type MessageClientKeyExchange struct {
	PublicKey []byte
}

func (m *MessageClientKeyExchange) Marshal() ([]byte, error) {
	if len(m.PublicKey) > 255 {
		return nil, errPublicKeyTooLong
	}
	return append([]byte{byte(len(m.PublicKey))}, m.PublicKey...), nil
}

func (m *MessageClientKeyExchange) Unmarshal(data []byte) error {
	if len(data) < 1 {
		return errBufferTooSmall
	}
	publicKeyLength := int(data[0])
	if len(data) != publicKeyLength+1 {
		return errLengthMismatch
	}
	m.PublicKey = append([]byte{}, data[1:]...)

	return nil
}

func (m *MessageClientKeyExchange) MessageType() MessageType {
	return TypeClientKeyExchange
}
