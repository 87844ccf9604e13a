package layer

type MessageServerHelloDone struct{}

func (m *MessageServerHelloDone) Marshal() ([]byte, error) {
	return []byte{}, nil
}

func (m *MessageServerHelloDone) Unmarshal(data []byte) error {
	return nil
}

func (m *MessageServerHelloDone) MessageType() MessageType {
	return TypeServerHelloDone
}
