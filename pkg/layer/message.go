package layer

type MessageType uint8

const (
	TypeClientHello        MessageType = 1
	TypeServerHello        MessageType = 2
	TypeHelloVerifyRequest MessageType = 3
	TypeCertificate        MessageType = 11
	TypeServerKeyExchange  MessageType = 12
	TypeServerHelloDone    MessageType = 14
	TypeClientKeyExchange  MessageType = 16
	TypeFinished           MessageType = 20
)

func (t MessageType) String() string {
	switch t {
	case TypeClientHello:
		return "ClientHello"
	case TypeServerHello:
		return "ServerHello"
	case TypeHelloVerifyRequest:
		return "HelloVerifyRequest"
	case TypeCertificate:
		return "Certificate"
	case TypeServerKeyExchange:
		return "ServerKeyExchange"
	case TypeServerHelloDone:
		return "ServerHelloDone"
	case TypeClientKeyExchange:
		return "ClientKeyExchange"
	case TypeFinished:
		return "Finished"
	default:
		return "Uknown"
	}
}

type Message interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
	MessageType() MessageType
}
