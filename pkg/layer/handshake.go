package layer

import (
	"encoding/binary"
)

const HandshakeHeaderSize = 12

// HandshakeHeader 一条Handshake记录可以携带多条消息或者单条消息的一个分片，
// 首部的长度和偏移字段描述的是分片在完整消息中的位置
type HandshakeHeader struct {
	MessageType     MessageType
	MessageLength   uint32 // uint24
	MessageSequence uint16
	FragmentOffset  uint32 // uint24
	FragmentLength  uint32 // uint24
}

func (h *HandshakeHeader) Marshal() ([]byte, error) {
	out := make([]byte, HandshakeHeaderSize)
	out[0] = byte(h.MessageType)
	putUint24(out[1:], h.MessageLength)
	binary.BigEndian.PutUint16(out[4:], h.MessageSequence)
	putUint24(out[6:], h.FragmentOffset)
	putUint24(out[9:], h.FragmentLength)

	return out, nil
}

func (h *HandshakeHeader) Unmarshal(data []byte) error {
	if len(data) < HandshakeHeaderSize {
		return errBufferTooSmall
	}

	h.MessageType = MessageType(data[0])
	h.MessageLength = uint24(data[1:])
	h.MessageSequence = binary.BigEndian.Uint16(data[4:])
	h.FragmentOffset = uint24(data[6:])
	h.FragmentLength = uint24(data[9:])

	return nil
}

// IsFullMessage 判断该分片是否携带完整的消息
func (h *HandshakeHeader) IsFullMessage() bool {
	return h.FragmentOffset == 0 && h.FragmentLength == h.MessageLength
}

// Handshake
type Handshake struct {
	Header  HandshakeHeader
	Message Message
}

func (h *Handshake) Marshal() ([]byte, error) {
	if h.Message == nil {
		return nil, errHandshakeMessageUnset
	} else if h.Header.FragmentOffset != 0 {
		return nil, errUnableToMarshalFragmented
	}

	message, err := h.Message.Marshal()
	if err != nil {
		return nil, err
	}

	// messageSequence在状态机的send中设置
	h.Header.MessageType = h.Message.MessageType()
	h.Header.MessageLength = uint32(len(message))
	h.Header.FragmentLength = h.Header.MessageLength
	header, err := h.Header.Marshal()
	if err != nil {
		return nil, err
	}
	return append(header, message...), nil
}

// Unmarshal 只接受完整的消息，分片的合并由状态机处理
func (h *Handshake) Unmarshal(data []byte) error {
	if err := h.Header.Unmarshal(data); err != nil {
		return err
	}

	if uint32(len(data)-HandshakeHeaderSize) != h.Header.FragmentLength {
		return errLengthMismatch
	} else if !h.Header.IsFullMessage() {
		return errLengthMismatch
	}

	message, err := NewMessage(h.Header.MessageType)
	if err != nil {
		return err
	}
	h.Message = message

	return h.Message.Unmarshal(data[HandshakeHeaderSize:])
}

func (h *Handshake) DTLSType() DTLSType {
	return DTLSTypeHandshake
}

// NewMessage 根据消息类型创建空的握手消息
func NewMessage(typ MessageType) (Message, error) {
	switch typ {
	case TypeClientHello:
		return &MessageClientHello{}, nil
	case TypeServerHello:
		return &MessageServerHello{}, nil
	case TypeHelloVerifyRequest:
		return &MessageHelloVerifyRequest{}, nil
	case TypeCertificate:
		return &MessageCertificate{}, nil
	case TypeServerKeyExchange:
		return &MessageServerKeyExchange{}, nil
	case TypeServerHelloDone:
		return &MessageServerHelloDone{}, nil
	case TypeClientKeyExchange:
		return &MessageClientKeyExchange{}, nil
	case TypeFinished:
		return &MessageFinished{}, nil
	default:
		return nil, errInvalidHandshakeType
	}
}
