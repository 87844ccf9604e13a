package layer

// DTLSVersion 协议版本，ClientHello固定使用1.2
type DTLSVersion uint16

const (
	Version1_0 DTLSVersion = 0xfeff
	Version1_2 DTLSVersion = 0xfefd
)

func (v DTLSVersion) String() string {
	switch v {
	case Version1_0:
		return "DTLS 1.0"
	case Version1_2:
		return "DTLS 1.2"
	default:
		return "Uknown Version"
	}
}
