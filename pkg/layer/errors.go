package layer

import "errors"

var (
	errSequenceNumberOverflow    = errors.New("sequence number overflow")
	errBufferTooSmall            = errors.New("buffer too small")
	errUnsupportedVersion        = errors.New("unsuported protocol version")
	errInvalidDTLSType           = errors.New("invalid DTLS type")
	errInvalidHandshakeType      = errors.New("invalid handshake type")
	errCookieTooLong             = errors.New("cookie too long")
	errLengthMismatch            = errors.New("length mismatch")
	errPublicKeyTooLong          = errors.New("public key too long")
	errInvalidCompressionMethod  = errors.New("invalid compression method")
	errHandshakeMessageUnset     = errors.New("handshake message unset")
	errUnableToMarshalFragmented = errors.New("unable to marshal fragmented")
	errInvalidChangeCipherSpec   = errors.New("invalid change cipher spec")
)
