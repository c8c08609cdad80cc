package profile

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// VerifiableURI is the decoded form of an ERC725Y VerifiableURI value: a
// content locator paired with a verification method and hash.
type VerifiableURI struct {
	Verification Verification `json:"verification"`
	URL          string       `json:"url"`
}

// Verification identifies how the content behind the URL can be checked.
type Verification struct {
	Method string `json:"method"`
	Data   []byte `json:"data"`
}

// VerificationMethodKeccak256UTF8 is the standard method for JSON documents:
// the verification data is the keccak256 hash of the utf8 content bytes.
const VerificationMethodKeccak256UTF8 = "keccak256(utf8)"

// Keccak256 returns the keccak256 digest of data.
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// methodID returns the 4-byte identifier of a verification method or
// function signature (first four bytes of its keccak256 hash).
func methodID(signature string) []byte {
	return Keccak256([]byte(signature))[:4]
}

// EncodeVerifiableURI produces the on-chain byte layout:
//
//	0x0000 | method id (4 bytes) | data length (2 bytes) | data | utf8 url
func EncodeVerifiableURI(uri VerifiableURI) ([]byte, error) {
	if uri.URL == "" {
		return nil, fmt.Errorf("verifiable uri: empty url")
	}
	if len(uri.Verification.Data) > 0xffff {
		return nil, fmt.Errorf("verifiable uri: verification data too long (%d bytes)", len(uri.Verification.Data))
	}

	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00})
	buf.Write(methodID(uri.Verification.Method))
	length := make([]byte, 2)
	binary.BigEndian.PutUint16(length, uint16(len(uri.Verification.Data)))
	buf.Write(length)
	buf.Write(uri.Verification.Data)
	buf.WriteString(uri.URL)
	return buf.Bytes(), nil
}

// DecodeVerifiableURI parses the on-chain byte layout. The method name is
// recovered only for the standard keccak256(utf8) method; other method ids
// are kept as their hex form.
func DecodeVerifiableURI(raw []byte) (*VerifiableURI, error) {
	if len(raw) < 8 {
		return nil, fmt.Errorf("verifiable uri: value too short (%d bytes)", len(raw))
	}
	if raw[0] != 0x00 || raw[1] != 0x00 {
		return nil, fmt.Errorf("verifiable uri: unknown header %x", raw[:2])
	}

	method := raw[2:6]
	dataLen := int(binary.BigEndian.Uint16(raw[6:8]))
	if len(raw) < 8+dataLen {
		return nil, fmt.Errorf("verifiable uri: truncated verification data")
	}

	uri := &VerifiableURI{
		Verification: Verification{
			Data: append([]byte(nil), raw[8:8+dataLen]...),
		},
		URL: string(raw[8+dataLen:]),
	}

	if bytes.Equal(method, methodID(VerificationMethodKeccak256UTF8)) {
		uri.Verification.Method = VerificationMethodKeccak256UTF8
	} else {
		uri.Verification.Method = fmt.Sprintf("0x%x", method)
	}

	if uri.URL == "" {
		return nil, fmt.Errorf("verifiable uri: empty url")
	}
	return uri, nil
}
