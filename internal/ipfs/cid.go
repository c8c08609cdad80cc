package ipfs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// parsePinResponse extracts the content hash from a pinning endpoint reply.
// Accepts Pinata-style {"IpfsHash": ...}, generic {"cid": ...}, and a bare
// string or gateway URL ending in the hash.
func parsePinResponse(body []byte) (string, error) {
	var structured pinResponse
	if err := json.Unmarshal(body, &structured); err == nil {
		if structured.IpfsHash != "" {
			return structured.IpfsHash, nil
		}
		if structured.CID != "" {
			return structured.CID, nil
		}
	}

	var plain string
	if err := json.Unmarshal(body, &plain); err == nil && plain != "" {
		if idx := strings.LastIndex(plain, "/ipfs/"); idx >= 0 {
			return plain[idx+len("/ipfs/"):], nil
		}
		return strings.TrimPrefix(plain, Scheme), nil
	}

	return "", fmt.Errorf("ipfs: unrecognized pin response %q", string(body))
}

// ContentID computes the CIDv1 (raw codec, sha2-256) of data. Used to check
// a pinning endpoint's answer against the bytes that were uploaded.
func ContentID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("hash content: %w", err)
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// verifyPinned checks the pinning endpoint's CID against the uploaded bytes.
// Only raw-codec sha2-256 CIDs carry a digest this code can recompute; other
// encodings (CIDv0 dag-pb chunked files among them) pass unchecked.
func verifyPinned(id cid.Cid, data []byte) error {
	prefix := id.Prefix()
	if prefix.Codec != cid.Raw || prefix.MhType != multihash.SHA2_256 {
		return nil
	}
	want, err := ContentID(data)
	if err != nil {
		return err
	}
	if !id.Equals(want) {
		return fmt.Errorf("ipfs: pinned cid %s does not match uploaded content", id)
	}
	return nil
}
