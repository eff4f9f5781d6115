// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Request headers carrying identity
const (
	HeaderPrincipal    = "X-Principal"
	HeaderPrincipalKey = "X-Principal-Key"
	HeaderSignature    = "X-Signature"
)

// Authenticator resolves the principal an HTTP request acts as.
// body is the raw request body, already read by the caller.
type Authenticator interface {
	Authenticate(r *http.Request, body []byte) (string, error)
}

// KeyAuthenticator accepts X-Principal with a matching X-Principal-Key
// issued by GeneratePrincipalKey.
type KeyAuthenticator struct {
	Salt string
}

func (a KeyAuthenticator) Authenticate(r *http.Request, body []byte) (string, error) {
	principal := Canonical(r.Header.Get(HeaderPrincipal))
	if principal == "" {
		return "", ErrMissingPrincipal
	}
	if err := ValidatePrincipalKey(principal, r.Header.Get(HeaderPrincipalKey), a.Salt); err != nil {
		return "", err
	}
	return principal, nil
}

// SignatureAuthenticator accepts an X-Principal address whose secp256k1
// key signed the request digest, sent hex encoded in X-Signature.
type SignatureAuthenticator struct{}

func (SignatureAuthenticator) Authenticate(r *http.Request, body []byte) (string, error) {
	principal := r.Header.Get(HeaderPrincipal)
	if principal == "" {
		return "", ErrMissingPrincipal
	}
	if !isAddress(principal) {
		return "", fmt.Errorf("%w: principal %q is not an address", ErrInvalidSignature, principal)
	}

	sig, err := hexutil.Decode(r.Header.Get(HeaderSignature))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	signer, err := RecoverSigner(RequestDigest(r.Method, r.URL.Path, body), sig)
	if err != nil {
		return "", err
	}
	if signer != common.HexToAddress(principal) {
		return "", fmt.Errorf("%w: signed by %s", ErrInvalidSignature, signer.Hex())
	}
	return signer.Hex(), nil
}

// RequestDigest is the keccak256 hash a client signs: method, path and body.
func RequestDigest(method, path string, body []byte) []byte {
	return crypto.Keccak256([]byte(method), []byte(" "), []byte(path), []byte("\n"), body)
}

// SignRequest produces the X-Signature value for a request.
func SignRequest(key *ecdsa.PrivateKey, method, path string, body []byte) (string, error) {
	sig, err := crypto.Sign(RequestDigest(method, path, body), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	return hexutil.Encode(sig), nil
}

// RecoverSigner returns the address whose key produced sig over digest.
func RecoverSigner(digest, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSignature, crypto.SignatureLength, len(sig))
	}
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Canonical returns the checksum form of an address principal so that every
// spelling of one address keys the same accounts and receipts. Other
// principals are returned unchanged.
func Canonical(principal string) string {
	if !isAddress(principal) {
		return principal
	}
	return common.HexToAddress(principal).Hex()
}

func isAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}
