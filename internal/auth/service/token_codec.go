package service

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
	cryptoService "github.com/allisson/keyguard/internal/crypto/service"
)

// scopePayload is the canonical plaintext of a scope token.
type scopePayload struct {
	Scopes  []string `json:"scopes"`
	Expires *int64   `json:"expires,omitempty"`
}

// tokenCodec implements TokenCodec on top of the partition SecretStore.
type tokenCodec struct {
	store cryptoService.Encrypter
}

// NewTokenCodec creates a TokenCodec sealing scope tokens with store.
func NewTokenCodec(store cryptoService.Encrypter) TokenCodec {
	return &tokenCodec{store: store}
}

// EncodeAPIKeyToken turns sk_<partition>_<suffix> into 1<partition char><suffix>.
func (c *tokenCodec) EncodeAPIKeyToken(secretKey string) (string, error) {
	rest, ok := strings.CutPrefix(secretKey, authDomain.SecretKeyPrefix)
	if !ok {
		return "", authDomain.ErrInvalidToken
	}
	partitionName, suffix, ok := strings.Cut(rest, "_")
	if !ok || !authDomain.IsBase62(suffix) {
		return "", authDomain.ErrInvalidToken
	}
	partition, err := cryptoDomain.ParsePartition(partitionName)
	if err != nil {
		return "", authDomain.ErrInvalidToken
	}
	partitionChar, err := authDomain.PartitionChar(partition)
	if err != nil {
		return "", authDomain.ErrInvalidToken
	}

	return string([]byte{byte(authDomain.TokenTypeAPIKey), partitionChar}) + suffix, nil
}

// EncodeScopeToken seals scopes and an optional expiry. With a resource the
// token is bound to it: the resource is replaced by "$" in every scope and
// authenticated as associated data.
func (c *tokenCodec) EncodeScopeToken(
	partition cryptoDomain.Partition,
	scopes authDomain.ScopeList,
	expires *time.Time,
	resource string,
) (string, error) {
	partitionChar, err := authDomain.PartitionChar(partition)
	if err != nil {
		return "", err
	}

	tokenType := authDomain.TokenTypeScope
	var aad []byte
	if resource != "" {
		tokenType = authDomain.TokenTypeResourceScope
		scopes = scopes.BindResource(resource)
		aad = []byte(resource)
	}

	payload := scopePayload{Scopes: scopes}
	if payload.Scopes == nil {
		payload.Scopes = []string{}
	}
	if expires != nil {
		millis := expires.UnixMilli()
		payload.Expires = &millis
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	blob, err := c.store.Encrypt(plaintext, partition, aad)
	if err != nil {
		return "", err
	}

	encoded := Base62Encode(blob)
	if len(encoded) > authDomain.MaxScopeTokenPayloadLength {
		return "", authDomain.ErrScopeTokenTooLarge
	}
	return string([]byte{byte(tokenType), partitionChar}) + encoded, nil
}

// Decode parses a serialized token. currentResource is only used by resource
// scope tokens. Every failure is ErrInvalidToken and never includes the token.
func (c *tokenCodec) Decode(token string, currentResource string) (authDomain.AccessToken, error) {
	if len(token) < 3 {
		return nil, authDomain.ErrInvalidToken
	}
	partition, err := authDomain.PartitionFromChar(token[1])
	if err != nil {
		return nil, authDomain.ErrInvalidToken
	}
	payload := token[2:]

	switch authDomain.TokenType(token[0]) {
	case authDomain.TokenTypeAPIKey:
		if !authDomain.IsBase62(payload) {
			return nil, authDomain.ErrInvalidToken
		}
		return authDomain.APIKeyToken{
			SecretKey: authDomain.SecretKeyPrefixFor(partition) + payload,
		}, nil

	case authDomain.TokenTypeScope:
		scope, err := c.openScopeToken(partition, payload, nil)
		if err != nil {
			return nil, err
		}
		return scope, nil

	case authDomain.TokenTypeResourceScope:
		if currentResource == "" {
			return nil, authDomain.ErrInvalidToken
		}
		scope, err := c.openScopeToken(partition, payload, []byte(currentResource))
		if err != nil {
			return nil, err
		}
		scope.Scopes = scope.Scopes.ResolveResource(currentResource)
		return authDomain.ResourceScopeToken{ScopeToken: scope, Resource: currentResource}, nil

	default:
		return nil, authDomain.ErrInvalidToken
	}
}

// maxPaddingBytes is how many bytes wider than the encoded blob the decoded
// buffer can be: a fixed-width payload decodes into n or n+1 bytes.
const maxPaddingBytes = 1

// openScopeToken decodes and authenticates a scope token payload.
//
// Base62 decoding cannot tell padding zeros from leading zero bytes of the
// blob, so leading zeros are stripped one at a time, up to the padding the
// fixed width can add; the first split whose tag verifies wins.
func (c *tokenCodec) openScopeToken(
	partition cryptoDomain.Partition,
	payload string,
	aad []byte,
) (authDomain.ScopeToken, error) {
	if len(payload) > authDomain.MaxScopeTokenPayloadLength {
		return authDomain.ScopeToken{}, authDomain.ErrInvalidToken
	}
	buf, err := Base62Decode(payload)
	if err != nil {
		return authDomain.ScopeToken{}, authDomain.ErrInvalidToken
	}

	leadingZeros := len(buf) - len(bytes.TrimLeft(buf, "\x00"))
	for stripped := 0; stripped <= min(leadingZeros, maxPaddingBytes); stripped++ {
		plaintext, err := c.store.Decrypt(buf[stripped:], partition, aad)
		if err != nil {
			continue
		}
		return parseScopePayload(partition, plaintext)
	}

	return authDomain.ScopeToken{}, authDomain.ErrInvalidToken
}

func parseScopePayload(partition cryptoDomain.Partition, plaintext []byte) (authDomain.ScopeToken, error) {
	var payload scopePayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return authDomain.ScopeToken{}, authDomain.ErrInvalidToken
	}

	token := authDomain.ScopeToken{
		Partition: partition,
		Scopes:    payload.Scopes,
	}
	if payload.Expires != nil {
		expires := time.UnixMilli(*payload.Expires).UTC()
		token.Expires = &expires
	}
	return token, nil
}

// ResourceFromPath returns the first two non-empty segments of a URL path
// joined by "/", or "" when the path has fewer than two segments.
func ResourceFromPath(path string) string {
	segments := make([]string, 0, 2)
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		segments = append(segments, segment)
		if len(segments) == 2 {
			return strings.Join(segments, "/")
		}
	}
	return ""
}
