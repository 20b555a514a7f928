package token

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/quizgate/internal/domain/auth"
)

// IssuerOptions groups dependencies for Issuer.
type IssuerOptions struct {
	Secret []byte           // Required: HMAC key shared with the Verifier
	Now    func() time.Time // Optional: defaults to time.Now
	NewID  func() string    // Optional: defaults to random UUIDs
}

// Issuer builds and signs tokens. It is immutable and safe for concurrent use.
type Issuer struct {
	secret []byte
	now    func() time.Time
	newID  func() string
}

// Issued is a freshly signed token together with the claims it carries.
type Issued struct {
	Token  string
	Claims Claims
}

// NewIssuer constructs an Issuer. The secret is copied.
func NewIssuer(opts IssuerOptions) (*Issuer, error) {
	if len(opts.Secret) == 0 {
		return nil, ErrEmptySecret
	}
	iss := &Issuer{
		secret: append([]byte(nil), opts.Secret...),
		now:    opts.Now,
		newID:  opts.NewID,
	}
	if iss.now == nil {
		iss.now = time.Now
	}
	if iss.newID == nil {
		iss.newID = uuid.NewString
	}
	return iss, nil
}

// Issue signs a token for subject and role that expires ttl after now.
// ttl is truncated to whole seconds and must be at least one second.
func (i *Issuer) Issue(subject string, role domainauth.Role, ttl time.Duration) (Issued, error) {
	ttlSeconds := int64(ttl / time.Second)
	if ttlSeconds <= 0 {
		return Issued{}, ErrInvalidTTL
	}
	if subject == "" {
		return Issued{}, fmt.Errorf("%w: subject is required", ErrInvalidClaims)
	}
	if !role.Valid() {
		return Issued{}, fmt.Errorf("%w: unknown role %q", ErrInvalidClaims, role)
	}

	iat := i.now().Unix()
	claims := Claims{
		Subject:   subject,
		Role:      role,
		IssuedAt:  iat,
		ExpiresAt: iat + ttlSeconds,
		ID:        i.newID(),
	}

	tok, err := encodeAndSign(claims, i.secret)
	if err != nil {
		return Issued{}, err
	}
	return Issued{Token: tok, Claims: claims}, nil
}

func encodeAndSign(claims Claims, secret []byte) (string, error) {
	header, err := json.Marshal(DefaultHeader)
	if err != nil {
		return "", fmt.Errorf("marshal header: %w", err)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	signingInput := Encode(header) + "." + Encode(payload)
	sig, err := Sign([]byte(signingInput), secret)
	if err != nil {
		return "", err
	}
	return signingInput + "." + sig, nil
}
