package devicetoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a device token.
type Claims struct {
	DeviceID int64 `json:"device_id"`
	jwt.RegisteredClaims
}

// Issuer signs HMAC tokens that authorise one device to submit telemetry.
type Issuer struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

// NewIssuer returns issuer. A non-positive expiresIn defaults to one year.
func NewIssuer(secret string, expiresIn time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("devicetoken: secret is required")
	}
	if expiresIn <= 0 {
		expiresIn = 365 * 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), expiresIn: expiresIn, now: time.Now}, nil
}

// Issue returns a signed token for deviceID.
func (i *Issuer) Issue(deviceID int64) (string, error) {
	now := i.now().UTC()
	claims := Claims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiresIn)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}
