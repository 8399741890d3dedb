// Package auth builds the Apple Music developer token.
package auth

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"musiclip/core/errs"
)

// MaxValidity is the longest lifetime Apple accepts for a developer token.
const MaxValidity = 180 * 24 * time.Hour

// IssueToken signs an ES256 developer token for the Apple Music API.
// The requested validity is clamped to MaxValidity. keyPath must point
// to the .p8 private key downloaded from the developer portal.
func IssueToken(keyPath, keyID, teamID string, validity time.Duration) (string, error) {
	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return "", &errs.ConfigurationError{Msg: "reading Apple Music key file", Cause: err}
	}

	privateKey, err := jwt.ParseECPrivateKeyFromPEM(keyBytes)
	if err != nil {
		return "", &errs.ConfigurationError{Msg: "parsing Apple Music key file", Cause: err}
	}

	if validity <= 0 || validity > MaxValidity {
		validity = MaxValidity
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": teamID,
		"iat": now.Unix(),
		"exp": now.Add(validity).Unix(),
	})
	token.Header["kid"] = keyID

	signed, err := token.SignedString(privateKey)
	if err != nil {
		return "", &errs.ConfigurationError{Msg: "signing developer token", Cause: err}
	}
	return signed, nil
}
