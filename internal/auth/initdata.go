package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidInitData is returned when the init data is malformed or its
	// hash does not match.
	ErrInvalidInitData = errors.New("invalid telegram init data")
	// ErrExpiredInitData is returned when auth_date is older than the
	// configured maximum age.
	ErrExpiredInitData = errors.New("telegram init data expired")
)

// TelegramUser is the user object embedded in the WebApp init data.
type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// Name returns the user's display name.
func (u *TelegramUser) Name() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// InitData is the parsed, validated WebApp init data.
type InitData struct {
	User     *TelegramUser
	AuthDate time.Time
	QueryID  string
}

// ValidateInitData verifies the signed init data a Mini App client received
// from Telegram. The raw value is the query string passed verbatim by the
// WebApp SDK. maxAge of 0 disables the auth_date freshness check.
//
// The check follows the Bot API contract: every key=value pair except hash is
// sorted and joined with newlines, then HMAC-SHA256 signed with a secret key
// derived from the bot token ("WebAppData"-keyed HMAC of the token).
func ValidateInitData(raw, botToken string, maxAge time.Duration) (*InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, fmt.Errorf("%w: missing hash", ErrInvalidInitData)
	}

	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	dataCheckString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	sig := hmac.New(sha256.New, secret.Sum(nil))
	sig.Write([]byte(dataCheckString))
	wantHash := hex.EncodeToString(sig.Sum(nil))

	if !hmac.Equal([]byte(wantHash), []byte(gotHash)) {
		return nil, fmt.Errorf("%w: hash mismatch", ErrInvalidInitData)
	}

	data := &InitData{QueryID: values.Get("query_id")}

	if authDateStr := values.Get("auth_date"); authDateStr != "" {
		authDate, err := strconv.ParseInt(authDateStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad auth_date", ErrInvalidInitData)
		}
		data.AuthDate = time.Unix(authDate, 0)
		if maxAge > 0 && time.Since(data.AuthDate) > maxAge {
			return nil, ErrExpiredInitData
		}
	}

	if userJSON := values.Get("user"); userJSON != "" {
		var user TelegramUser
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			return nil, fmt.Errorf("%w: bad user payload", ErrInvalidInitData)
		}
		data.User = &user
	}
	if data.User == nil {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInitData)
	}

	return data, nil
}

// SignInitData produces the hash Telegram would attach to the given
// key/value pairs. Used by tests to fabricate valid init data.
func SignInitData(values url.Values, botToken string) string {
	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	sig := hmac.New(sha256.New, secret.Sum(nil))
	sig.Write([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(sig.Sum(nil))
}
