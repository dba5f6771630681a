package signurl

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultExpire = 3600 * time.Second

	paramAlgorithm     = "X-Goog-Algorithm"
	paramCredential    = "X-Goog-Credential"
	paramDate          = "X-Goog-Date"
	paramExpires       = "X-Goog-Expires"
	paramSignedHeaders = "X-Goog-SignedHeaders"
	paramSignature     = "X-Goog-Signature"

	algorithm     = "GOOG4-HMAC-SHA256"
	signedHeaders = "host"
	dateLayout    = "20060102T150405Z"
)

// Signer builds emulator-style signed urls. The signature is computed client
// side, expiry enforcement happens on the server.
type Signer struct {
	accessKey string
	secretKey string
	now       func() time.Time
}

func New(ak string, sk string) *Signer {
	return &Signer{
		accessKey: ak,
		secretKey: sk,
		now:       time.Now,
	}
}

func (s *Signer) signPath(bucket, object string) string {
	return fmt.Sprintf("/signed/%s/%s", url.PathEscape(bucket), url.PathEscape(object))
}

func (s *Signer) canonicalString(method, path, date string, expireSecs int64) string {
	return strings.Join([]string{
		method,
		path,
		algorithm,
		s.accessKey,
		date,
		strconv.FormatInt(expireSecs, 10),
		signedHeaders,
	}, "\n")
}

func (s *Signer) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(s.secretKey))
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignURL returns a time-limited GET url for one object. A zero expire falls
// back to the 3600s default.
func (s *Signer) SignURL(base string, bucket string, object string, expire time.Duration) (string, error) {
	if len(base) == 0 {
		return "", fmt.Errorf("no base url found")
	}
	if expire <= 0 {
		expire = defaultExpire
	}
	expireSecs := int64(expire / time.Second)
	date := s.now().UTC().Format(dateLayout)
	path := s.signPath(bucket, object)
	sig := s.sign(s.canonicalString(http.MethodGet, path, date, expireSecs))
	query := url.Values{}
	query.Set(paramAlgorithm, algorithm)
	query.Set(paramCredential, s.accessKey)
	query.Set(paramDate, date)
	query.Set(paramExpires, strconv.FormatInt(expireSecs, 10))
	query.Set(paramSignedHeaders, signedHeaders)
	query.Set(paramSignature, sig)
	return fmt.Sprintf("%s%s?%s", strings.TrimSuffix(base, "/"), path, query.Encode()), nil
}
