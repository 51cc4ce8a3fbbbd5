package solis

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"regexp"
	"time"
)

const (
	loginPath    = "/v2/api/login"
	controlPath  = "/v2/api/control"
	inverterPath = "/v1/api/inverterList"

	contentType = "application/json"
	dateLayout  = "Mon, 02 Jan 2006 15:04:05 GMT"
)

func contentMD5(body []byte) string {
	sum := md5.Sum(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func passwordHash(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// sign returns the Authorization value for a POST to resource.
func sign(keyID, secret, digest, date, resource string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(http.MethodPost + "\n" + digest + "\n" + contentType + "\n" + date + "\n" + resource))
	return "API " + keyID + ":" + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signHeaders(h http.Header, keyID, secret string, body []byte, resource string, now time.Time) {
	digest := contentMD5(body)
	date := now.UTC().Format(dateLayout)
	h.Set("Content-MD5", digest)
	h.Set("Content-Type", contentType)
	h.Set("Date", date)
	h.Set("Authorization", sign(keyID, secret, digest, date, resource))
}

// SolisCloud occasionally answers with trailing commas inside objects and
// arrays. String literals are matched first so their content survives.
var trailingComma = regexp.MustCompile(`("(?:\\?.)*?")|,\s*([\]}])`)

func cleanJSON(b []byte) []byte {
	return trailingComma.ReplaceAll(b, []byte("$1$2"))
}
