package service

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"roster/internal/auth/models"
	dErrors "roster/pkg/domain-errors"
)

// decodePayload extracts the claim payload from the middle token segment.
// The segment is url-safe base64 without padding, so padding is restored
// before decoding. No signature check happens here.
func decodePayload(token string) (map[string]any, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "malformed token")
	}
	segment := parts[1]
	if pad := len(segment) % 4; pad != 0 {
		segment += strings.Repeat("=", 4-pad)
	}
	raw, err := base64.URLEncoding.DecodeString(segment)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "malformed token payload")
	}
	payload := make(map[string]any)
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "malformed token payload")
	}
	return payload, nil
}

// checkFreshness is the phase-1 gate. A token whose expiry is absent, past,
// or within the refresh threshold of now is rejected without touching the
// authority.
func checkFreshness(payload map[string]any, now time.Time, threshold time.Duration) error {
	exp, ok := payload["exp"]
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "token has no expiry")
	}
	seconds, ok := asUnixSeconds(exp)
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "token has no expiry")
	}
	expiresAt := time.Unix(seconds, 0)
	if !expiresAt.After(now.Add(threshold)) {
		return dErrors.New(dErrors.CodeUnauthorized, "token expired or about to expire")
	}
	return nil
}

func asUnixSeconds(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}

// parseClaims flattens the payload into claim entries. Array values expand
// into one entry per element under the same type. When no "name" claim is
// present, the first claim whose key contains "name" fills in for it.
// Keys are walked in sorted order so promotion is deterministic.
func parseClaims(payload map[string]any) []models.Claim {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	claims := make([]models.Claim, 0, len(payload))
	for _, k := range keys {
		switch v := payload[k].(type) {
		case []any:
			for _, item := range v {
				claims = append(claims, models.Claim{Type: k, Value: claimValue(item)})
			}
		default:
			claims = append(claims, models.Claim{Type: k, Value: claimValue(v)})
		}
	}

	hasName := false
	for _, c := range claims {
		if c.Type == "name" {
			hasName = true
			break
		}
	}
	if !hasName {
		for _, c := range claims {
			if strings.Contains(c.Type, "name") {
				claims = append(claims, models.Claim{Type: "name", Value: c.Value})
				break
			}
		}
	}
	return claims
}

func claimValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// tokenID pulls the JTI out of a decoded payload, empty when absent.
func tokenID(payload map[string]any) string {
	if v, ok := payload["jti"].(string); ok {
		return v
	}
	return ""
}
