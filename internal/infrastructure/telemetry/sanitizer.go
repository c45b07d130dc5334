package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"jan-server/services/chat-ui/internal/domain/chat"
)

// PIILevel defines how much user content may reach logs.
type PIILevel string

const (
	// PIILevelNone redacts all user content
	PIILevelNone PIILevel = "none"
	// PIILevelHashed hashes recognisable PII with the deployment salt
	PIILevelHashed PIILevel = "hashed"
	// PIILevelFull performs no sanitization
	PIILevelFull PIILevel = "full"
)

const redacted = "[REDACTED]"

// ParsePIILevel maps a config value to a level, defaulting to hashed.
func ParsePIILevel(raw string) PIILevel {
	switch l := PIILevel(strings.ToLower(strings.TrimSpace(raw))); l {
	case PIILevelNone, PIILevelHashed, PIILevelFull:
		return l
	default:
		return PIILevelHashed
	}
}

// Sanitizer scrubs prompts, replies and upstream error bodies before they are logged.
type Sanitizer struct {
	level PIILevel
	salt  string

	emailPattern  *regexp.Regexp
	phonePattern  *regexp.Regexp
	ipv4Pattern   *regexp.Regexp
	bearerPattern *regexp.Regexp
	apiKeyPattern *regexp.Regexp
}

// NewSanitizer creates a sanitizer salted per deployment.
func NewSanitizer(level PIILevel, salt string) *Sanitizer {
	return &Sanitizer{
		level:         level,
		salt:          salt,
		emailPattern:  regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		phonePattern:  regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		ipv4Pattern:   regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
		bearerPattern: regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`),
		apiKeyPattern: regexp.MustCompile(`(?i)(apikey|api_key|access_token)(["'=:\s]+)[A-Za-z0-9\-._~+/]+`),
	}
}

// Prompt sanitizes user or model text according to the configured level.
func (s *Sanitizer) Prompt(input string) string {
	if input == "" {
		return ""
	}
	switch s.level {
	case PIILevelNone:
		return redacted
	case PIILevelFull:
		return s.secrets(input)
	default:
		return s.hashPII(s.secrets(input))
	}
}

// Body sanitizes an upstream response body. Credentials are always removed,
// whatever the level.
func (s *Sanitizer) Body(input string) string {
	if s.level == PIILevelNone {
		return s.secrets(input)
	}
	return s.Prompt(input)
}

// LastUserPrompt returns the sanitized text of the last user turn in msgs.
func (s *Sanitizer) LastUserPrompt(msgs []chat.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == chat.RoleUser {
			return s.Prompt(msgs[i].Content)
		}
	}
	return ""
}

func (s *Sanitizer) secrets(input string) string {
	result := s.bearerPattern.ReplaceAllString(input, "Bearer "+redacted)
	return s.apiKeyPattern.ReplaceAllString(result, "${1}${2}"+redacted)
}

func (s *Sanitizer) hashPII(input string) string {
	result := s.emailPattern.ReplaceAllStringFunc(input, func(match string) string {
		return fmt.Sprintf("[EMAIL:%s]", s.hash(match))
	})
	result = s.phonePattern.ReplaceAllStringFunc(result, func(match string) string {
		return fmt.Sprintf("[PHONE:%s]", s.hash(match))
	})
	return s.ipv4Pattern.ReplaceAllStringFunc(result, func(match string) string {
		return fmt.Sprintf("[IP:%s]", s.hash(match))
	})
}

// hash returns the first 8 hex chars of a salted SHA-256.
func (s *Sanitizer) hash(data string) string {
	h := sha256.Sum256([]byte(data + s.salt))
	return hex.EncodeToString(h[:])[:8]
}
