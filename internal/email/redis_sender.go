package email

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/textproto"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// TemplateHeader carries the template ID inside raw messages so mock stores can key on it.
const TemplateHeader = "X-Template-ID"

// MockEmailTTL is how long a mocked email stays readable in Redis.
const MockEmailTTL = 5 * time.Minute

// MockEmailKey is the Redis key a mocked email is stored under.
func MockEmailKey(to, templateID string) string {
	return fmt.Sprintf("mockemail:%s:%s", strings.ToLower(to), templateID)
}

// RedisSender stores emails in Redis instead of sending them, for integration tests.
type RedisSender struct {
	client *redis.Client
}

func NewRedisSender(client *redis.Client) *RedisSender {
	return &RedisSender{client: client}
}

func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	templateID := "unknown"
	if hdr, err := textproto.NewReader(bufio.NewReader(bytes.NewReader(rawMessage))).ReadMIMEHeader(); err == nil {
		if v := hdr.Get(TemplateHeader); v != "" {
			templateID = v
		}
	}

	data, err := json.Marshal(map[string]interface{}{
		"to":          strings.Join(to, ", "),
		"subject":     subject,
		"body":        string(rawMessage),
		"sent_at":     time.Now().UTC().Format(time.RFC3339Nano),
		"template_id": templateID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	for _, addr := range to {
		key := MockEmailKey(addr, templateID)
		if err := s.client.Set(ctx, key, data, MockEmailTTL).Err(); err != nil {
			return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
		}
		log.Printf("Mock email stored in Redis key '%s' (Subject: %s)", key, subject)
	}
	return nil
}
