package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/NordCoder/Pushkeeper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type captured struct {
	mu     sync.Mutex
	reqs   []*http.Request
	bodies []string
}

func fakeClient(c *captured, status int, body string, err error) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		b, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.reqs = append(c.reqs, r)
		c.bodies = append(c.bodies, string(b))
		c.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return &http.Response{
			StatusCode: status,
			Status:     http.StatusText(status),
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	})}
}

const hookURL = "https://discord.com/api/webhooks/123456789/s3cr3t-token"

func TestSend_PostsContentToWebhook(t *testing.T) {
	c := &captured{}
	d, err := newDiscord(Config{UserAgent: "pushkeeper-test"}, fakeClient(c, http.StatusNoContent, "", nil), nil)
	require.NoError(t, err)

	require.NoError(t, d.Send(context.Background(), hookURL, "Nice work alice!"))

	require.Len(t, c.reqs, 1)
	req := c.reqs[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.True(t, strings.HasSuffix(req.URL.Path, "/webhooks/123456789/s3cr3t-token"), req.URL.Path)
	assert.Equal(t, "pushkeeper-test", req.Header.Get("User-Agent"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.bodies[0]), &payload))
	assert.Equal(t, "Nice work alice!", payload["content"])
}

func TestSend_LongContentCutOnCharacterBoundary(t *testing.T) {
	c := &captured{}
	d, err := newDiscord(Config{}, fakeClient(c, http.StatusNoContent, "", nil), nil)
	require.NoError(t, err)

	text := "a" + strings.Repeat("ё", maxContentLen)
	require.NoError(t, d.Send(context.Background(), hookURL, text))

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.bodies[0]), &payload))
	content, _ := payload["content"].(string)
	assert.True(t, utf8.ValidString(content))
	assert.Equal(t, maxContentLen, utf8.RuneCountInString(content))
	assert.Equal(t, "a"+strings.Repeat("ё", maxContentLen-1), content)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo", 10))
	assert.Equal(t, "hé", truncate("héllo", 2))
	assert.Equal(t, "", truncate("héllo", 0))
}

func TestSend_Non2xxIsDeliveryErrorWithoutRetry(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusBadGateway} {
		c := &captured{}
		d, err := newDiscord(Config{}, fakeClient(c, status, `{"message":"nope","code":0}`, nil), nil)
		require.NoError(t, err)

		err = d.Send(context.Background(), hookURL, "hi")
		require.Error(t, err)
		var de *domain.DeliveryError
		require.ErrorAs(t, err, &de)
		if status != http.StatusBadGateway {
			assert.Equal(t, status, de.Status)
		}
		assert.Len(t, c.reqs, 1, "status %d", status)
	}
}

func TestSend_RateLimitedIsNotRetried(t *testing.T) {
	c := &captured{}
	body := `{"message":"You are being rate limited.","retry_after":0.5,"global":false}`
	d, err := newDiscord(Config{}, fakeClient(c, http.StatusTooManyRequests, body, nil), nil)
	require.NoError(t, err)

	err = d.Send(context.Background(), hookURL, "hi")
	var de *domain.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusTooManyRequests, de.Status)
	assert.Len(t, c.reqs, 1)
}

func TestSend_NetworkFailure(t *testing.T) {
	c := &captured{}
	d, err := newDiscord(Config{}, fakeClient(c, 0, "", errors.New("connection refused")), nil)
	require.NoError(t, err)

	err = d.Send(context.Background(), hookURL, "hi")
	var de *domain.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Zero(t, de.Status)
}

func TestSend_InvalidEndpointMakesNoRequest(t *testing.T) {
	c := &captured{}
	d, err := newDiscord(Config{}, fakeClient(c, http.StatusNoContent, "", nil), nil)
	require.NoError(t, err)

	err = d.Send(context.Background(), "https://example.com/hook", "hi")
	assert.True(t, domain.IsDeliveryError(err))
	assert.Empty(t, c.reqs)
}

func TestParseWebhookURL(t *testing.T) {
	ok := []string{
		hookURL,
		"https://discordapp.com/api/webhooks/1/abc",
		"https://ptb.discord.com/api/webhooks/1/abc/",
		"https://canary.discord.com/api/v10/webhooks/1/abc",
	}
	for _, raw := range ok {
		hook, err := ParseWebhookURL(raw)
		require.NoError(t, err, raw)
		assert.NotEmpty(t, hook.ID)
		assert.NotEmpty(t, hook.Token)
	}

	bad := []string{
		"",
		"http://discord.com/api/webhooks/1/abc",
		"https://evil.com/api/webhooks/1/abc",
		"https://discord.com/api/webhooks/1",
		"https://discord.com/api/webhooks/abc/def",
		"https://discord.com/api/channels/1/messages",
	}
	for _, raw := range bad {
		_, err := ParseWebhookURL(raw)
		require.ErrorIs(t, err, domain.ErrInvalidInput, raw)
	}
}
