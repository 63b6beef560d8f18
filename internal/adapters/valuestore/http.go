package valuestore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nodelaunch/internal/launcher"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxValueBytes         = 1 << 20 // 1MiB safety limit
)

// HTTPStore 通过 HTTP 服务按键读取运行期上下文值。
type HTTPStore struct {
	baseURL string
	client  *http.Client
	log     launcher.Logger
}

// NewHTTPStore 构造面向 HTTP 服务的值存储客户端。
func NewHTTPStore(baseURL string, log launcher.Logger) (*HTTPStore, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("value store base url is empty")
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(trimmed, "/"),
		client: &http.Client{
			Timeout: defaultRequestTimeout,
		},
		log: log,
	}, nil
}

// Pull 通过 GET <base>/<key> 读取值，响应体原文去除首尾空白后即为值。
func (s *HTTPStore) Pull(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key is empty")
	}
	target := fmt.Sprintf("%s/%s", s.baseURL, strings.TrimLeft(key, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("value store %s status %s: %s", target, resp.Status, strings.TrimSpace(string(payload)))
	}

	reader := io.LimitReader(resp.Body, maxValueBytes+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", target, err)
	}
	if len(data) > maxValueBytes {
		return "", fmt.Errorf("value larger than %d bytes", maxValueBytes)
	}

	value := strings.TrimSpace(string(data))
	s.log.Infof("pulled value for key %s (%d bytes)", key, len(data))
	return value, nil
}
