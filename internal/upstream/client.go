package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/octo-lens/octo-lens/internal/config"
)

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// 仓库列表固定只取第一页 100 条，超出部分不参与聚合。
// 这是沿袭下来的既有边界，改动它属于行为变更而非修复。
const repoPageSize = 100

// Client 封装对 GitHub REST API 的出站调用，整站共享一份实例。
type Client struct {
	httpClient *http.Client
	apiBase    string
}

// NewClient 构造共享上游客户端。配置了凭证时，所有请求经由 oauth2
// Transport 自动附带 Bearer 头；UpstreamTimeout 为 0 表示不设截止时间。
func NewClient(cfg config.GlobalConfig) *Client {
	var transport http.RoundTripper = defaultTransport.Clone()
	if cfg.GitHubToken != "" {
		transport = &oauth2.Transport{
			Base:   transport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken}),
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.UpstreamTimeout.DurationValue(),
			Transport: transport,
		},
		apiBase: cfg.GitHubAPIBase,
	}
}

// FetchJSON 对任意上游 URL 执行一次 GET，返回响应正文字节。
// 非 2xx 状态映射为 *StatusError；网络层失败原样包装返回，不重试。
func (c *Client) FetchJSON(ctx context.Context, rawURL string) ([]byte, error) {
	return c.fetch(ctx, rawURL, "")
}

// FetchUserRaw 拉取用户档案并返回原始字节，供 /github 透传与缓存。
func (c *Client) FetchUserRaw(ctx context.Context, username string) ([]byte, error) {
	target := fmt.Sprintf("%s/users/%s", c.apiBase, url.PathEscape(username))
	return c.fetch(ctx, target, "user")
}

// FetchUser 在 FetchUserRaw 之上解码聚合所需的字段，原始字节一并返回。
func (c *Client) FetchUser(ctx context.Context, username string) (*User, []byte, error) {
	body, err := c.FetchUserRaw(ctx, username)
	if err != nil {
		return nil, nil, err
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, nil, fmt.Errorf("decode user profile: %w", err)
	}
	return &user, body, nil
}

// ListRepos 拉取 repos_url 指向的仓库列表，单页 100 条。
func (c *Client) ListRepos(ctx context.Context, reposURL string) ([]Repo, error) {
	target, err := url.Parse(reposURL)
	if err != nil {
		return nil, fmt.Errorf("parse repos url: %w", err)
	}
	query := target.Query()
	query.Set("per_page", fmt.Sprintf("%d", repoPageSize))
	target.RawQuery = query.Encode()

	body, err := c.fetch(ctx, target.String(), "repositories")
	if err != nil {
		return nil, err
	}

	var repos []Repo
	if err := json.Unmarshal(body, &repos); err != nil {
		return nil, fmt.Errorf("decode repository list: %w", err)
	}
	return repos, nil
}

// FetchLanguages 拉取单个仓库的语言字节数映射，保留文档内的键序。
func (c *Client) FetchLanguages(ctx context.Context, languagesURL string) ([]LanguageCount, error) {
	body, err := c.fetch(ctx, languagesURL, "languages")
	if err != nil {
		return nil, err
	}
	return decodeLanguages(body)
}

func (c *Client) fetch(ctx context.Context, rawURL, resource string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{
			Resource:   resource,
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read github response: %w", err)
	}
	return body, nil
}
