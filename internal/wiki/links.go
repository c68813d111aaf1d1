package wiki

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ErrForeignHost 表示網址不屬於維基百科，這類頁面不會被取得
var ErrForeignHost = errors.New("not a wikipedia url")

// IsWikipediaHost 只接受 wikipedia.org 本身或其子網域
func IsWikipediaHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org")
}

// IsArticleURL 檢查網址是否為 http(s) 的維基百科條目網址
func IsArticleURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return IsWikipediaHost(u.Hostname()) && u.Path != ""
}

// CheckRedirect 用於 http.Client，拒絕跳轉到維基百科以外的網域
func CheckRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	if !IsWikipediaHost(req.URL.Hostname()) {
		return fmt.Errorf("redirect to %s: %w", req.URL.Host, ErrForeignHost)
	}
	return nil
}

// LinkChecker 回答某頁面是否含有指向目標條目的超連結
type LinkChecker struct {
	fetcher Fetcher
}

func NewLinkChecker(fetcher Fetcher) *LinkChecker {
	return &LinkChecker{fetcher: fetcher}
}

// HasLink 取得 pageURL 的內容，檢查其中是否有 href 指向 targetURL 所代表的條目
func (c *LinkChecker) HasLink(ctx context.Context, pageURL, targetURL string) (bool, error) {
	if !IsArticleURL(pageURL) {
		return false, fmt.Errorf("%s: %w", pageURL, ErrForeignHost)
	}
	target, err := ArticleTarget(targetURL)
	if err != nil {
		return false, err
	}

	page, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return false, err
	}
	return ContainsLink(page, target)
}

// ArticleTarget 取出網址中代表條目的部分（不含 scheme 與 host、query、fragment），並解除百分比編碼
func ArticleTarget(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	if u.Path == "" {
		return "", errors.New("url has no article path: " + rawURL)
	}
	return normalizePath(u.EscapedPath()), nil
}

func normalizePath(escaped string) string {
	if unescaped, err := url.PathUnescape(escaped); err == nil {
		return unescaped
	}
	return escaped
}

// ContainsLink 掃描 HTML 中所有 <a href>，比對相對路徑或維基百科網域下的絕對網址
func ContainsLink(page []byte, target string) (bool, error) {
	tokenizer := html.NewTokenizer(bytes.NewReader(page))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return false, err
			}
			return false, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := tokenizer.TagAttr()
				if string(key) == "href" && hrefMatches(string(val), target) {
					return true, nil
				}
				if !more {
					break
				}
			}
		}
	}
}

func hrefMatches(href, target string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	if u.Host != "" && !IsWikipediaHost(u.Hostname()) {
		return false
	}
	if u.Host == "" && !strings.HasPrefix(u.Path, "/") {
		return false
	}
	return normalizePath(u.EscapedPath()) == target
}
