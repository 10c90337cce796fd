// Package redis 封装了 go-redis 客户端与命名 Lua 脚本的管理。
package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// Client 持有底层 UniversalClient 以及已加载的脚本。
type Client struct {
	client  goredis.UniversalClient
	scripts map[string]*goredis.Script
	mu      sync.RWMutex
}

// NewClient 根据逗号分隔的地址创建客户端，单地址为单机模式，多地址为集群模式。
func NewClient(addrs string) (*Client, error) {
	var list []string
	for _, a := range strings.Split(addrs, ",") {
		if a = strings.TrimSpace(a); a != "" {
			list = append(list, a)
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("redis: no address configured")
	}
	c := goredis.NewUniversalClient(&goredis.UniversalOptions{Addrs: list})
	if err := c.Ping(context.Background()).Err(); err != nil {
		_ = c.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return Wrap(c), nil
}

// Wrap 包装一个已有的客户端（测试中配合 miniredis 使用）。
func Wrap(c goredis.UniversalClient) *Client {
	return &Client{client: c, scripts: make(map[string]*goredis.Script)}
}

// GetClient 返回底层客户端。
func (c *Client) GetClient() goredis.UniversalClient {
	return c.client
}

// LoadScriptFromContent 以名称注册一段 Lua 脚本。
func (c *Client) LoadScriptFromContent(name, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("redis: script %q is empty", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts[name] = goredis.NewScript(content)
	return nil
}

// LoadScriptFromFile 从文件读取并注册脚本。
func (c *Client) LoadScriptFromFile(name, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read script %s", path)
	}
	return c.LoadScriptFromContent(name, string(b))
}

// RunScript 执行已注册的脚本，优先 EVALSHA，脚本未缓存时自动回退 EVAL。
func (c *Client) RunScript(ctx context.Context, name string, keys []string, args ...interface{}) (interface{}, error) {
	c.mu.RLock()
	script, ok := c.scripts[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("redis: script %q not loaded", name)
	}
	return script.Run(ctx, c.client, keys, args...).Result()
}

// Close 关闭连接。
func (c *Client) Close() error {
	return c.client.Close()
}
