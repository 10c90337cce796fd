// Package zookeeper 提供基于 ZooKeeper 临时顺序节点的分布式锁。
package zookeeper

import (
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Conn 包装 zk.Conn。
type Conn struct {
	*zk.Conn
}

// Connect 连接逗号分隔的 ZooKeeper 集群。
func Connect(servers string, sessionTimeout time.Duration) (*Conn, error) {
	var list []string
	for _, s := range strings.Split(servers, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	if len(list) == 0 {
		return nil, errors.New("zookeeper: no servers configured")
	}
	c, events, err := zk.Connect(list, sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, errors.Wrap(err, "connect zookeeper")
	}
	go func() {
		for ev := range events {
			if ev.State == zk.StateExpired || ev.State == zk.StateDisconnected {
				log.Warn().Str("state", ev.State.String()).Msg("zookeeper session state changed")
			}
		}
	}()
	return &Conn{Conn: c}, nil
}

// ensurePath 逐级创建持久节点，已存在的节点忽略。
func (c *Conn) ensurePath(path string) error {
	cur := ""
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		cur += "/" + part
		ok, _, err := c.Exists(cur)
		if err != nil {
			return errors.Wrapf(err, "exists %s", cur)
		}
		if ok {
			continue
		}
		if _, err := c.Create(cur, nil, 0, zk.WorldACL(zk.PermAll)); err != nil && err != zk.ErrNodeExists {
			return errors.Wrapf(err, "create %s", cur)
		}
	}
	return nil
}
