// Package xredis builds redis clients from configuration, accepting either a
// redis:// / rediss:// URL or a plain host:port address.
package xredis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// NewClient connects and pings before returning, so a misconfigured cache
// backend fails at startup instead of on first use.
func NewClient(cfg Config) (*redis.Client, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("xredis: ping: %w", err)
	}

	return client, nil
}

// Options resolves the config into redis options. A URL wins over a plain
// address; explicit credential fields override whatever the URL carries.
func Options(cfg Config) (*redis.Options, error) {
	opts := &redis.Options{}

	switch {
	case cfg.URL != "":
		if err := applyURL(opts, cfg); err != nil {
			return nil, err
		}
	case strings.TrimSpace(cfg.Addr) != "":
		opts.Addr = strings.TrimSpace(cfg.Addr)
	default:
		return nil, errors.New("xredis: addr or url is required")
	}

	if cfg.Username != "" {
		opts.Username = cfg.Username
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	if cfg.DB != nil {
		opts.DB = *cfg.DB
	}

	if cfg.TLS && opts.TLSConfig == nil {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if opts.TLSConfig != nil {
		opts.TLSConfig.InsecureSkipVerify = cfg.TLSInsecureSkipVerify // #nosec G402 -- explicit config opt-in
	} else if cfg.TLSInsecureSkipVerify {
		return nil, errors.New("xredis: tls_insecure_skip_verify requires tls=true or a rediss:// url")
	}

	return opts, nil
}

func applyURL(opts *redis.Options, cfg Config) error {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("xredis: parse url: %w", err)
	}

	switch u.Scheme {
	case "redis", "rediss":
	default:
		return fmt.Errorf("xredis: unsupported scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("xredis: url missing host")
	}

	opts.Addr = u.Host

	if u.User != nil {
		opts.Username = u.User.Username()
		if pwd, ok := u.User.Password(); ok {
			opts.Password = pwd
		}
	}

	if path := strings.TrimPrefix(u.Path, "/"); path != "" {
		db, err := strconv.Atoi(path)
		if err != nil {
			return fmt.Errorf("xredis: invalid db in url: %w", err)
		}

		opts.DB = db
	}

	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return nil
}
