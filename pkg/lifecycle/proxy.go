package lifecycle

import (
	"bytes"
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/cuemby/towerctl/pkg/config"
)

// proxyLine matches settings lines that assign one of the proxy variables
// in the platform's task environment
var proxyLine = regexp.MustCompile(`^\s*AWX_TASK_ENV\[['"](HTTP_PROXY|HTTPS_PROXY|NO_PROXY)['"]\]`)

// noProxy is the NO_PROXY value written alongside a configured proxy
const noProxy = "127.0.0.1"

// ProxyURL renders p as scheme://[user[:password]@]host[:port]
func ProxyURL(p config.Proxy) string {
	scheme := p.Scheme
	if scheme == "" {
		scheme = "http"
	}

	host := p.Host
	if p.Port != 0 {
		host = net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	}

	u := url.URL{Scheme: scheme, Host: host}
	switch {
	case p.User != "" && p.Password != "":
		u.User = url.UserPassword(p.User, p.Password)
	case p.User != "":
		u.User = url.User(p.User)
	}
	return u.String()
}

// rewriteProxySettings drops every proxy assignment from content and, when
// ok is set, appends fresh ones for proxy. Applying it to its own output
// with the same arguments returns the same bytes.
func rewriteProxySettings(content []byte, proxy config.Proxy, ok bool) []byte {
	var kept []string
	if trimmed := strings.TrimRight(string(content), "\n"); trimmed != "" {
		for _, line := range strings.Split(trimmed, "\n") {
			if !proxyLine.MatchString(line) {
				kept = append(kept, line)
			}
		}
	}

	if ok {
		u := ProxyURL(proxy)
		kept = append(kept,
			fmt.Sprintf("AWX_TASK_ENV['HTTP_PROXY'] = '%s'", u),
			fmt.Sprintf("AWX_TASK_ENV['HTTPS_PROXY'] = '%s'", u),
			fmt.Sprintf("AWX_TASK_ENV['NO_PROXY'] = '%s'", noProxy),
		)
	}

	if len(kept) == 0 {
		return []byte{}
	}
	return []byte(strings.Join(kept, "\n") + "\n")
}

// ReconcileProxy rewrites the platform settings file so its proxy
// assignments reflect the current proxy configuration
func (c *Controller) ReconcileProxy() error {
	path := c.cfg.SettingsFile

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat settings file: %w", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	proxy, ok := c.cfg.Proxy.Effective()
	updated := rewriteProxySettings(content, proxy, ok)
	if bytes.Equal(content, updated) {
		c.logger.Debug().Str("path", path).Msg("Proxy settings unchanged")
		return nil
	}

	if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	if ok {
		c.logger.Info().Str("proxy_host", proxy.Host).Msg("Applied proxy settings")
	} else {
		c.logger.Info().Msg("Removed proxy settings")
	}
	return nil
}
