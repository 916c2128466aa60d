package pressfront

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// RemotePattern is one allow-list entry for the image proxy. Hostname and
// Pathname are globs: "*" matches within one label or path segment, "**"
// matches across them. Empty fields match anything, except Hostname which
// is required.
type RemotePattern struct {
	Protocol string `yaml:"protocol"`
	Hostname string `yaml:"hostname"`
	Port     string `yaml:"port"`
	Pathname string `yaml:"pathname"`
}

// DefaultRemotePatterns allows the local WordPress uploads directory and
// Google's image thumbnail host.
func DefaultRemotePatterns() []RemotePattern {
	return []RemotePattern{
		{Protocol: "http", Hostname: "localhost", Port: "8080", Pathname: "/wp-content/uploads/**"},
		{Protocol: "https", Hostname: "encrypted-tbn0.gstatic.com", Pathname: "/images/**"},
	}
}

func (p RemotePattern) validate() error {
	switch strings.TrimSuffix(p.Protocol, ":") {
	case "", "http", "https":
	default:
		return fmt.Errorf("protocol %q is not http or https", p.Protocol)
	}
	if p.Hostname == "" {
		return errors.New("hostname is required")
	}
	if p.Pathname != "" && !strings.HasPrefix(p.Pathname, "/") {
		return fmt.Errorf("pathname %q must start with /", p.Pathname)
	}
	return nil
}

type patternFile struct {
	RemotePatterns []RemotePattern `yaml:"remotePatterns"`
}

// LoadRemotePatterns reads an allow-list from a YAML file of the form
//
//	remotePatterns:
//	  - protocol: https
//	    hostname: cms.example.com
//	    pathname: /wp-content/uploads/**
func LoadRemotePatterns(path string) ([]RemotePattern, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f patternFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.RemotePatterns) == 0 {
		return nil, fmt.Errorf("%s: no remotePatterns", path)
	}
	for i, p := range f.RemotePatterns {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("%s: pattern %d: %w", path, i, err)
		}
	}
	return f.RemotePatterns, nil
}

type compiledPattern struct {
	protocol string
	port     string
	host     *regexp.Regexp
	path     *regexp.Regexp
}

// allowList is the compiled form of a set of RemotePatterns.
type allowList struct {
	patterns []compiledPattern
}

func compileAllowList(patterns []RemotePattern) (*allowList, error) {
	l := &allowList{}
	for _, p := range patterns {
		if err := p.validate(); err != nil {
			return nil, err
		}
		host, err := globRegexp(strings.ToLower(p.Hostname), '.')
		if err != nil {
			return nil, err
		}
		pathname := p.Pathname
		if pathname == "" {
			pathname = "/**"
		}
		pth, err := globRegexp(pathname, '/')
		if err != nil {
			return nil, err
		}
		l.patterns = append(l.patterns, compiledPattern{
			protocol: strings.TrimSuffix(p.Protocol, ":"),
			port:     p.Port,
			host:     host,
			path:     pth,
		})
	}
	return l, nil
}

// Allowed reports whether u may be fetched by the image proxy.
func (l *allowList) Allowed(u *url.URL) bool {
	if u == nil || u.Host == "" || u.User != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	p := u.EscapedPath()
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." || strings.EqualFold(seg, "%2e%2e") {
			return false
		}
	}
	host := strings.ToLower(u.Hostname())
	for _, cp := range l.patterns {
		if cp.protocol != "" && cp.protocol != u.Scheme {
			continue
		}
		if cp.port != "" && cp.port != u.Port() {
			continue
		}
		if cp.host.MatchString(host) && cp.path.MatchString(p) {
			return true
		}
	}
	return false
}

// globRegexp translates a glob into an anchored regexp. "*" stops at sep.
func globRegexp(glob string, sep byte) (*regexp.Regexp, error) {
	notSep := "[^" + regexp.QuoteMeta(string(sep)) + "]*"
	var b strings.Builder
	b.WriteByte('^')
	for i := 0; i < len(glob); {
		switch {
		case strings.HasPrefix(glob[i:], "**"):
			b.WriteString(".*")
			i += 2
		case glob[i] == '*':
			b.WriteString(notSep)
			i++
		default:
			j := strings.IndexByte(glob[i:], '*')
			if j < 0 {
				j = len(glob) - i
			}
			b.WriteString(regexp.QuoteMeta(glob[i : i+j]))
			i += j
		}
	}
	b.WriteByte('$')
	return regexp.Compile(b.String())
}
