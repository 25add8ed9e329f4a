package http

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/webrag"
)

// robotsFetchTimeout bounds the robots.txt fetch independently of the page
// fetch timeout; a slow robots endpoint should not stall the crawl.
const robotsFetchTimeout = 5 * time.Second

// Ensure RobotsPolicy implements webrag.RobotsPolicy at compile time.
var _ webrag.RobotsPolicy = (*RobotsPolicy)(nil)

// RobotsPolicy enforces robots.txt Disallow rules. Rules are fetched once
// per host and cached for the lifetime of the policy, which matches the
// lifetime of a crawl job. The policy fails open: hosts whose robots.txt
// cannot be fetched or parsed allow everything.
type RobotsPolicy struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	rules map[string]*hostRules
}

// hostRules holds the parsed Disallow prefixes for one host.
type hostRules struct {
	disallow []string
}

// NewRobotsPolicy creates a RobotsPolicy identifying itself with the given
// user agent. If client is nil, a client with a short timeout is used.
func NewRobotsPolicy(client *http.Client, userAgent string) *RobotsPolicy {
	if client == nil {
		client = &http.Client{Timeout: robotsFetchTimeout}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RobotsPolicy{
		client:    client,
		userAgent: userAgent,
		rules:     make(map[string]*hostRules),
	}
}

// Allowed reports whether fetching the URL is permitted by the host's
// robots.txt.
func (p *RobotsPolicy) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	rules := p.rulesForHost(ctx, u)

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	for _, prefix := range rules.disallow {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// rulesForHost returns cached rules for the URL's host, fetching robots.txt
// on first use.
func (p *RobotsPolicy) rulesForHost(ctx context.Context, u *url.URL) *hostRules {
	key := u.Scheme + "://" + u.Host

	p.mu.Lock()
	rules, ok := p.rules[key]
	p.mu.Unlock()
	if ok {
		return rules
	}

	rules = p.fetchRules(ctx, key+"/robots.txt")

	p.mu.Lock()
	// First fetch wins if two goroutines raced.
	if cached, ok := p.rules[key]; ok {
		rules = cached
	} else {
		p.rules[key] = rules
	}
	p.mu.Unlock()

	return rules
}

// fetchRules retrieves and parses robots.txt. Any failure yields empty rules
// so the host fails open.
func (p *RobotsPolicy) fetchRules(ctx context.Context, robotsURL string) *hostRules {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return &hostRules{}
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return &hostRules{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &hostRules{}
	}

	return parseRobots(resp.Body, p.userAgent)
}

// parseRobots extracts Disallow prefixes from the groups that apply to the
// given user agent: the wildcard group and any group whose User-agent token
// is a prefix of ours.
func parseRobots(r io.Reader, userAgent string) *hostRules {
	rules := &hostRules{}
	agentToken := strings.ToLower(strings.SplitN(userAgent, "/", 2)[0])

	applies := false
	sawAgentLine := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field = strings.ToLower(strings.TrimSpace(field))
		value = strings.TrimSpace(value)

		switch field {
		case "user-agent":
			agent := strings.ToLower(value)
			match := agent == "*" || strings.HasPrefix(agentToken, agent)
			if sawAgentLine {
				// Consecutive User-agent lines extend the same group.
				applies = applies || match
			} else {
				applies = match
			}
			sawAgentLine = true
		case "disallow":
			sawAgentLine = false
			if applies && value != "" {
				rules.disallow = append(rules.disallow, value)
			}
		default:
			sawAgentLine = false
		}
	}

	return rules
}

// Ensure AllowAllPolicy implements webrag.RobotsPolicy at compile time.
var _ webrag.RobotsPolicy = (*AllowAllPolicy)(nil)

// AllowAllPolicy permits every fetch. Used when robots enforcement is
// disabled.
type AllowAllPolicy struct{}

// Allowed always returns true.
func (AllowAllPolicy) Allowed(context.Context, string) bool { return true }
