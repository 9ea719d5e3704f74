package proxy

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinSwitcher(t *testing.T) {
	p, err := RoundRobinSwitcher("http://127.0.0.1:8888", "http://127.0.0.1:8889")
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	var hosts []string
	for i := 0; i < 3; i++ {
		u, err := p(req)
		require.NoError(t, err)
		hosts = append(hosts, u.Host)
	}
	assert.Equal(t, []string{"127.0.0.1:8888", "127.0.0.1:8889", "127.0.0.1:8888"}, hosts)
}

func TestRoundRobinSwitcherSkipsInvalid(t *testing.T) {
	p, err := RoundRobinSwitcher("not a proxy", "socks5://127.0.0.1:1080")
	require.NoError(t, err)

	u, err := p(&http.Request{})
	require.NoError(t, err)
	assert.Equal(t, "socks5", u.Scheme)
}

func TestRoundRobinSwitcherErrors(t *testing.T) {
	_, err := RoundRobinSwitcher()
	assert.Error(t, err)

	_, err = RoundRobinSwitcher("::::", "relative/path")
	assert.Error(t, err)
}
