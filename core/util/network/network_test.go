package network

import (
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostname(t *testing.T) {
	want, err := os.Hostname()
	if err != nil {
		t.Skipf("hostname not available: %v", err)
	}
	assert.Equal(t, want, Hostname())
}

func TestFirstIPv4(t *testing.T) {
	cidr := func(s string) net.Addr {
		ip, ipnet, err := net.ParseCIDR(s)
		if err != nil {
			t.Fatal(err)
		}
		ipnet.IP = ip
		return ipnet
	}

	assert.Equal(t, "", firstIPv4(nil))
	assert.Equal(t, "", firstIPv4([]net.Addr{cidr("127.0.0.1/8"), cidr("::1/128")}))
	assert.Equal(t, "10.1.2.3", firstIPv4([]net.Addr{
		cidr("127.0.0.1/8"),
		cidr("fe80::1/64"),
		cidr("10.1.2.3/24"),
		cidr("192.168.0.2/24"),
	}))
}

func TestInstance(t *testing.T) {
	assert.NotEmpty(t, Instance())
}
