// Package network 本机网络信息，用于标识服务实例。
package network

import (
	"net"
	"os"
)

// Hostname 返回主机名，获取失败时为空
func Hostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}
	return hostname
}

// LocalIP 返回第一个非回环 IPv4 地址，没有时为空
func LocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	return firstIPv4(addrs)
}

func firstIPv4(addrs []net.Addr) string {
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip := ipnet.IP.To4(); ip != nil {
			return ip.String()
		}
	}
	return ""
}

// Instance 返回 "主机名/IP" 形式的实例标识
func Instance() string {
	host, ip := Hostname(), LocalIP()
	switch {
	case host == "":
		return ip
	case ip == "":
		return host
	default:
		return host + "/" + ip
	}
}
