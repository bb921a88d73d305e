package main

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// networkURLs lists http://localhost:<port> followed by one URL per IPv4
// address on this host, so phones on the same network can find the session.
func networkURLs(port int) []string {
	urls := []string{fmt.Sprintf("http://localhost:%d", port)}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		log.Warn().Err(err).Msg("failed to list network interfaces")
		return urls
	}
	return append(urls, ipv4URLs(addrs, port)...)
}

func ipv4URLs(addrs []net.Addr, port int) []string {
	var urls []string
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			urls = append(urls, fmt.Sprintf("http://%s:%d", ip4, port))
		}
	}
	return urls
}

func printBanner(port int, urls []string) {
	var b strings.Builder
	fmt.Fprintf(&b, "\nThe Oscars app is now running locally on port %d.\n\n", port)

	sections := []struct {
		title  string
		suffix string
	}{
		{"Point your browser to one of these URLs to try it out:", ""},
		{"The admin site is available at one of these URLs:", "/admin"},
		{"The TV site is available at one of these URLs:", "/tv"},
	}
	for _, s := range sections {
		fmt.Fprintln(&b, s.title)
		for _, u := range urls {
			fmt.Fprintf(&b, "    %s%s\n", u, s.suffix)
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprint(os.Stdout, b.String())
}
