package httpserver

import (
	"net"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// newIPExtractor decides which address c.RealIP reports. Without trusted
// proxies the peer address is used and forwarding headers are ignored.
// With them, X-Forwarded-For is honoured only for hops inside those ranges.
func newIPExtractor(trustedProxies []string, logger *logrus.Logger) echo.IPExtractor {
	ranges := parseTrustedProxies(trustedProxies, logger)
	if len(ranges) == 0 {
		return echo.ExtractIPDirect()
	}

	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, r := range ranges {
		opts = append(opts, echo.TrustIPRange(r))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// parseTrustedProxies accepts CIDRs and bare addresses; invalid entries are skipped.
func parseTrustedProxies(entries []string, logger *logrus.Logger) []*net.IPNet {
	var ranges []*net.IPNet
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				logger.WithField("proxy", entry).Warn("ignoring invalid trusted proxy")
				continue
			}
			bits := 128
			if ip.To4() != nil {
				ip = ip.To4()
				bits = 32
			}
			ranges = append(ranges, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			logger.WithError(err).WithField("proxy", entry).Warn("ignoring invalid trusted proxy")
			continue
		}
		ranges = append(ranges, ipNet)
	}
	return ranges
}
