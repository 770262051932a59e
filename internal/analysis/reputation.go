package analysis

import (
	"net/netip"
	"sort"
	"strings"

	"github.com/cvalentine99/vpnflow/internal/dataset"
	"github.com/cvalentine99/vpnflow/internal/logging"
)

// IP classification labels.
const (
	ClassLocal    = "Local/Private"
	ClassReserved = "System/Reserved"
	ClassVPNLike  = "Potential VPN/Cloud Provider"
	ClassPublic   = "Public Internet"
	ClassInvalid  = "Invalid IP"
)

// IPRecord is one classified address in the detailed report.
type IPRecord struct {
	IP             string `json:"ip"`
	Classification string `json:"classification"`
}

// ReputationSummary is the IP reputation analyzer's output document.
type ReputationSummary struct {
	TotalUniqueIPs  int        `json:"total_unique_ips"`
	LocalIPs        int        `json:"local_ips"`
	VPNLikeIPs      int        `json:"vpn_like_ips"`
	PublicIPs       int        `json:"public_ips"`
	DetailedResults []IPRecord `json:"detailed_results"`
}

// vpnLikePrefixes are dotted prefixes of ranges heavily populated by cloud
// and VPN providers. Heuristic only; private and reserved checks run first.
var vpnLikePrefixes = []string{
	"13.", "34.", "35.", "44.", "52.", "54.", "63.", "64.", "66.", "142.", "143.",
	"147.", "148.", "150.", "151.", "155.", "156.", "157.", "159.", "160.", "161.",
	"162.", "163.", "164.", "165.", "166.", "167.", "168.", "169.", "170.", "171.",
	"172.67.", "172.68.", "172.69.", "172.70.", "173.", "174.", "175.", "176.", "177.",
	"178.", "179.", "180.", "181.", "182.", "183.", "184.", "185.", "186.", "187.",
	"188.", "189.", "190.", "191.", "192.", "193.", "194.", "195.", "196.", "197.",
	"198.", "199.", "200.", "201.", "202.", "203.", "204.", "205.", "206.", "207.",
	"208.", "209.", "210.", "211.", "212.", "213.", "214.", "215.", "216.",
}

// ClassifyIP buckets a single address. Private ranges win over the
// provider-prefix heuristic, so 192.168.x.x is Local/Private even though
// "192." appears in the prefix table.
func ClassifyIP(ip string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return ClassInvalid
	}

	if addr.IsPrivate() || addr.IsLinkLocalUnicast() {
		return ClassLocal
	}
	if addr.IsLoopback() || addr.IsMulticast() || addr.IsUnspecified() || isReservedV4(addr) {
		return ClassReserved
	}

	for _, prefix := range vpnLikePrefixes {
		if strings.HasPrefix(ip, prefix) {
			return ClassVPNLike
		}
	}
	return ClassPublic
}

// isReservedV4 reports 240.0.0.0/4 (reserved for future use) addresses.
func isReservedV4(addr netip.Addr) bool {
	if !addr.Is4() {
		return false
	}
	return addr.As4()[0] >= 240
}

// AnalyzeReputation classifies every unique source and destination address
// in the flow table and writes the report to outJSON.
func AnalyzeReputation(t *dataset.Table, outJSON string) (*ReputationSummary, error) {
	log := logging.AnalysisLogger()

	srcs, err := t.Strings("src_ip")
	if err != nil {
		return nil, err
	}
	dsts, err := t.Strings("dst_ip")
	if err != nil {
		return nil, err
	}

	unique := make(map[string]struct{}, len(srcs)+len(dsts))
	for _, ip := range srcs {
		unique[ip] = struct{}{}
	}
	for _, ip := range dsts {
		unique[ip] = struct{}{}
	}
	ips := make([]string, 0, len(unique))
	for ip := range unique {
		ips = append(ips, ip)
	}
	sort.Strings(ips)

	s := &ReputationSummary{DetailedResults: make([]IPRecord, 0, len(ips))}
	for _, ip := range ips {
		class := ClassifyIP(ip)
		s.DetailedResults = append(s.DetailedResults, IPRecord{IP: ip, Classification: class})
		switch class {
		case ClassLocal:
			s.LocalIPs++
		case ClassVPNLike:
			s.VPNLikeIPs++
		case ClassPublic:
			s.PublicIPs++
		}
	}
	s.TotalUniqueIPs = len(ips)

	if err := writeJSON(s, outJSON); err != nil {
		return nil, err
	}
	log.Info("reputation analysis complete", "out", outJSON,
		"total_unique_ips", s.TotalUniqueIPs,
		"vpn_like_ips", s.VPNLikeIPs,
		"local_ips", s.LocalIPs)
	return s, nil
}
