// Package capture converts offline PCAP captures into the labeled flow
// table the analyzers consume, and cleans externally sourced flow tables
// into the pipeline's column schema.
package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcap"

	"github.com/cvalentine99/vpnflow/internal/dataset"
	"github.com/cvalentine99/vpnflow/internal/logging"
)

// FlowColumns is the converter's output schema.
var FlowColumns = []string{
	"src_ip", "dst_ip", "src_port", "dst_port", "protocol",
	"duration", "packet_count", "byte_count", "label",
}

// flowKey identifies a bidirectional flow; endpoints are stored in
// canonical order so both directions hit the same accumulator.
type flowKey struct {
	loIP, hiIP     string
	loPort, hiPort uint16
	proto          string
}

// flowAccumulator aggregates one bidirectional flow. The first packet seen
// fixes the flow's src/dst orientation.
type flowAccumulator struct {
	srcIP, dstIP     string
	srcPort, dstPort uint16
	proto            string
	first, last      time.Time
	packets, bytes   uint64
}

// ConvertFolders extracts flows from the VPN and non-VPN capture folders,
// labels them, and writes the combined flow table to outCSV.
func ConvertFolders(vpnDir, nonVPNDir, outCSV string) (*dataset.Table, error) {
	t := dataset.NewTable(FlowColumns)

	if err := appendFolder(t, vpnDir, "VPN"); err != nil {
		return nil, err
	}
	if err := appendFolder(t, nonVPNDir, "Non-VPN"); err != nil {
		return nil, err
	}

	if t.NumRows() == 0 {
		return nil, fmt.Errorf("no flows extracted from %s or %s", vpnDir, nonVPNDir)
	}
	if err := dataset.Write(t, outCSV); err != nil {
		return nil, err
	}
	logging.CaptureLogger().Info("wrote combined flow table",
		logging.Dataset(outCSV, t.NumRows(), t.NumColumns()))
	return t, nil
}

// appendFolder extracts flows from every .pcap/.pcapng file under dir and
// appends them to t with the given label. A missing folder is a warning,
// not an error, matching the converter's permissive ingest contract.
func appendFolder(t *dataset.Table, dir, label string) error {
	log := logging.CaptureLogger()

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("capture folder not readable, skipping", "dir", dir, logging.Err(err))
		return nil
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".pcap") && !strings.HasSuffix(name, ".pcapng") {
			continue
		}
		path := filepath.Join(dir, name)
		log.Info("processing capture", "file", path, "label", label)

		flows, err := extractFlows(path)
		if err != nil {
			// One bad capture should not sink the rest of the folder.
			log.Warn("failed to process capture", "file", path, logging.Err(err))
			continue
		}
		for _, f := range flows {
			if err := t.AppendRow(f.row(label)); err != nil {
				return err
			}
		}
	}
	return nil
}

// extractFlows aggregates a capture file into bidirectional flows.
func extractFlows(path string) ([]*flowAccumulator, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer handle.Close()

	flows := make(map[flowKey]*flowAccumulator)
	var order []flowKey

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range source.Packets() {
		srcIP, dstIP, proto, ok := networkTuple(packet)
		if !ok {
			continue
		}
		srcPort, dstPort := transportPorts(packet)

		key := canonicalKey(srcIP, dstIP, srcPort, dstPort, proto)
		acc, ok := flows[key]
		if !ok {
			acc = &flowAccumulator{
				srcIP: srcIP, dstIP: dstIP,
				srcPort: srcPort, dstPort: dstPort,
				proto: proto,
				first: packet.Metadata().Timestamp,
			}
			flows[key] = acc
			order = append(order, key)
		}

		ts := packet.Metadata().Timestamp
		if ts.After(acc.last) {
			acc.last = ts
		}
		acc.packets++
		acc.bytes += uint64(packet.Metadata().Length)
	}

	out := make([]*flowAccumulator, len(order))
	for i, key := range order {
		out[i] = flows[key]
	}
	return out, nil
}

// networkTuple pulls addresses and the transport protocol name.
func networkTuple(packet gopacket.Packet) (src, dst, proto string, ok bool) {
	if ip4, _ := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4); ip4 != nil {
		return ip4.SrcIP.String(), ip4.DstIP.String(), ip4.Protocol.String(), true
	}
	if ip6, _ := packet.Layer(layers.LayerTypeIPv6).(*layers.IPv6); ip6 != nil {
		return ip6.SrcIP.String(), ip6.DstIP.String(), ip6.NextHeader.String(), true
	}
	return "", "", "", false
}

// transportPorts pulls TCP/UDP ports, zero when absent.
func transportPorts(packet gopacket.Packet) (src, dst uint16) {
	if tcp, _ := packet.Layer(layers.LayerTypeTCP).(*layers.TCP); tcp != nil {
		return uint16(tcp.SrcPort), uint16(tcp.DstPort)
	}
	if udp, _ := packet.Layer(layers.LayerTypeUDP).(*layers.UDP); udp != nil {
		return uint16(udp.SrcPort), uint16(udp.DstPort)
	}
	return 0, 0
}

// canonicalKey orders the endpoints so both directions share a key.
func canonicalKey(srcIP, dstIP string, srcPort, dstPort uint16, proto string) flowKey {
	if srcIP > dstIP || (srcIP == dstIP && srcPort > dstPort) {
		srcIP, dstIP = dstIP, srcIP
		srcPort, dstPort = dstPort, srcPort
	}
	return flowKey{loIP: srcIP, hiIP: dstIP, loPort: srcPort, hiPort: dstPort, proto: proto}
}

// row renders the accumulator as a flow table row.
func (f *flowAccumulator) row(label string) []string {
	duration := f.last.Sub(f.first).Seconds()
	if duration < 0 {
		duration = 0
	}
	return []string{
		f.srcIP,
		f.dstIP,
		strconv.Itoa(int(f.srcPort)),
		strconv.Itoa(int(f.dstPort)),
		f.proto,
		strconv.FormatFloat(duration, 'f', -1, 64),
		strconv.FormatUint(f.packets, 10),
		strconv.FormatUint(f.bytes, 10),
		label,
	}
}
