// Command threadsniff is a debug capture tool: it opens a pcap handle
// (a live interface or an offline capture file), decodes 802.15.4
// frames off the link and CoAP messages off UDP traffic on the Thread
// CoAP port, and prints what it finds.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/hwipl/thread-core/internal/coap"
	"github.com/hwipl/thread-core/internal/mac"
	"github.com/hwipl/thread-core/internal/resolver"
)

var (
	pcapDevice  = flag.String("i", "eth0", "the interface to listen on")
	pcapFile    = flag.String("r", "", "read packets from a pcap file instead of a live interface")
	pcapPromisc = flag.Bool("promisc", true, "promiscuous mode")
	pcapSnaplen = flag.Int("snaplen", 2048, "pcap snaplen")
	pcapFilter  = flag.String("filter", "", "a BPF filter expression")
	pcapMaxPkts = flag.Int("count", 0, "stop after this many packets (0: unlimited)")
	coapPort    = flag.Int("coap-port", resolver.CoapUdpPort, "UDP port carrying CoAP traffic to decode")

	stdout = os.Stdout
)

func openHandle() *pcap.Handle {
	if *pcapFile != "" {
		handle, err := pcap.OpenOffline(*pcapFile)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Fprintf(stdout, "Reading packets from file %s:\n", *pcapFile)
		return handle
	}

	handle, err := pcap.OpenLive(*pcapDevice, int32(*pcapSnaplen), *pcapPromisc, pcap.BlockForever)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Fprintf(stdout, "Listening on interface %s:\n", *pcapDevice)
	return handle
}

// handlePacket decodes a single captured packet: CoAP if it carries a
// UDP payload on coapPort, otherwise as a raw 802.15.4 MAC frame.
func handlePacket(packet gopacket.Packet) {
	if udp, ok := packet.TransportLayer().(*layers.UDP); ok {
		if int(udp.DstPort) == *coapPort || int(udp.SrcPort) == *coapPort {
			printCoap(udp.Payload)
			return
		}
	}
	printMacFrame(packet.Data())
}

func printCoap(payload []byte) {
	msg, kind := coap.Decode(payload)
	if kind.Fail() {
		fmt.Fprintf(stdout, "coap: decode failed: %s\n", kind)
		return
	}
	fmt.Fprintf(stdout, "coap: type=%d code=%d id=%#04x uri=%q payload=%d bytes\n",
		msg.Type, msg.Code, msg.MessageID, msg.UriPath(), len(msg.Payload))
}

func printMacFrame(data []byte) {
	frame, kind := mac.Parse(data)
	if kind.Fail() {
		fmt.Fprintf(stdout, "mac: parse failed: %s\n", kind)
		return
	}
	fmt.Fprintf(stdout, "mac: type=%d seq=%d dst=%#04x src=%#04x payload=%d bytes\n",
		frame.Fcf.Type(), frame.Seq, frame.DstAddr.Short, frame.SrcAddr.Short, len(frame.Payload))
}

func listenLoop(handle *pcap.Handle) {
	source := gopacket.NewPacketSource(handle, handle.LinkType())
	ticker := time.Tick(time.Minute)
	count := 0
	for {
		select {
		case packet, ok := <-source.Packets():
			if !ok {
				return
			}
			handlePacket(packet)
			count++
			if *pcapMaxPkts > 0 && count >= *pcapMaxPkts {
				return
			}
		case <-ticker:
			fmt.Fprintf(stdout, "timer: %d packets processed so far\n", count)
		}
	}
}

func main() {
	flag.Parse()
	log.SetOutput(os.Stderr)

	handle := openHandle()
	defer handle.Close()

	if *pcapFilter != "" {
		if err := handle.SetBPFFilter(*pcapFilter); err != nil {
			log.Fatal(err)
		}
	}

	listenLoop(handle)
}
