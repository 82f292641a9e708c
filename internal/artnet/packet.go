// Package artnet sends DMX frames to Art-Net nodes over UDP.
//
// Only the two packets a console needs to drive nodes are implemented:
// ArtDMX (one universe of slot data) and ArtSync (latch buffered frames).
package artnet

// DefaultPort is the Art-Net UDP port.
const DefaultPort = 6454

// MaxSlots is the largest DMX payload an ArtDMX packet carries.
const MaxSlots = 512

const (
	opDMX  = 0x5000
	opSync = 0x5200

	protocolVersion = 14
	headerLen       = 18
)

var packetID = []byte("Art-Net\x00")

// BuildArtDMX constructs an ArtDMX packet for the given universe and payload.
//
// universe is the 15-bit Port-Address: the low byte is SubUni and bits 8..14
// are Net. Odd payloads are padded with one zero slot because ArtDMX data
// length must be even. A payload over MaxSlots is truncated; Sender rejects
// those before building.
func BuildArtDMX(seq uint8, universe uint16, dmx []byte) []byte {
	if len(dmx) > MaxSlots {
		dmx = dmx[:MaxSlots]
	}
	dataLen := len(dmx) + len(dmx)%2

	packet := make([]byte, headerLen+dataLen)
	copy(packet[0:], packetID)
	packet[8], packet[9] = byte(opDMX&0xFF), byte(opDMX>>8) // OpCode, little-endian
	packet[10], packet[11] = 0x00, protocolVersion
	packet[12], packet[13] = seq, 0x00 // Sequence, Physical
	packet[14], packet[15] = byte(universe&0xFF), byte((universe>>8)&0x7F)
	packet[16], packet[17] = byte(dataLen>>8), byte(dataLen&0xFF) // Length, big-endian
	copy(packet[headerLen:], dmx)
	return packet
}

// BuildArtSync constructs an ArtSync packet.
func BuildArtSync() []byte {
	packet := make([]byte, 14)
	copy(packet[0:], packetID)
	packet[8], packet[9] = byte(opSync&0xFF), byte(opSync>>8)
	packet[10], packet[11] = 0x00, protocolVersion
	return packet
}
