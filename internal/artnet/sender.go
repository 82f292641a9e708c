package artnet

import (
	"fmt"
	"net"
	"strconv"
	"sync"
)

// Sender broadcasts ArtDMX frames from one UDP socket.
//
// Sender is safe for concurrent use. The sequence number runs 1..255 and
// wraps back to 1; 0 means "sequencing disabled" to receivers and is never
// sent.
type Sender struct {
	mu     sync.Mutex
	conn   *net.UDPConn
	target *net.UDPAddr
	seq    uint8
	closed bool
}

// NewSender opens a UDP socket for sending to broadcastAddress:port.
//
// Parameters:
//   - broadcastAddress: IPv4 broadcast or unicast node address; empty means 255.255.255.255
//   - port: UDP port, 0 means DefaultPort
//
// Returns:
//   - *Sender: ready to send frames
//   - error: ErrInvalidAddress, or the socket error
func NewSender(broadcastAddress string, port int) (*Sender, error) {
	if broadcastAddress == "" {
		broadcastAddress = net.IPv4bcast.String()
	}
	if port == 0 {
		port = DefaultPort
	}

	target, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(broadcastAddress, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	// Go enables SO_BROADCAST on UDP sockets by default.
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("opening art-net socket: %w", err)
	}

	return &Sender{conn: conn, target: target, seq: 1}, nil
}

// Target returns the address frames are sent to.
func (s *Sender) Target() string {
	return s.target.String()
}

// SendFrame sends one universe of DMX slot data as an ArtDMX packet.
func (s *Sender) SendFrame(dmx []byte, universe uint16) error {
	if len(dmx) > MaxSlots {
		return fmt.Errorf("%w: %d slots", ErrFrameTooLong, len(dmx))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	packet := BuildArtDMX(s.seq, universe, dmx)
	s.seq++
	if s.seq == 0 {
		s.seq = 1
	}

	if _, err := s.conn.WriteToUDP(packet, s.target); err != nil {
		return fmt.Errorf("sending artdmx to %s: %w", s.target, err)
	}
	return nil
}

// SendSync sends an ArtSync so nodes output their buffered frames together.
func (s *Sender) SendSync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, err := s.conn.WriteToUDP(BuildArtSync(), s.target); err != nil {
		return fmt.Errorf("sending artsync to %s: %w", s.target, err)
	}
	return nil
}

// Close releases the socket. Further sends return ErrClosed.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
