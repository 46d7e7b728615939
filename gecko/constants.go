package gecko

import "time"

// Handshake bytes.
const (
	// HostReady is sent by the host when it has a payload to send
	HostReady = 0x80

	// HostOK is sent by the host when it is already waiting for the device
	HostOK = 0x81

	// DeviceReady is sent by the console to announce it can receive
	DeviceReady = 0x88

	// DeviceOK acknowledges HostReady
	DeviceOK = 0x89
)

// Transfer parameters.
const (
	// ChunkSize is the largest single receive the cable driver accepts
	ChunkSize = 0xF7D8

	// LengthSize is the size of the length prefix
	LengthSize = 4

	// DefaultAckDelay is waited before answering HostReady; hosts sometimes
	// miss a byte sent immediately
	DefaultAckDelay = 100 * time.Millisecond

	// DefaultMaxPayload bounds the length a host may announce
	DefaultMaxPayload = 24 << 20
)
