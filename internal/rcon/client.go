// Package rcon implements the client side of the Source remote console
// protocol as spoken by the ARK dedicated server: a binary framed
// request/response exchange over a raw TCP socket with a single password
// handshake and one in-flight command at a time.
package rcon

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/asa-tools/arkmgr/internal/validate"
)

// DefaultTimeout applies to the TCP connect and to every subsequent
// request/response round trip unless overridden in Options.
const DefaultTimeout = 5 * time.Second

// requestID is the constant outbound packet ID. The client is strictly
// request-then-wait, so IDs are never needed for multiplexing.
const requestID int32 = 1

var (
	ErrNotAuthenticated = errors.New("rcon: not authenticated")
	ErrAuthFailed       = errors.New("rcon: authentication refused by server")
)

// Options configures a Client.
type Options struct {
	// Timeout limits the connect and each read/write. Zero means
	// DefaultTimeout.
	Timeout time.Duration

	// Logger receives debug records for every frame sent and received.
	// Outbound auth frames are scrubbed so the password never reaches a
	// log sink. Nil disables packet logging.
	Logger *slog.Logger
}

// Client owns one TCP session with an RCON server. It is not safe for
// concurrent use; callers wanting parallel sessions must dial separate
// clients, each with its own socket.
type Client struct {
	conn          net.Conn
	timeout       time.Duration
	logger        *slog.Logger
	authenticated bool
}

// Dial opens a TCP connection to host:port, performs the password
// handshake and returns an authenticated client. On any failure the
// socket is closed before returning, so a non-nil error never leaks a
// descriptor.
func Dial(host string, port int, password string, opts Options) (*Client, error) {
	if err := validate.Port(port); err != nil {
		return nil, fmt.Errorf("rcon: %w", err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("rcon: connect %s: %w", addr, err)
	}

	c := NewClient(conn, opts)
	if err := c.Authenticate(password); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// NewClient wraps an existing connection. The conn should not be used
// outside the client afterwards. Useful for tests and for transports
// other than plain TCP.
func NewClient(conn net.Conn, opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{conn: conn, timeout: timeout, logger: opts.Logger}
}

// Authenticate performs the AUTH exchange. The server signals a rejected
// password with a response ID of -1; any other parseable response means
// the session is authorized. A failed or unreadable handshake leaves the
// client unauthenticated.
func (c *Client) Authenticate(password string) error {
	resp, err := c.roundTrip(Packet{ID: requestID, Type: PacketTypeAuth, Body: password})
	if err != nil {
		return fmt.Errorf("rcon: auth handshake: %w", err)
	}
	if resp.ID == -1 {
		return ErrAuthFailed
	}
	c.authenticated = true
	return nil
}

// Execute sends one command and returns the decoded response body. An
// empty string with a nil error means the command produced no output,
// which is distinct from a failed exchange. Calling Execute before a
// successful handshake touches no socket and returns ErrNotAuthenticated.
func (c *Client) Execute(command string) (string, error) {
	if !c.authenticated {
		return "", ErrNotAuthenticated
	}

	command = validate.Sanitize(command, validate.MaxInputLength)
	resp, err := c.roundTrip(Packet{ID: requestID, Type: PacketTypeExecCommand, Body: command})
	if err != nil {
		return "", fmt.Errorf("rcon: execute: %w", err)
	}
	return resp.Body, nil
}

// Authenticated reports whether the handshake has completed.
func (c *Client) Authenticated() bool {
	return c.authenticated
}

// Close shuts the session down. It is idempotent and safe on a client
// that never connected. Any error from the protocol layer leaves the
// session in an indeterminate state, so callers should Close and redial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.authenticated = false
	return err
}

// roundTrip writes one request frame and reads exactly one response
// frame, applying the configured deadline to each direction.
func (c *Client) roundTrip(req Packet) (*Packet, error) {
	if c.conn == nil {
		return nil, net.ErrClosed
	}

	c.logPacket("sending packet", req)
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}
	if _, err := req.WriteTo(c.conn); err != nil {
		return nil, err
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}
	var resp Packet
	if _, err := resp.ReadFrom(c.conn); err != nil {
		return nil, err
	}
	c.logPacket("received packet", resp)
	return &resp, nil
}

// logPacket emits a debug record for one frame. Outbound auth packets
// have their body replaced before logging so the password and its length
// stay out of log sinks.
func (c *Client) logPacket(msg string, p Packet) {
	if c.logger == nil {
		return
	}
	if p.Type == PacketTypeAuth {
		p.Body = "xxxxx"
	}
	c.logger.Debug(msg,
		slog.Int("id", int(p.ID)),
		slog.Int("type", int(p.Type)),
		slog.String("body", hex.EncodeToString([]byte(p.Body))),
	)
}
