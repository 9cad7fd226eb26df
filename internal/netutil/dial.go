package netutil

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"
)

// DialTimeout is the default timeout for outbound connections to a peer
// replica or the coordinator, mirroring the 5s HTTP client timeout the
// teacher's cluster package used for its outbound calls.
const DialTimeout = 5 * time.Second

// Conn wraps a dialed TCP connection with a line reader/writer, the unit the
// rest of the service sends and receives frames over.
type Conn struct {
	net.Conn
	R *bufio.Reader
}

// Dial connects to host:port with a bounded timeout and wraps the result for
// line-oriented reads.
func Dial(ctx context.Context, addr string) (*Conn, error) {
	d := net.Dialer{Timeout: DialTimeout}
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("netutil: dial %s: %w", addr, err)
	}
	return &Conn{Conn: c, R: bufio.NewReader(c)}, nil
}

// SendLine writes line followed by a newline.
func (c *Conn) SendLine(line string) error {
	_, err := c.Conn.Write([]byte(line + "\n"))
	return err
}

// ReadLine reads a single newline-terminated frame, stripping the
// terminator.
func (c *Conn) ReadLine() (string, error) {
	line, err := c.R.ReadString('\n')
	if err != nil {
		return "", err
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}

// Exchange dials addr, sends line with the given delay applied, reads and
// returns a single response line, then closes the connection. This is the
// shape of a short-lived coordinator<->replica control exchange
// (ACQUIRE_LOCK, CHECK, VERSION_QUERY, ...).
func Exchange(ctx context.Context, addr, line string, delay Delay) (string, error) {
	conn, err := Dial(ctx, addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	delay.Sleep()
	if err := conn.SendLine(line); err != nil {
		return "", err
	}
	return conn.ReadLine()
}
