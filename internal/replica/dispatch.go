package replica

import (
	"context"
	"net"
	"strconv"

	"github.com/dreamware/bboard/internal/netutil"
	"github.com/dreamware/bboard/internal/wire"
)

// handleFanOutWrite applies a coordinator-stamped POST/REPLY frame to the
// local store and reports whether it took. Store.Insert is itself idempotent
// on a repeated id, so a redelivered write (periodic sync, transfer, retried
// fan-out) is harmless. A REPLY whose parent_id does not resolve here is
// rejected rather than silently swallowed, so the rejection propagates back
// through fan-out as a non-OK ack and the originating client sees failure.
func (r *Replica) handleFanOutWrite(conn net.Conn, f wire.Frame) {
	err := r.store.Insert(messageFromFrame(f))
	r.delay.Sleep()
	if err != nil {
		conn.Write([]byte("FAIL\n"))
		return
	}
	conn.Write([]byte(wire.ReplyOK + "\n"))
}

func (r *Replica) handleVersionQuery(conn net.Conn) {
	r.delay.Sleep()
	conn.Write([]byte(strconv.Itoa(r.store.Version()) + "\n"))
}

// handleTransfer answers SERVER_TO_SERVER_TRANSFER::dest_ip::dest_port by
// replaying this replica's full range_from(1) to dest, one stamped write per
// short-lived connection — the same one-shot frame/ack shape fan-out already
// uses, rather than the original's single held connection streaming every
// update before waiting on one combined acknowledgement (a batch the
// destination could only ever partially acknowledge, since it replies "OK"
// after each line, not once at the end). Replies to the coordinator only
// after every push has been acknowledged by dest.
func (r *Replica) handleTransfer(conn net.Conn, line string) {
	ip, port, err := wire.DecodeTransfer(line)
	if err != nil {
		return
	}
	destAddr := net.JoinHostPort(ip, strconv.Itoa(port))

	ok := true
	for _, m := range r.store.RangeFrom(1) {
		resp, err := netutil.Exchange(context.Background(), destAddr, renderMessage(m), r.delay)
		if err != nil || resp != wire.ReplyOK {
			ok = false
			break
		}
	}

	r.delay.Sleep()
	if ok {
		conn.Write([]byte(wire.ReplyOK + "\n"))
	} else {
		conn.Write([]byte("FAIL\n"))
	}
}

// handleSendUpdates answers SEND_UPDATES::start_id with range_from(start_id)
// as network-format lines terminated by a blank line, mirroring READ's
// framing. No per-line or final acknowledgement is expected; the caller
// (the coordinator's periodic sync) just reads until the blank line.
func (r *Replica) handleSendUpdates(conn net.Conn, line string) {
	startID, err := wire.DecodeSendUpdates(line)
	if err != nil {
		return
	}
	r.delay.Sleep()
	for _, m := range r.store.RangeFrom(startID) {
		conn.Write([]byte(renderMessage(m) + "\n"))
	}
	conn.Write([]byte("\n"))
}
