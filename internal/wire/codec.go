// Package wire implements the line-delimited, "::"-field-separated frame
// protocol shared by the client-facing and coordinator-facing channels. One
// frame per line, newline-terminated; the leading field is always the tag.
package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sep is the field separator used by every frame on the wire.
const Sep = "::"

// Tag identifies the shape of a frame by its leading field.
type Tag string

const (
	TagPost          Tag = "POST"
	TagReply         Tag = "REPLY"
	TagRegister      Tag = "REGISTER"
	TagPolicy        Tag = "POLICY"
	TagVersionQuery  Tag = "VERSION_QUERY"
	TagCheck         Tag = "CHECK"
	TagQuorumRead    Tag = "QUORUM_READ"
	TagAcquireLock   Tag = "ACQUIRE_LOCK"
	TagGrantLock     Tag = "GRANT_LOCK"
	TagUnlock        Tag = "UNLOCK"
	TagTransfer      Tag = "SERVER_TO_SERVER_TRANSFER"
	TagSendUpdates   Tag = "SEND_UPDATES"
	TagRead          Tag = "READ"
	TagChoose        Tag = "CHOOSE"
)

// ReplyOK and ReplyWait are the two bare-string replies on the wire.
const (
	ReplyOK   = "OK"
	ReplyWait = "WAIT"
)

// Success/failure codes for POST/REPLY responses.
const (
	CodeOK   = 0
	CodeFail = 1
)

// ErrMalformed is returned when a frame's field count is inconsistent with
// its leading tag.
var ErrMalformed = errors.New("wire: malformed frame")

// Frame is a decoded wire message. Not every field is populated for every
// Tag; see the Decode* helpers for the fields each tag uses.
type Frame struct {
	Tag       Tag
	Title     string
	Author    string
	Body      string
	ParentID  int
	ID        int    // assigned message id, present iff HasID
	HasID     bool
	Port      int    // REGISTER
	Version   int    // CHECK, VERSION_QUERY replies
	ReplicaID int    // QUORUM_READ
	IP        string // SERVER_TO_SERVER_TRANSFER
	StartID   int    // SEND_UPDATES
	Page      int    // READ
}

// split breaks a raw line into its "::"-separated fields, dropping a
// trailing empty field caused by a terminating separator (there is none in
// this protocol, but callers may hand us a line with its newline retained).
func split(line string) []string {
	line = strings.TrimRight(line, "\r\n")
	return strings.Split(line, Sep)
}

// EncodePost renders a client-originated POST frame (no id yet assigned).
func EncodePost(title, author, body string) string {
	return strings.Join([]string{string(TagPost), title, author, body}, Sep)
}

// EncodeReply renders a client-originated REPLY frame (no id yet assigned).
func EncodeReply(parentID int, title, author, body string) string {
	return strings.Join([]string{string(TagReply), strconv.Itoa(parentID), title, author, body}, Sep)
}

// EncodeMessageFrame renders a POST/REPLY frame with its assigned id
// appended, in the form the coordinator fans out to replicas.
func EncodeMessageFrame(f Frame) string {
	if f.Tag == TagReply {
		return strings.Join([]string{
			string(TagReply), strconv.Itoa(f.ParentID), f.Title, f.Author, f.Body, strconv.Itoa(f.ID),
		}, Sep)
	}
	return strings.Join([]string{
		string(TagPost), f.Title, f.Author, f.Body, strconv.Itoa(f.ID),
	}, Sep)
}

// DecodeMessageFrame parses a POST or REPLY frame, with or without a
// trailing id field.
func DecodeMessageFrame(line string) (Frame, error) {
	parts := split(line)
	if len(parts) == 0 {
		return Frame{}, ErrMalformed
	}
	switch Tag(parts[0]) {
	case TagPost:
		switch len(parts) {
		case 4:
			return Frame{Tag: TagPost, Title: parts[1], Author: parts[2], Body: parts[3]}, nil
		case 5:
			id, err := strconv.Atoi(parts[4])
			if err != nil {
				return Frame{}, fmt.Errorf("%w: bad id %q", ErrMalformed, parts[4])
			}
			return Frame{Tag: TagPost, Title: parts[1], Author: parts[2], Body: parts[3], ID: id, HasID: true}, nil
		default:
			return Frame{}, ErrMalformed
		}
	case TagReply:
		switch len(parts) {
		case 5:
			parentID, err := strconv.Atoi(parts[1])
			if err != nil {
				return Frame{}, fmt.Errorf("%w: bad parent_id %q", ErrMalformed, parts[1])
			}
			return Frame{Tag: TagReply, ParentID: parentID, Title: parts[2], Author: parts[3], Body: parts[4]}, nil
		case 6:
			parentID, err := strconv.Atoi(parts[1])
			if err != nil {
				return Frame{}, fmt.Errorf("%w: bad parent_id %q", ErrMalformed, parts[1])
			}
			id, err := strconv.Atoi(parts[5])
			if err != nil {
				return Frame{}, fmt.Errorf("%w: bad id %q", ErrMalformed, parts[5])
			}
			return Frame{Tag: TagReply, ParentID: parentID, Title: parts[2], Author: parts[3], Body: parts[4], ID: id, HasID: true}, nil
		default:
			return Frame{}, ErrMalformed
		}
	default:
		return Frame{}, fmt.Errorf("%w: unexpected tag %q", ErrMalformed, parts[0])
	}
}

// EncodeRegister renders the replica->coordinator registration frame.
func EncodeRegister(port int) string {
	return string(TagRegister) + Sep + strconv.Itoa(port)
}

// DecodeRegister parses a REGISTER::port frame.
func DecodeRegister(line string) (Frame, error) {
	parts := split(line)
	if len(parts) != 2 || Tag(parts[0]) != TagRegister {
		return Frame{}, ErrMalformed
	}
	port, err := strconv.Atoi(parts[1])
	if err != nil {
		return Frame{}, fmt.Errorf("%w: bad port %q", ErrMalformed, parts[1])
	}
	return Frame{Tag: TagRegister, Port: port}, nil
}

// EncodeRegisterReply renders the coordinator's "policy::replica_id" reply.
func EncodeRegisterReply(policy string, replicaID int) string {
	return policy + Sep + strconv.Itoa(replicaID)
}

// DecodeRegisterReply parses a "policy::replica_id" reply line.
func DecodeRegisterReply(line string) (policy string, replicaID int, err error) {
	parts := split(line)
	if len(parts) != 2 {
		return "", 0, ErrMalformed
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad replica id %q", ErrMalformed, parts[1])
	}
	return parts[0], id, nil
}

// EncodeCheck renders a CHECK::replica_id::version frame. replica_id lets
// the coordinator address a direct push of missing updates back to the
// checking replica (see Frame.ReplicaID).
func EncodeCheck(replicaID, version int) string {
	return string(TagCheck) + Sep + strconv.Itoa(replicaID) + Sep + strconv.Itoa(version)
}

// DecodeCheck parses a CHECK::replica_id::version frame.
func DecodeCheck(line string) (replicaID, version int, err error) {
	parts := split(line)
	if len(parts) != 3 || Tag(parts[0]) != TagCheck {
		return 0, 0, ErrMalformed
	}
	replicaID, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad replica id %q", ErrMalformed, parts[1])
	}
	version, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad version %q", ErrMalformed, parts[2])
	}
	return replicaID, version, nil
}

// EncodeQuorumRead renders a QUORUM_READ::replica_id frame.
func EncodeQuorumRead(replicaID int) string {
	return string(TagQuorumRead) + Sep + strconv.Itoa(replicaID)
}

// DecodeQuorumRead parses a QUORUM_READ::replica_id frame.
func DecodeQuorumRead(line string) (int, error) {
	parts := split(line)
	if len(parts) != 2 || Tag(parts[0]) != TagQuorumRead {
		return 0, ErrMalformed
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: bad replica id %q", ErrMalformed, parts[1])
	}
	return id, nil
}

// EncodeTransfer renders a SERVER_TO_SERVER_TRANSFER::ip::port frame.
func EncodeTransfer(ip string, port int) string {
	return string(TagTransfer) + Sep + ip + Sep + strconv.Itoa(port)
}

// DecodeTransfer parses a SERVER_TO_SERVER_TRANSFER::ip::port frame.
func DecodeTransfer(line string) (ip string, port int, err error) {
	parts := split(line)
	if len(parts) != 3 || Tag(parts[0]) != TagTransfer {
		return "", 0, ErrMalformed
	}
	port, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad port %q", ErrMalformed, parts[2])
	}
	return parts[1], port, nil
}

// EncodeSendUpdates renders a SEND_UPDATES::start_id frame.
func EncodeSendUpdates(startID int) string {
	return string(TagSendUpdates) + Sep + strconv.Itoa(startID)
}

// DecodeSendUpdates parses a SEND_UPDATES::start_id frame.
func DecodeSendUpdates(line string) (int, error) {
	parts := split(line)
	if len(parts) != 2 || Tag(parts[0]) != TagSendUpdates {
		return 0, ErrMalformed
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: bad start id %q", ErrMalformed, parts[1])
	}
	return id, nil
}

// EncodeRead renders a client READ::page_n frame.
func EncodeRead(page int) string {
	return string(TagRead) + Sep + strconv.Itoa(page)
}

// DecodeRead parses a client READ::page_n frame.
func DecodeRead(line string) (int, error) {
	parts := split(line)
	if len(parts) != 2 || Tag(parts[0]) != TagRead {
		return 0, ErrMalformed
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: bad page %q", ErrMalformed, parts[1])
	}
	return n, nil
}

// EncodeChoose renders a client CHOOSE::id frame.
func EncodeChoose(id int) string {
	return string(TagChoose) + Sep + strconv.Itoa(id)
}

// DecodeChoose parses a client CHOOSE::id frame.
func DecodeChoose(line string) (int, error) {
	parts := split(line)
	if len(parts) != 2 || Tag(parts[0]) != TagChoose {
		return 0, ErrMalformed
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: bad id %q", ErrMalformed, parts[1])
	}
	return id, nil
}

// LeadingTag returns the first field of a line without fully decoding it,
// used by dispatchers to route a frame before picking the right decoder.
func LeadingTag(line string) Tag {
	parts := split(line)
	if len(parts) == 0 {
		return ""
	}
	return Tag(parts[0])
}

// DoesNotExist renders the CHOOSE-not-found text response.
func DoesNotExist(id int) string {
	return fmt.Sprintf("Does not exist. Message with ID: %d", id)
}
