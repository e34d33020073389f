package common

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"strings"
)

// --------------------------------------------------------------------------
// Command Kind Definition
// --------------------------------------------------------------------------

// CommandKind identifies the instruction carried by a Command.
// The wire code of every kind is fixed in kindTable and must never change,
// the peer relies on it to dispatch the frame.
type CommandKind uint8

const (
	CmdKUserExit CommandKind = iota + 1
	CmdKPCLock
	CmdKPCRestart
	CmdKPCLogOff
	CmdKPCShutDown
	CmdKMessage
	CmdKClientLoginInform
	CmdKClientLogOffInform
	CmdKIsNameExists
	CmdKSendClientList
	CmdKFreeCommand
)

// kindInfo holds the stable wire code and the name of a CommandKind
type kindInfo struct {
	code uint32
	name string
}

// kindTable is the only place where wire codes are assigned.
// The zero CommandKind is deliberately absent, so an uninitialized kind
// fails to encode instead of being sent as UserExit.
var kindTable = map[CommandKind]kindInfo{
	CmdKUserExit:           {code: 0, name: "UserExit"},
	CmdKPCLock:             {code: 1, name: "PCLock"},
	CmdKPCRestart:          {code: 2, name: "PCRestart"},
	CmdKPCLogOff:           {code: 3, name: "PCLogOff"},
	CmdKPCShutDown:         {code: 4, name: "PCShutDown"},
	CmdKMessage:            {code: 5, name: "Message"},
	CmdKClientLoginInform:  {code: 6, name: "ClientLoginInform"},
	CmdKClientLogOffInform: {code: 7, name: "ClientLogOffInform"},
	CmdKIsNameExists:       {code: 8, name: "IsNameExists"},
	CmdKSendClientList:     {code: 9, name: "SendClientList"},
	CmdKFreeCommand:        {code: 10, name: "FreeCommand"},
}

// codeTable is the reverse of kindTable, built once at init
var codeTable = func() map[uint32]CommandKind {
	m := make(map[uint32]CommandKind, len(kindTable))
	for k, info := range kindTable {
		m[info.code] = k
	}
	return m
}()

// AllCommandKinds returns every known kind ordered by wire code
func AllCommandKinds() []CommandKind {
	kinds := make([]CommandKind, 0, len(kindTable))
	for code := uint32(0); code < uint32(len(kindTable)); code++ {
		if k, ok := codeTable[code]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// IsValid reports whether the kind has an entry in the code table
func (k CommandKind) IsValid() bool {
	_, ok := kindTable[k]
	return ok
}

// Code returns the stable wire code of the kind.
// Unknown kinds return ErrUnknownCommandKind.
func (k CommandKind) Code() (uint32, error) {
	info, ok := kindTable[k]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownCommandKind, uint8(k))
	}
	return info.code, nil
}

// String returns the string representation of a CommandKind.
func (k CommandKind) String() string {
	if info, ok := kindTable[k]; ok {
		return info.name
	}
	return fmt.Sprintf("Unknown(%d)", uint8(k))
}

// MarshalJSON implements the json.Marshaller interface for CommandKind.
func (k CommandKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for CommandKind.
func (k *CommandKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCommandKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseCommandKind resolves a kind by its name (case-insensitive)
func ParseCommandKind(name string) (CommandKind, error) {
	for k, info := range kindTable {
		if strings.EqualFold(info.name, strings.TrimSpace(name)) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommandKind, name)
}

// CommandKindFromCode resolves a kind by its wire code
func CommandKindFromCode(code uint32) (CommandKind, error) {
	k, ok := codeTable[code]
	if !ok {
		return 0, fmt.Errorf("%w: code %d", ErrUnknownCommandKind, code)
	}
	return k, nil
}

// --------------------------------------------------------------------------
// Command Structure
// --------------------------------------------------------------------------

// Command is a single instruction sent to the peer.
// It is immutable once created; the client only reads it.
type Command struct {
	kind    CommandKind
	target  netip.Addr
	payload any
}

// NewCommand creates a new Command.
// A nil payload is sent as the absent sentinel of the payload serializer.
func NewCommand(kind CommandKind, target netip.Addr, payload any) Command {
	return Command{
		kind:    kind,
		target:  target,
		payload: payload,
	}
}

// Kind returns the kind of the command
func (c Command) Kind() CommandKind { return c.kind }

// Target returns the address descriptor of the command
func (c Command) Target() netip.Addr { return c.target }

// Payload returns the opaque payload, nil if absent
func (c Command) Payload() any { return c.payload }

// HasPayload reports whether a payload is present
func (c Command) HasPayload() bool { return c.payload != nil }

// TargetText returns the canonical text form of the target address.
// It fails with ErrInvalidAddress for the zero address.
func (c Command) TargetText() (string, error) {
	if !c.target.IsValid() {
		return "", ErrInvalidAddress
	}
	return c.target.String(), nil
}

// String returns a short human readable form, used for logging
func (c Command) String() string {
	target := "<invalid>"
	if c.target.IsValid() {
		target = c.target.String()
	}
	if c.payload == nil {
		return fmt.Sprintf("%s(%s)", c.kind, target)
	}
	return fmt.Sprintf("%s(%s, %T)", c.kind, target, c.payload)
}

// --------------------------------------------------------------------------
// Command Factory Functions
// --------------------------------------------------------------------------

// NewUserExitCommand creates a UserExit command without payload
func NewUserExitCommand(target netip.Addr) Command {
	return NewCommand(CmdKUserExit, target, nil)
}

// NewMessageCommand creates a Message command carrying a text payload
func NewMessageCommand(target netip.Addr, text string) Command {
	return NewCommand(CmdKMessage, target, text)
}

// NewLoginInformCommand announces a client login under the given name
func NewLoginInformCommand(target netip.Addr, name string) Command {
	return NewCommand(CmdKClientLoginInform, target, name)
}
