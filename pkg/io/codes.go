package io

import (
	"fmt"

	"boundedvote/pkg/abv"

	"golang.org/x/xerrors"
)

// CodeType enumerates the scannable codes exchanged during registration.
type CodeType int

const (
	RegistrationRequestQRType CodeType = iota
	BlankBallotQRType
)

func (ct CodeType) String() string {
	switch ct {
	case RegistrationRequestQRType:
		return "RegistrationRequest"
	case BlankBallotQRType:
		return "BlankBallot"
	default:
		return "Unknown"
	}
}

// Code is a message that can be rendered as a QR code and scanned back.
type Code interface {
	Type() CodeType
	Serialize() ([]byte, error)
	Deserialize(data []byte) error
}

// CodeStorage remembers where a written code can be read back from: a map
// key for Core hardware, a file path for Disk.
type CodeStorage interface {
	Save(codeType CodeType, location string)
	Load(codeType CodeType) string
}

// newCode returns an empty code of the given type for decoding.
func newCode(codeType CodeType) (Code, error) {
	switch codeType {
	case RegistrationRequestQRType:
		return &RegistrationRequestQR{}, nil
	case BlankBallotQRType:
		return &BlankBallotQR{}, nil
	default:
		return nil, xerrors.Errorf("unknown code type %v", codeType)
	}
}

// --- RegistrationRequestQR ---

// RegistrationRequestQR is shown by the voter to the coordinator.
type RegistrationRequestQR struct {
	Request *abv.RegistrationRequest
}

func (c *RegistrationRequestQR) Type() CodeType { return RegistrationRequestQRType }

func (c *RegistrationRequestQR) Serialize() ([]byte, error) {
	if c.Request == nil {
		return nil, xerrors.Errorf("empty registration request code: %w", abv.ErrParse)
	}
	return c.Request.MarshalBinary()
}

func (c *RegistrationRequestQR) Deserialize(data []byte) error {
	c.Request = &abv.RegistrationRequest{}
	return c.Request.UnmarshalBinary(data)
}

func (c *RegistrationRequestQR) String() string {
	return fmt.Sprintf("RegistrationRequestQR{%v}", c.Request != nil)
}

// --- BlankBallotQR ---

// BlankBallotQR carries the coordinator's signed blank ballot back to the voter.
type BlankBallotQR struct {
	Response *abv.RegistrationResponse
}

func (c *BlankBallotQR) Type() CodeType { return BlankBallotQRType }

func (c *BlankBallotQR) Serialize() ([]byte, error) {
	if c.Response == nil {
		return nil, xerrors.Errorf("empty blank ballot code: %w", abv.ErrParse)
	}
	return c.Response.MarshalBinary()
}

func (c *BlankBallotQR) Deserialize(data []byte) error {
	c.Response = &abv.RegistrationResponse{}
	return c.Response.UnmarshalBinary(data)
}

func (c *BlankBallotQR) String() string {
	if c.Response == nil {
		return "BlankBallotQR{}"
	}
	return fmt.Sprintf("BlankBallotQR{Weight: %d}", c.Response.VoterWeight)
}
