package io

import "fmt"

// HandoffMaterials tracks the codes one voter exchanged with the
// coordinator and where each was written.
type HandoffMaterials struct {
	Request     *RegistrationRequestQR
	BlankBallot *BlankBallotQR

	locations map[CodeType]string
}

func NewHandoffMaterials() *HandoffMaterials {
	return &HandoffMaterials{locations: make(map[CodeType]string)}
}

func (m *HandoffMaterials) String() string {
	return fmt.Sprintf("HandoffMaterials{Request:%v, BlankBallot:%v, Locations:%v}", m.Request, m.BlankBallot, m.locations)
}

// Save implements CodeStorage.
func (m *HandoffMaterials) Save(codeType CodeType, location string) {
	m.locations[codeType] = location
}

// Load implements CodeStorage.
func (m *HandoffMaterials) Load(codeType CodeType) string {
	return m.locations[codeType]
}
