package models

import (
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// IBase is implemented by every document that embeds Base.
type IBase interface {
	GenIDIfEmpty()
	GenID()
	SetID(id utils.SixID)
	GetID() utils.SixID
}

type Base struct {
	ID utils.SixID `bson:"_id,omitempty" json:"id,omitempty"`
}

func (m *Base) GenIDIfEmpty() {
	if m.ID.IsZero() {
		m.GenID()
	}
}

func (m *Base) GenID() {
	m.ID = utils.NewSixID()
}

func (m *Base) SetID(id utils.SixID) {
	m.ID = id
}

func (m *Base) GetID() utils.SixID {
	return m.ID
}

func NewBase() Base {
	return Base{
		ID: utils.NewSixID(),
	}
}
