package model

import (
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
}

func NewTenant(id, name string) *Tenant {
	if id == "" {
		id = uuid.NewString()
	}
	return &Tenant{ID: id, Name: name, Active: true, CreatedAt: time.Now()}
}
