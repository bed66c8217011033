package models

import "time"

// Branch is an academic branch/department students belong to.
type Branch struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}
