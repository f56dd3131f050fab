package dto

import (
	"fakturo/internal/core/apperror"
	"fakturo/internal/core/docclass"
)

// PeekResponse reports the next number a class would receive,
// without consuming it.
type PeekResponse struct {
	Class      string `json:"class"`
	NextNumber string `json:"nextNumber"`
}

// ResetSequenceRequest sets a per-tenant counter so that the next
// reservation returns value+1.
type ResetSequenceRequest struct {
	SequenceClass string `json:"sequenceClass" binding:"required"`
	Value         int64  `json:"value"`
}

// ToSequenceClass validates the requested sequence class.
func (r ResetSequenceRequest) ToSequenceClass() (docclass.SequenceClass, error) {
	sc, err := docclass.ParseSequence(r.SequenceClass)
	if err != nil {
		return "", apperror.NewValidation(err.Error()).
			WithDetail("field", "sequenceClass")
	}
	if r.Value < 0 {
		return "", apperror.NewValidation("value must not be negative").
			WithDetail("field", "value")
	}
	return sc, nil
}
