// Package docclass defines the document class enumeration and the
// lookup table driving numbering and VAT behaviour per class.
package docclass

import (
	"fmt"
)

// Class identifies the kind of a document.
type Class string

const (
	Invoice    Class = "invoice"
	CreditNote Class = "credit_note"
	DebitNote  Class = "debit_note"
	Proforma   Class = "proforma"
)

// SequenceClass selects which per-tenant counter a number is drawn from.
// All tax-bearing classes share one sequence; proforma has its own.
type SequenceClass string

const (
	SequenceTax    SequenceClass = "TAX"
	SequenceNonTax SequenceClass = "NON_TAX"
)

// Info describes the static properties of a document class.
type Info struct {
	// Code is the short prefix used in human-readable references, e.g. "INV-0000000042".
	Code string

	// Label is the display name of the class.
	Label string

	// Sequence is the counter this class draws numbers from.
	Sequence SequenceClass

	// TaxBearing marks classes that require a VAT-event date.
	TaxBearing bool

	// SignInverting marks classes whose line quantities are negated
	// when derived from another document.
	SignInverting bool
}

var table = map[Class]Info{
	Invoice:    {Code: "INV", Label: "Invoice", Sequence: SequenceTax, TaxBearing: true},
	CreditNote: {Code: "CN", Label: "Credit note", Sequence: SequenceTax, TaxBearing: true, SignInverting: true},
	DebitNote:  {Code: "DN", Label: "Debit note", Sequence: SequenceTax, TaxBearing: true},
	Proforma:   {Code: "PF", Label: "Proforma", Sequence: SequenceNonTax},
}

// SequenceClasses lists every counter that must exist per tenant.
var SequenceClasses = []SequenceClass{SequenceTax, SequenceNonTax}

// ParseSequence validates a raw string and returns the matching
// sequence class.
func ParseSequence(s string) (SequenceClass, error) {
	for _, sc := range SequenceClasses {
		if s == string(sc) {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown sequence class %q", s)
}

// Parse validates a raw string and returns the matching class.
func Parse(s string) (Class, error) {
	c := Class(s)
	if _, ok := table[c]; !ok {
		return "", fmt.Errorf("unknown document class %q", s)
	}
	return c, nil
}

// IsValid reports whether c is a known document class.
func (c Class) IsValid() bool {
	_, ok := table[c]
	return ok
}

// Info returns the static properties of the class.
// Panics on unknown classes; validate with IsValid or Parse first.
func (c Class) Info() Info {
	info, ok := table[c]
	if !ok {
		panic(fmt.Sprintf("docclass: unknown class %q", string(c)))
	}
	return info
}

// Code returns the reference prefix for the class.
func (c Class) Code() string { return c.Info().Code }

// Sequence returns the sequence class the document number is drawn from.
func (c Class) Sequence() SequenceClass { return c.Info().Sequence }

// TaxBearing reports whether the class requires a VAT-event date.
func (c Class) TaxBearing() bool { return c.Info().TaxBearing }

// SignInverting reports whether derived line quantities are negated.
func (c Class) SignInverting() bool { return c.Info().SignInverting }
