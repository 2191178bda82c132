package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaterialCategory is the product family of an RFQ item
type MaterialCategory string

const (
	CategoryPipe    MaterialCategory = "pipe"
	CategoryFlange  MaterialCategory = "flange"
	CategoryFitting MaterialCategory = "fitting"
	CategoryGrating MaterialCategory = "grating"
)

// CategoryAny matches every category on pricing rules
const CategoryAny = "ANY"

// IsValid reports whether c is a known category
func (c MaterialCategory) IsValid() bool {
	switch c {
	case CategoryPipe, CategoryFlange, CategoryFitting, CategoryGrating:
		return true
	}
	return false
}

// MaterialAttributes carries the category specific attributes of an item.
// Exactly one of the variant pointers is set and Kind names it.
type MaterialAttributes struct {
	Kind    MaterialCategory   `json:"kind"`
	Pipe    *PipeAttributes    `json:"pipe,omitempty"`
	Flange  *FlangeAttributes  `json:"flange,omitempty"`
	Fitting *FittingAttributes `json:"fitting,omitempty"`
	Grating *GratingAttributes `json:"grating,omitempty"`
}

// PipeAttributes follow ASME B36.10 sizing
type PipeAttributes struct {
	NominalSize   string          `json:"nominalSize"`
	Schedule      string          `json:"schedule"`
	OuterDiameter decimal.Decimal `json:"outerDiameterMm"`
	WallThickness decimal.Decimal `json:"wallThicknessMm"`
	Grade         string          `json:"grade"`
	LengthM       decimal.Decimal `json:"lengthM"`
}

// FlangeAttributes follow ASME B16.5 sizing
type FlangeAttributes struct {
	NominalSize   string `json:"nominalSize"`
	PressureClass string `json:"pressureClass"`
	FlangeType    string `json:"flangeType"`
	Facing        string `json:"facing"`
	Grade         string `json:"grade"`
}

type FittingAttributes struct {
	FittingType string `json:"fittingType"`
	NominalSize string `json:"nominalSize"`
	Schedule    string `json:"schedule"`
	Grade       string `json:"grade"`
}

type GratingAttributes struct {
	BearingBar   string          `json:"bearingBar"`
	PanelWidthM  decimal.Decimal `json:"panelWidthM"`
	PanelLengthM decimal.Decimal `json:"panelLengthM"`
	Finish       string          `json:"finish"`
}

// ValidateFor checks that the populated variant matches category
func (a MaterialAttributes) ValidateFor(category MaterialCategory) error {
	if a.Kind != category {
		return fmt.Errorf("%w: attributes kind %q does not match category %q", ErrValidation, a.Kind, category)
	}

	set := 0
	for _, present := range []bool{a.Pipe != nil, a.Flange != nil, a.Fitting != nil, a.Grating != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: exactly one attribute variant must be set, got %d", ErrValidation, set)
	}

	var ok bool
	switch a.Kind {
	case CategoryPipe:
		ok = a.Pipe != nil && a.Pipe.NominalSize != ""
	case CategoryFlange:
		ok = a.Flange != nil && a.Flange.NominalSize != "" && a.Flange.PressureClass != ""
	case CategoryFitting:
		ok = a.Fitting != nil && a.Fitting.FittingType != ""
	case CategoryGrating:
		ok = a.Grating != nil && a.Grating.BearingBar != ""
	}
	if !ok {
		return fmt.Errorf("%w: incomplete %s attributes", ErrValidation, a.Kind)
	}
	return nil
}
