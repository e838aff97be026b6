// Package testdomain holds the vehicle and color fixtures shared by tests.
package testdomain

import (
	"errors"
	"strings"
)

// Color is a named color.
type Color interface {
	Name() string
	SetName(name string)
}

// BasicColor is a Color with a fixed name, a wrapped color, or an assigned name.
type BasicColor struct {
	name     string
	inner    Color
	assigned string
}

// NewColor returns a color called name. name must not be blank.
func NewColor(name string) (*BasicColor, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("testdomain: color name is blank")
	}
	return &BasicColor{name: name}, nil
}

// NewColorFrom wraps c. c must not be nil.
func NewColorFrom(c Color) (*BasicColor, error) {
	if c == nil {
		return nil, errors.New("testdomain: wrapped color is nil")
	}
	return &BasicColor{inner: c}, nil
}

func (c *BasicColor) Name() string {
	switch {
	case c.inner != nil:
		return c.inner.Name()
	case c.name != "":
		return c.name
	default:
		return c.assigned
	}
}

// SetName replaces the name and drops any wrapped color.
func (c *BasicColor) SetName(name string) {
	c.assigned = name
	c.inner = nil
	c.name = ""
}

// Inner returns the wrapped color, if any.
func (c *BasicColor) Inner() Color { return c.inner }

type RedColor struct{ BasicColor }

func NewRedColor() *RedColor { return &RedColor{BasicColor{name: "Red"}} }

type BlackColor struct{ BasicColor }

func NewBlackColor() *BlackColor { return &BlackColor{BasicColor{name: "Black"}} }

type WhiteColor struct{ BasicColor }

func NewWhiteColor() *WhiteColor { return &WhiteColor{BasicColor{name: "White"}} }

// ColorScheme pairs a primary and a secondary color.
type ColorScheme interface {
	SchemeName() string
	PrimaryColor() Color
	SecondaryColor() Color
}

// BasicColorScheme is the default ColorScheme.
type BasicColorScheme struct {
	Name      string
	Primary   Color
	Secondary Color
}

func NewColorScheme(name string, primary, secondary Color) *BasicColorScheme {
	return &BasicColorScheme{Name: name, Primary: primary, Secondary: secondary}
}

func (s *BasicColorScheme) SchemeName() string    { return s.Name }
func (s *BasicColorScheme) PrimaryColor() Color   { return s.Primary }
func (s *BasicColorScheme) SecondaryColor() Color { return s.Secondary }

// Vehicle is implemented by Car and Truck.
type Vehicle interface {
	Brand() string
	ModelName() string
	Scheme() ColorScheme
}

// Car is the main fixture. Model has a setter, Make does not.
type Car struct {
	Make                  string
	Model                 string
	ColorScheme           ColorScheme
	EngineSizeCubicInches int
	Owner                 string
}

// NewCar returns a car with a white color scheme.
func NewCar() *Car {
	return &Car{ColorScheme: NewColorScheme("White", NewWhiteColor(), NewWhiteColor())}
}

func NewCarWithMakeModel(brand, model string) *Car {
	c := NewCar()
	c.Make = brand
	c.Model = model
	return c
}

func NewCarWithScheme(brand, model string, scheme ColorScheme) *Car {
	c := NewCarWithMakeModel(brand, model)
	c.ColorScheme = scheme
	return c
}

func (c *Car) Brand() string         { return c.Make }
func (c *Car) ModelName() string     { return c.Model }
func (c *Car) Scheme() ColorScheme   { return c.ColorScheme }
func (c *Car) SetModel(model string) { c.Model = model }

// InstallEngine sets the engine size.
func (c *Car) InstallEngine(cubicInches int) {
	c.EngineSizeCubicInches = cubicInches
}

// Register records the owner. It fails for a blank owner.
func (c *Car) Register(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return errors.New("testdomain: owner is blank")
	}
	c.Owner = owner
	return nil
}

// Truck is a Vehicle with a payload.
type Truck struct {
	Car
	PayloadTons int
}

func NewTruck() *Truck {
	return &Truck{Car: *NewCar(), PayloadTons: 2}
}

// BoringCar has no constructor and no fields worth injecting.
type BoringCar struct {
	Wheels int
}

// Fleet is a collection registration.
type Fleet []Vehicle

func NewFleet(a, b Vehicle) Fleet { return Fleet{a, b} }

// Garage depends on a vehicle resolved by the container.
type Garage struct {
	Vehicle Vehicle
	Color   Color
}

func NewGarage(v Vehicle) *Garage { return &Garage{Vehicle: v} }

func NewVehicles(a, b Vehicle) []Vehicle { return []Vehicle{a, b} }
