package vm

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Xe is an element of the cubic extension field F_p[X]/(X^3 - X + 1), stored
// as its coefficients (c0, c1, c2) in c0 + c1*X + c2*X^2. Every xx_*/xb_mul
// instruction operates on triples of base-field stack slots through this
// type rather than juggling three loose field.Element values inline.
type Xe struct {
	C0, C1, C2 field.Element
}

// NewXe builds an extension element from its three base-field coefficients.
func NewXe(c0, c1, c2 field.Element) Xe {
	return Xe{C0: c0, C1: c1, C2: c2}
}

// XeZero is the additive identity of the extension field.
var XeZero = Xe{C0: field.Zero, C1: field.Zero, C2: field.Zero}

// XeOne is the multiplicative identity of the extension field.
var XeOne = Xe{C0: field.One, C1: field.Zero, C2: field.Zero}

// IsZero reports whether every coefficient vanishes.
func (a Xe) IsZero() bool {
	return a.C0.IsZero() && a.C1.IsZero() && a.C2.IsZero()
}

// Add is component-wise addition.
func (a Xe) Add(b Xe) Xe {
	return Xe{a.C0.Add(b.C0), a.C1.Add(b.C1), a.C2.Add(b.C2)}
}

// Mul reduces (a0+a1*X+a2*X^2)(b0+b1*X+b2*X^2) modulo X^3 - X + 1, using the
// reduction rule X^3 = X - 1.
func (a Xe) Mul(b Xe) Xe {
	// Schoolbook product in degree up to 4, then fold X^3 and X^4 down.
	d0 := a.C0.Mul(b.C0)
	d1 := a.C0.Mul(b.C1).Add(a.C1.Mul(b.C0))
	d2 := a.C0.Mul(b.C2).Add(a.C1.Mul(b.C1)).Add(a.C2.Mul(b.C0))
	d3 := a.C1.Mul(b.C2).Add(a.C2.Mul(b.C1))
	d4 := a.C2.Mul(b.C2)

	// X^3 = X - 1  =>  contributes -d3 to the constant term, +d3 to X^1.
	// X^4 = X*X^3 = X^2 - X  =>  contributes -d4 to X^1, +d4 to X^2.
	r0 := d0.Sub(d3)
	r1 := d1.Add(d3).Sub(d4)
	r2 := d2.Add(d4)
	return Xe{r0, r1, r2}
}

// BMul scales an extension element by a base-field scalar.
func (a Xe) BMul(scalar field.Element) Xe {
	return Xe{a.C0.Mul(scalar), a.C1.Mul(scalar), a.C2.Mul(scalar)}
}

// Inverse computes a^-1 by solving M*x = (1,0,0) where M is the matrix of
// "multiply by a" in the power basis {1, X, X^2}; this is the standard
// linear-algebra route to cubic-extension inversion and needs no assumption
// about a's structure beyond a != 0.
func (a Xe) Inverse() (Xe, error) {
	if a.IsZero() {
		return Xe{}, fmt.Errorf("cannot invert zero extension field element")
	}

	m00, m01, m02 := a.C0, a.C2.Neg(), a.C1.Neg()
	m10, m11, m12 := a.C1, a.C0.Add(a.C2), a.C1.Sub(a.C2)
	m20, m21, m22 := a.C2, a.C1, a.C0.Add(a.C2)

	c00 := m11.Mul(m22).Sub(m12.Mul(m21))
	c01 := m10.Mul(m22).Sub(m12.Mul(m20)).Neg()
	c02 := m10.Mul(m21).Sub(m11.Mul(m20))

	det := m00.Mul(c00).Add(m01.Mul(c01)).Add(m02.Mul(c02))
	if det.IsZero() {
		return Xe{}, fmt.Errorf("extension field element has zero determinant")
	}
	detInv := det.Inverse()

	return Xe{c00.Mul(detInv), c01.Mul(detInv), c02.Mul(detInv)}, nil
}

// Words returns the coefficients in stack order (c0 below c1 below c2, i.e.
// c2 on top), matching how xx_add/xx_mul/x_invert read and write ST0..ST2.
func (a Xe) Words() [3]field.Element {
	return [3]field.Element{a.C0, a.C1, a.C2}
}
