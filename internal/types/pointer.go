package types

import "fmt"

// PointerSize is the fixed byte width of a REF_TO pointer value on the
// target VM, which addresses its regions with 32-bit absolute addresses.
const PointerSize = 4

// PointerType is REF_TO base: a pointer to a value of the base type.
type PointerType struct {
	Base Type
}

func (p *PointerType) String() string { return fmt.Sprintf("REF_TO %s", p.Base.String()) }
func (p *PointerType) Size() int      { return PointerSize }
