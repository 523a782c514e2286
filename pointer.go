package ffistruct

import "strconv"

// Address is a native address inside an address space. Zero is null.
type Address uint64

// IsNull reports whether the address is the null address.
func (a Address) IsNull() bool {
	return a == 0
}

func (a Address) String() string {
	return "0x" + strconv.FormatUint(uint64(a), 16)
}

// Addressable is implemented by values that already are a native address,
// such as a region handed out by an allocator.
type Addressable interface {
	Address() Address
}

// PointerConverter is implemented by values that can produce a native
// address on demand. ToPtr is invoked at most once per store and must
// return an Address or an Addressable.
type PointerConverter interface {
	ToPtr() any
}
