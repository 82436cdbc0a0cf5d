package proton

// Tag is the 3-bit type code written before every value on the wire.
type Tag uint8

const (
	TagNull Tag = iota
	TagString
	TagInt
	TagFloat
	TagBool
	TagPair
	TagList
	TagObject
)

// Wire field widths, in bits.
const (
	VersionBits    = 2
	TagBits        = 3
	LengthBits     = 16
	ShortFloatBits = 3
	IntWidthBits   = 2
	FloatModeBits  = 1
)

// Version is the only format version this package reads and writes.
const Version = 1

// MaxLength bounds string byte lengths and container cardinalities.
const MaxLength = 1<<LengthBits - 1

const (
	floatModeShort = 0
	floatModeIEEE  = 1

	// shortFloatMax is the exclusive bound on the decimal form of a short float.
	shortFloatMax = 1 << ShortFloatBits
)

type tagInfo struct {
	name      string
	primitive bool
	container bool
}

var tagTable = [1 << TagBits]tagInfo{
	TagNull:   {name: "null", primitive: true},
	TagString: {name: "string", primitive: true},
	TagInt:    {name: "int", primitive: true},
	TagFloat:  {name: "float", primitive: true},
	TagBool:   {name: "bool", primitive: true},
	TagPair:   {name: "pair"},
	TagList:   {name: "list", container: true},
	TagObject: {name: "object", container: true},
}

// String returns the tag name.
func (t Tag) String() string {
	if int(t) < len(tagTable) {
		return tagTable[t].name
	}
	return "unknown"
}

// IsPrimitive reports whether t introduces a leaf value.
func (t Tag) IsPrimitive() bool {
	return int(t) < len(tagTable) && tagTable[t].primitive
}

// IsContainer reports whether t introduces a list or object.
func (t Tag) IsContainer() bool {
	return int(t) < len(tagTable) && tagTable[t].container
}

// intWidths maps the 2-bit integer width selector to a bit width.
var intWidths = [1 << IntWidthBits]uint{8, 16, 32, 64}
