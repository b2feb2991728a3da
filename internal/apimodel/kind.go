package apimodel

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind identifies the variant of an Item.
type Kind int

const (
	KindNone Kind = iota
	KindPackage
	KindEntryPoint
	KindNamespace
	KindClass
	KindInterface
	KindEnum
	KindEnumMember
	KindFunction
	KindMethod
	KindMethodSignature
	KindConstructor
	KindConstructSignature
	KindProperty
	KindPropertySignature
	KindVariable
	KindTypeAlias
	KindCallSignature
	KindIndexSignature
)

var kindNames = [...]string{
	KindNone:               "",
	KindPackage:            "Package",
	KindEntryPoint:         "EntryPoint",
	KindNamespace:          "Namespace",
	KindClass:              "Class",
	KindInterface:          "Interface",
	KindEnum:               "Enum",
	KindEnumMember:         "EnumMember",
	KindFunction:           "Function",
	KindMethod:             "Method",
	KindMethodSignature:    "MethodSignature",
	KindConstructor:        "Constructor",
	KindConstructSignature: "ConstructSignature",
	KindProperty:           "Property",
	KindPropertySignature:  "PropertySignature",
	KindVariable:           "Variable",
	KindTypeAlias:          "TypeAlias",
	KindCallSignature:      "CallSignature",
	KindIndexSignature:     "IndexSignature",
}

// ErrUnknownKind is returned when a doc model contains an item kind this
// package does not model.
var ErrUnknownKind = errors.New("unknown item kind")

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a doc-model kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name != "" && name == s {
			return Kind(k), nil
		}
	}
	return KindNone, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Capability is a bit set of the optional facets an item variant carries.
type Capability uint16

const (
	CapDocumented Capability = 1 << iota
	CapDeclared
	CapOptional
	CapStatic
	CapReleaseTag
	CapParameters
	CapReturnType
	CapPropertyType
	CapInitializer
	CapProtected
	CapReadonly
)

const declared = CapDocumented | CapDeclared | CapReleaseTag

var kindCaps = map[Kind]Capability{
	KindPackage:            CapDocumented,
	KindEntryPoint:         0,
	KindNamespace:          declared,
	KindClass:              declared,
	KindInterface:          declared,
	KindEnum:               declared,
	KindEnumMember:         declared | CapInitializer,
	KindFunction:           declared | CapParameters | CapReturnType,
	KindMethod:             declared | CapParameters | CapReturnType | CapOptional | CapStatic | CapProtected,
	KindMethodSignature:    declared | CapParameters | CapReturnType | CapOptional,
	KindConstructor:        declared | CapParameters | CapProtected,
	KindConstructSignature: declared | CapParameters | CapReturnType,
	KindProperty:           declared | CapPropertyType | CapOptional | CapStatic | CapProtected | CapReadonly,
	KindPropertySignature:  declared | CapPropertyType | CapOptional | CapReadonly,
	KindVariable:           declared | CapReadonly | CapInitializer,
	KindTypeAlias:          declared,
	KindCallSignature:      declared | CapParameters | CapReturnType,
	KindIndexSignature:     declared | CapParameters | CapReturnType | CapReadonly,
}

// Capabilities returns the facets carried by items of kind k.
func (k Kind) Capabilities() Capability {
	return kindCaps[k]
}

// ReleaseTag is the API-stability tag attached to declared items.
type ReleaseTag string

const (
	ReleaseNone     ReleaseTag = ""
	ReleaseInternal ReleaseTag = "Internal"
	ReleaseAlpha    ReleaseTag = "Alpha"
	ReleaseBeta     ReleaseTag = "Beta"
	ReleasePublic   ReleaseTag = "Public"
)
