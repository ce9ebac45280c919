package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roguec/internal/parse"
)

func tmpl(name, kind string, bases ...string) *parse.Template {
	return &parse.Template{Name: name, Kind: kind, BaseTypes: bases}
}

// TestOrganizeAllMergesBasePropertiesAndOverridesMethods builds a small
// Animal -> Dog hierarchy by hand (no parser involved) and checks that
// OrganizeAll flattens bases, merges inherited properties, and wires an
// override chain with a stable dispatch slot shared by base and derived.
func TestOrganizeAllMergesBasePropertiesAndOverridesMethods(t *testing.T) {
	reg := NewOrganizer()

	animalBody := &parse.Body{
		Properties: []parse.PropertyDecl{{Name: "name", TypeName: "String"}},
		Methods:    []parse.MethodDecl{{Name: "speak", ReturnType: "String"}},
	}
	dogBody := &parse.Body{
		Properties: []parse.PropertyDecl{{Name: "breed", TypeName: "String"}},
		Methods:    []parse.MethodDecl{{Name: "speak", ReturnType: "String"}},
	}

	reg.DefineType(tmpl("Animal", "class"), animalBody)
	reg.DefineType(tmpl("Dog", "class", "Animal"), dogBody)

	require.Nil(t, reg.OrganizeAll())

	dog := reg.Lookup("Dog")
	animal := reg.Lookup("Animal")
	require.NotNil(t, dog)
	require.NotNil(t, animal)

	require.Len(t, dog.FlatBaseTypes, 1)
	assert.Same(t, animal, dog.FlatBaseTypes[0])

	require.Len(t, dog.Properties, 2)
	var names []string
	for _, p := range dog.Properties {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"name", "breed"}, names)

	dogSpeak := dog.MethodLookupBySignature("speak()")
	animalSpeak := animal.MethodLookupBySignature("speak()")
	require.NotNil(t, dogSpeak)
	require.NotNil(t, animalSpeak)

	assert.Same(t, animalSpeak, dogSpeak.OverriddenMethod)
	require.Len(t, animalSpeak.OverridingMethods, 1)
	assert.Same(t, dogSpeak, animalSpeak.OverridingMethods[0])
	assert.Equal(t, animalSpeak.Index, dogSpeak.Index, "an override must share its base's dispatch slot")
}

func TestOrganizeRejectsBaseCycle(t *testing.T) {
	reg := NewOrganizer()
	reg.DefineType(tmpl("A", "class", "B"), &parse.Body{})
	reg.DefineType(tmpl("B", "class", "A"), &parse.Body{})

	assert.NotNil(t, reg.OrganizeAll(), "expected a cycle diagnostic for A<->B bases")
}

func TestOrganizeRejectsUndefinedBase(t *testing.T) {
	reg := NewOrganizer()
	reg.DefineType(tmpl("Dog", "class", "Animal"), &parse.Body{})

	assert.NotNil(t, reg.OrganizeAll(), "expected a diagnostic for a base type that was never defined")
}

func TestOrganizeNarrowsRedeclaredPropertyType(t *testing.T) {
	reg := NewOrganizer()
	reg.DefineType(tmpl("Base", "class"), &parse.Body{
		Properties: []parse.PropertyDecl{{Name: "value"}},
	})
	reg.DefineType(tmpl("Derived", "class", "Base"), &parse.Body{
		Properties: []parse.PropertyDecl{{Name: "value", TypeName: "Integer"}},
	})

	require.Nil(t, reg.OrganizeAll())

	derived := reg.Lookup("Derived")
	var value *Property
	for _, p := range derived.Properties {
		if p.Name == "value" {
			value = p
		}
	}
	require.NotNil(t, value)
	assert.Equal(t, "Integer", value.DeclaredType)
}

func TestOrganizeAspectRecordsIncorporatingClasses(t *testing.T) {
	reg := NewOrganizer()
	reg.DefineType(tmpl("Comparable", "aspect"), &parse.Body{})
	reg.DefineType(tmpl("Item", "class", "Comparable"), &parse.Body{})

	require.Nil(t, reg.OrganizeAll())

	aspect := reg.Lookup("Comparable")
	item := reg.Lookup("Item")
	require.Len(t, aspect.IncorporatingClasses, 1)
	assert.Same(t, item, aspect.IncorporatingClasses[0])
}
