package emit

import "testing"

func TestMangleEscapesSpecializerBrackets(t *testing.T) {
	if got, want := Mangle("List<<Int32>>"), "List_Int32"; got != want {
		t.Errorf("Mangle(%q) = %q, want %q", "List<<Int32>>", got, want)
	}
}

func TestMangleEscapesOperatorName(t *testing.T) {
	// the trailing '+' collapses to '_', which Trim then strips as a
	// trailing separator rather than keeping it as a name character.
	if got, want := Mangle("operator+"), "operator"; got != want {
		t.Errorf("Mangle(operator+) = %q, want %q", got, want)
	}
}

func TestMangleEscapesQualifiedName(t *testing.T) {
	if got, want := Mangle("Outer::Inner"), "Outer_Inner"; got != want {
		t.Errorf("Mangle(Outer::Inner) = %q, want %q", got, want)
	}
}

func TestMangleLeavesPlainIdentifierAlone(t *testing.T) {
	if got, want := Mangle("Counter"), "Counter"; got != want {
		t.Errorf("Mangle(Counter) = %q, want %q", got, want)
	}
}

func TestMangleEmptyBecomesUnderscore(t *testing.T) {
	if got, want := Mangle("<<>>"), "_"; got != want {
		t.Errorf("Mangle(<<>>) = %q, want %q", got, want)
	}
}

func TestMangleLeadingDigitGetsPrefixed(t *testing.T) {
	if got, want := Mangle("3D"), "_3D"; got != want {
		t.Errorf("Mangle(3D) = %q, want %q", got, want)
	}
}

func TestNameHelpersPrefixConsistently(t *testing.T) {
	if got, want := TypeStructName("Counter"), "Rogue_Counter"; got != want {
		t.Errorf("TypeStructName = %q, want %q", got, want)
	}
	if got, want := VTableName("Counter"), "RogueVTable_Counter"; got != want {
		t.Errorf("VTableName = %q, want %q", got, want)
	}
	if got, want := TraceFuncName("Counter"), "RogueTrace_Counter"; got != want {
		t.Errorf("TraceFuncName = %q, want %q", got, want)
	}
	if got, want := TypeInfoName("Counter"), "RogueTypeInfo_Counter"; got != want {
		t.Errorf("TypeInfoName = %q, want %q", got, want)
	}
	if got, want := MethodFuncName("Counter", "increment", 0), "Rogue_Counter__increment"; got != want {
		t.Errorf("MethodFuncName = %q, want %q", got, want)
	}
}
