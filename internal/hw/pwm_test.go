package hw

import (
	"reflect"
	"testing"
)

func TestDefaultAllowList(t *testing.T) {
	allow := DefaultAllowList()

	for _, pin := range []int{2, 4, 5, 18, 33} {
		if !allow.Contains(pin) {
			t.Errorf("Contains(%d) = false, want true", pin)
		}
	}
	for _, pin := range []int{0, 1, 3, 20, 34, -1} {
		if allow.Contains(pin) {
			t.Errorf("Contains(%d) = true, want false", pin)
		}
	}
}

func TestNewPWMAllowList_SortsAndDedupes(t *testing.T) {
	allow := NewPWMAllowList(9, 3, 9, 1)
	if got, want := allow.Pins(), []int{1, 3, 9}; !reflect.DeepEqual(got, want) {
		t.Errorf("Pins() = %v, want %v", got, want)
	}

	empty := NewPWMAllowList()
	if empty.Contains(0) {
		t.Error("empty allow-list should not contain any pin")
	}
}
