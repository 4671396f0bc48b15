package flows

import (
	"testing"

	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
	"golang.org/x/text/language"
)

func TestErrorSetSetReplacesInPlace(t *testing.T) {
	var set ErrorSet
	set.Set(0, FieldDate, i18n.New(i18n.KeyInvalidDate))
	set.Set(0, FieldCashFlow, i18n.New(i18n.KeyInvalidAmount))
	set.Set(1, FieldDate, i18n.New(i18n.KeyInvalidDate))
	set.Set(0, FieldDate, i18n.New(i18n.KeyFillPreviousRow))

	list := set.List()
	if len(list) != 3 {
		t.Fatalf("List() length = %d, expected 3", len(list))
	}
	if list[0].Row != 0 || list[0].Field != FieldDate || list[0].Msg.Key != i18n.KeyFillPreviousRow {
		t.Errorf("first entry = %+v, expected replaced date error for row 0", list[0])
	}
	if list[1].Field != FieldCashFlow || list[2].Row != 1 {
		t.Errorf("other entries moved: %+v", list)
	}
}

func TestErrorSetClear(t *testing.T) {
	var set ErrorSet
	set.Set(0, FieldDate, i18n.New(i18n.KeyInvalidDate))
	set.Set(0, FieldCashFlow, i18n.New(i18n.KeyInvalidAmount))

	set.Clear(0, FieldDate)
	set.Clear(5, FieldDate)

	if set.Len() != 1 {
		t.Fatalf("Len() = %d, expected 1", set.Len())
	}
	if _, ok := set.Get(0, FieldCashFlow); !ok {
		t.Error("cash flow error should remain")
	}
	if _, ok := set.Get(0, FieldDate); ok {
		t.Error("date error should be gone")
	}

	set.Reset()
	if set.Len() != 0 {
		t.Errorf("Len() after Reset = %d", set.Len())
	}
}

func TestErrorSetListIsCopy(t *testing.T) {
	var set ErrorSet
	set.Set(0, FieldDate, i18n.New(i18n.KeyInvalidDate))
	list := set.List()
	list[0].Row = 9
	if e, _ := set.Get(0, FieldDate); e.Row != 0 {
		t.Error("List() exposed internal state")
	}
}

func TestFieldErrorMessage(t *testing.T) {
	e := FieldError{Row: 0, Field: FieldCashFlow, Msg: i18n.New(i18n.KeyInvalidAmount)}
	if got := e.Message(language.Ukrainian); got != "Введіть додатнє число" {
		t.Errorf("Message(uk) = %q", got)
	}
}
