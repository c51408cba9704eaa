package validation

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/bigkaa/paint-catalog/internal/domain/model"
)

func validInput() model.PaintInput {
	return model.PaintInput{
		Brand:    "  Sherwin Williams ",
		Price:    "120.5",
		Color:    "#ff00aa",
		Quantity: "10",
	}
}

func TestValidate_Valid(t *testing.T) {
	if v := Validate(validInput()); !v.Valid() {
		t.Errorf("ожидался валидный ввод, нарушения: %v", v)
	}
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	v := Validate(model.PaintInput{
		Brand:    " ",
		Price:    "abc",
		Color:    "red",
		Quantity: "1.5",
	})

	if len(v) != 4 {
		t.Fatalf("нарушений = %d, ожидалось 4: %v", len(v), v)
	}
	want := map[string]string{
		FieldBrand:    CodeBrandRequired,
		FieldPrice:    CodePriceNotNumeric,
		FieldColor:    CodeColorInvalid,
		FieldQuantity: CodeQuantityNotInteger,
	}
	for field, code := range want {
		if v[field].Code != code {
			t.Errorf("%s: код = %q, ожидался %q", field, v[field].Code, code)
		}
	}
	wantFields := []string{FieldBrand, FieldColor, FieldPrice, FieldQuantity}
	if got := v.Fields(); !reflect.DeepEqual(got, wantFields) {
		t.Errorf("Fields() = %v, ожидалось %v", got, wantFields)
	}
}

func TestCheckBrand(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code string
	}{
		{"обычная марка", "Alba", ""},
		{"испанские буквы", "Pinturerías Ñandú", ""},
		{"цифры, дефис, точка", "Tersuave 3-en-1 Ltd.", ""},
		{"ровно 2 символа после trim", "  AB  ", ""},
		{"ровно 50 символов", strings.Repeat("a", 50), ""},
		{"пустая", "", CodeBrandRequired},
		{"только пробелы", "   \t", CodeBrandRequired},
		{"1 символ", "A", CodeBrandTooShort},
		{"51 символ", strings.Repeat("a", 51), CodeBrandTooLong},
		{"запрещённые символы", "Alba & Co", CodeBrandInvalidChars},
		{"кавычки", `"Alba"`, CodeBrandInvalidChars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viol, ok := CheckBrand(tt.in)
			if tt.code == "" {
				if !ok {
					t.Errorf("CheckBrand(%q) = %v, ожидался валидный результат", tt.in, viol)
				}
				return
			}
			if ok {
				t.Fatalf("CheckBrand(%q) — ожидалось нарушение %q", tt.in, tt.code)
			}
			if viol.Code != tt.code {
				t.Errorf("CheckBrand(%q) код = %q, ожидался %q", tt.in, viol.Code, tt.code)
			}
			if viol.Message == "" {
				t.Errorf("CheckBrand(%q) — пустое сообщение", tt.in)
			}
		})
	}
}

func TestCheckPrice_Range(t *testing.T) {
	// Валидно тогда и только тогда, когда 50 <= p <= 500
	for p := 0; p <= 600; p += 10 {
		_, ok := CheckPrice(strconv.Itoa(p))
		if want := p >= 50 && p <= 500; ok != want {
			t.Errorf("CheckPrice(%d) = %v, ожидалось %v", p, ok, want)
		}
	}

	tests := []struct {
		in   string
		code string
	}{
		{"50", ""},
		{"500", ""},
		{" 75 ", ""},
		{"1.2e2", ""},
		{"+120", ""},
		{".5e3", ""},
		{"49.99", CodePriceTooLow},
		{"500.01", CodePriceTooHigh},
		{"", CodePriceNotNumeric},
		{"NaN", CodePriceNotNumeric},
		{"Inf", CodePriceNotNumeric},
		{"12abc", CodePriceNotNumeric},
		{"0x1p6", CodePriceNotNumeric},
		{"0X64", CodePriceNotNumeric},
		{"1_00", CodePriceNotNumeric},
		{".", CodePriceNotNumeric},
	}
	for _, tt := range tests {
		viol, ok := CheckPrice(tt.in)
		if tt.code == "" {
			if !ok {
				t.Errorf("CheckPrice(%q) = %v, ожидался валидный результат", tt.in, viol)
			}
			continue
		}
		if ok || viol.Code != tt.code {
			t.Errorf("CheckPrice(%q) код = %q, ожидался %q", tt.in, viol.Code, tt.code)
		}
	}
}

func TestCheckColor(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"#FF0000", true},
		{"#abcdef", true},
		{"#AbC123", true},
		{"", false},
		{"FF0000", false},
		{"#FFF", false},
		{"#GG0000", false},
		{"#FF00000", false},
		{" #FF0000", false},
		{"#FF0000 ", false},
		{"\t#ff0000\n", false},
	}
	for _, tt := range tests {
		if _, ok := CheckColor(tt.in); ok != tt.want {
			t.Errorf("CheckColor(%q) = %v, ожидалось %v", tt.in, ok, tt.want)
		}
	}
}

func TestCheckQuantity(t *testing.T) {
	tests := []struct {
		in   string
		code string
	}{
		{"1", ""},
		{"400", ""},
		{"10.0", ""},
		{"0", CodeQuantityTooLow},
		{"401", CodeQuantityTooHigh},
		{"2.5", CodeQuantityNotInteger},
		{"diez", CodeQuantityNotNumeric},
		{"", CodeQuantityNotNumeric},
		{"0x10", CodeQuantityNotNumeric},
	}
	for _, tt := range tests {
		viol, ok := CheckQuantity(tt.in)
		if tt.code == "" {
			if !ok {
				t.Errorf("CheckQuantity(%q) = %v, ожидался валидный результат", tt.in, viol)
			}
			continue
		}
		if ok || viol.Code != tt.code {
			t.Errorf("CheckQuantity(%q) код = %q, ожидался %q", tt.in, viol.Code, tt.code)
		}
	}
}

func TestParse_Formats(t *testing.T) {
	rec, v := Parse(validInput())
	if !v.Valid() {
		t.Fatalf("неожиданные нарушения: %v", v)
	}

	want := model.PaintRecord{Brand: "Sherwin Williams", Price: 120.5, Color: "#FF00AA", Quantity: 10}
	if rec != want {
		t.Errorf("Parse() = %+v, ожидалось %+v", rec, want)
	}
}

func TestParse_ColorWithSpacesRejected(t *testing.T) {
	in := validInput()
	in.Color = " #ff00aa "

	rec, v := Parse(in)
	if v[FieldColor].Code != CodeColorInvalid {
		t.Errorf("нарушение цвета = %q, ожидалось %q", v[FieldColor].Code, CodeColorInvalid)
	}
	if rec != (model.PaintRecord{}) {
		t.Errorf("при нарушениях ожидалась пустая запись, получено %+v", rec)
	}
}

func TestParse_Invalid(t *testing.T) {
	in := validInput()
	in.Quantity = "0"

	rec, v := Parse(in)
	if v.Valid() {
		t.Fatal("ожидались нарушения")
	}
	if rec != (model.PaintRecord{}) {
		t.Errorf("при нарушениях ожидалась пустая запись, получено %+v", rec)
	}
	if _, ok := v[FieldQuantity]; !ok {
		t.Errorf("нет нарушения для %s: %v", FieldQuantity, v)
	}
}

func TestInputFromRecord(t *testing.T) {
	in := InputFromRecord(model.PaintRecord{ID: "7", Brand: "Alba", Price: 120, Color: "#00FF00", Quantity: 3})
	want := model.PaintInput{Brand: "Alba", Price: "120", Color: "#00FF00", Quantity: "3"}
	if in != want {
		t.Errorf("InputFromRecord() = %+v, ожидалось %+v", in, want)
	}

	// Запись из формы снова проходит валидацию
	if _, v := Parse(in); !v.Valid() {
		t.Errorf("неожиданные нарушения: %v", v)
	}
}
