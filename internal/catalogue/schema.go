package catalogue

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"odil-be/internal/product"
	"odil-be/internal/variant"
)

type FieldType string

const (
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiselect"
	FieldText        FieldType = "text"
	FieldNumber      FieldType = "number"
	FieldCheckbox    FieldType = "checkbox"
	FieldPhoneModels FieldType = "phoneModels"
)

// Field describes one input of the owner product form.
type Field struct {
	Key           string    `json:"key"`
	Label         string    `json:"label"`
	Type          FieldType `json:"type"`
	Options       []string  `json:"options,omitempty"`
	AllowedBrands []string  `json:"allowedBrands,omitempty"`
	Placeholder   string    `json:"placeholder,omitempty"`
}

// Schema is the form layout for one category plus its derivation rules.
type Schema struct {
	Category string  `json:"category"`
	Must     []Field `json:"must"`
	Also     []Field `json:"also"`
	Optional []Field `json:"optional"`

	name  func(FormValues) string
	specs func(FormValues) []string
}

func (s Schema) fields() []Field {
	return slices.Concat(s.Must, s.Also, s.Optional)
}

// FormValues holds raw form input keyed by field key. Values are strings,
// string lists, numbers or booleans as decoded from JSON.
type FormValues map[string]any

// String returns the value as text, or the first element of a list.
func (v FormValues) String(key string) string {
	switch x := v[key].(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "true"
		}
		return ""
	case []string:
		if len(x) > 0 {
			return strings.TrimSpace(x[0])
		}
	case []any:
		if len(x) > 0 {
			return strings.TrimSpace(fmt.Sprint(x[0]))
		}
	}
	return ""
}

// List returns the value as a list; a scalar becomes a one-element list.
func (v FormValues) List(key string) []string {
	var out []string
	switch x := v[key].(type) {
	case []string:
		out = slices.Clone(x)
	case []any:
		for _, e := range x {
			if e != nil {
				out = append(out, fmt.Sprint(e))
			}
		}
	default:
		if s := v.String(key); s != "" {
			out = []string{s}
		}
	}
	return out
}

// Checked reports whether a checkbox value is set.
func (v FormValues) Checked(key string) bool {
	switch x := v[key].(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	}
	return false
}

// Categories with a form schema.
const (
	CategoryPhoneScreens     = "Phone Screens"
	CategoryBackGlass        = "Back Glass"
	CategoryPowerBanks       = "Power Banks"
	CategoryScreenProtectors = "Screen Protectors"
	CategoryBatteries        = "Batteries"
	CategoryMobilePhones     = "Mobile Phones"
	CategoryTablets          = "Tablets"
	CategoryPhoneCases       = "Phone Cases"
	CategoryCables           = "Cables"
	CategoryChargers         = "Chargers"
	CategoryEarphones        = "Earphones"
	CategoryChargingPorts    = "Charging Ports"
	CategoryFaceID           = "Face ID"
)

// PhoneBrands are the brand buckets offered by phone model pickers.
var PhoneBrands = []string{"iPhone", "Samsung S", "Samsung A"}

var (
	qualityGrade       = []string{"Original", "OEM", "AAA", "Aftermarket", "Refurb"}
	caseMaterials      = []string{"TPU", "Silicone", "PC", "Leather"}
	caseColors         = []string{"Black", "White", "Navy", "Clear", "Red", "Lavender", "Stone", "Midnight", "Starlight", "Blue", "Green", "Gold"}
	protectorMaterials = []string{"Tempered", "Hydrogel"}
	protectorFinish    = []string{"Clear", "Matte", "Privacy"}
	protectorPacks     = []string{"1-Pack", "2-Pack"}
	coverage           = []string{"Edge-to-edge", "Full glue"}
	connectors         = []string{"USB-C ↔ USB-C", "USB-C ↔ Lightning", "USB-A ↔ Micro-USB"}
	lengths            = []string{"0.5m", "1m", "2m"}
	powerRatings       = []string{"27W", "60W", "100W"}
	certs              = []string{"MFi", "USB-IF"}
	durability         = []string{"Standard", "Braided", ">10k bends"}
	chargerWattage     = []string{"20W", "30W", "45W", "65W"}
	chargerPorts       = []string{"1×USB-C", "1×USB-A", "1×USB-C + 1×USB-A", "2×USB-C"}
	standards          = []string{"PD 3.0", "PPS", "QC 3.0", "QC 4+"}
	plugTypes          = []string{"UK 3-pin", "EU", "US"}
	phoneGrade         = []string{"New", "Refurb", "Used A", "Used B"}
	simOptions         = []string{"Unlocked", "Locked", "Dual-SIM Yes", "Dual-SIM No"}
	connMobile         = []string{"5G", "4G"}
	connTablet         = []string{"Wi-Fi", "Wi-Fi + Cellular"}
	storageOptions     = []string{"32GB", "64GB", "128GB", "256GB", "512GB", "1TB"}
	ramOptions         = []string{"3GB", "4GB", "6GB", "8GB", "12GB", "16GB"}
	powerCapacity      = []string{"10,000 mAh", "20,000 mAh"}
)

var phoneModels = Field{Key: "models", Label: "Phone models", Type: FieldPhoneModels}

func sel(key, label string, options []string) Field {
	return Field{Key: key, Label: label, Type: FieldSelect, Options: options}
}

func multi(key, label string, options []string) Field {
	return Field{Key: key, Label: label, Type: FieldMultiSelect, Options: options}
}

func text(key, label, placeholder string) Field {
	return Field{Key: key, Label: label, Type: FieldText, Placeholder: placeholder}
}

func checkbox(key, label string) Field {
	return Field{Key: key, Label: label, Type: FieldCheckbox}
}

func number(key, label string) Field {
	return Field{Key: key, Label: label, Type: FieldNumber}
}

// nonEmpty drops blank strings.
func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func ifChecked(v FormValues, key, label string) string {
	if v.Checked(key) {
		return label
	}
	return ""
}

func parenthesized(s string) string {
	if s == "" {
		return ""
	}
	return "(" + s + ")"
}

func titled(prefix string, parts ...string) string {
	return strings.TrimSpace(prefix + " — " + strings.Join(nonEmpty(parts...), " "))
}

var schemas = map[string]Schema{
	CategoryPhoneScreens: {
		Must: []Field{
			phoneModels,
			sel("display", "Display type/quality", []string{"OLED – OEM", "OLED – AAA", "LCD – OEM", "LCD – AAA"}),
			sel("frame", "Frame", []string{"With frame", "Without frame"}),
		},
		Also: []Field{
			sel("frontColor", "Front color", []string{"Black", "White"}),
			checkbox("retention", "True Tone/Face ID retention"),
		},
		Optional: []Field{checkbox("adhesive", "Pre-installed adhesive / waterproof gasket")},
		name: func(v FormValues) string {
			display, _, _ := strings.Cut(v.String("display"), " ")
			return titled("Screen", v.String("models"), display)
		},
		specs: func(v FormValues) []string {
			return nonEmpty(v.String("display"), v.String("frame"), v.String("frontColor"))
		},
	},
	CategoryBackGlass: {
		Must: []Field{phoneModels, multi("colors", "Colors / finish", caseColors)},
		Also: []Field{
			checkbox("adhesive", "Adhesive pre-installed"),
			checkbox("rings", "With camera rings"),
		},
		Optional: []Field{sel("grade", "Quality grade", qualityGrade)},
		name:     func(v FormValues) string { return titled("Back Glass", v.String("models")) },
		specs: func(v FormValues) []string {
			return nonEmpty(v.String("colors"), v.String("grade"),
				ifChecked(v, "adhesive", "Adhesive"), ifChecked(v, "rings", "Camera rings"))
		},
	},
	CategoryPowerBanks: {
		Must:     []Field{sel("capacity", "Capacity", powerCapacity), sel("ports", "Output ports", chargerPorts)},
		Also:     []Field{sel("standard", "Standard", standards)},
		Optional: []Field{sel("colour", "Colour", caseColors)},
		name:     func(v FormValues) string { return titled("Power bank", v.String("capacity")) },
		specs: func(v FormValues) []string {
			return nonEmpty(v.String("capacity"), v.String("ports"), v.String("standard"))
		},
	},
	CategoryScreenProtectors: {
		Must: []Field{
			phoneModels,
			sel("material", "Material", protectorMaterials),
			sel("pack", "Pack", protectorPacks),
		},
		Also: []Field{sel("finish", "Finish", protectorFinish), sel("coverage", "Coverage", coverage)},
		name: func(v FormValues) string {
			return titled("Protector", v.String("models"), parenthesized(v.String("material")))
		},
		specs: func(v FormValues) []string {
			return nonEmpty(v.String("material"), v.String("finish"), v.String("coverage"))
		},
	},
	CategoryBatteries: {
		Must:     []Field{phoneModels, sel("grade", "Grade", qualityGrade)},
		Optional: []Field{text("capacity", "Capacity (mAh)", "e.g. 3000")},
		name:     func(v FormValues) string { return titled("Battery", v.String("models")) },
		specs:    func(v FormValues) []string { return nonEmpty(v.String("grade"), v.String("capacity")) },
	},
	CategoryMobilePhones: {
		Must: []Field{
			text("model", "Model", "e.g., iPhone 13"),
			sel("cond", "Condition/grade", phoneGrade),
			sel("sim", "SIM", simOptions),
		},
		Also: []Field{sel("connect", "Connectivity", connMobile), number("warranty", "Warranty (months)")},
		Optional: []Field{
			multi("storage", "Storage", storageOptions),
			multi("ram", "RAM", ramOptions),
			text("color", "Color", ""),
			text("inbox", "Accessories in box", "Cable, charger"),
		},
		name: func(v FormValues) string {
			return strings.TrimSpace(strings.Join(nonEmpty(v.String("model"), v.String("cond")), " "))
		},
		specs: func(v FormValues) []string {
			return nonEmpty(v.String("storage"), v.String("ram"), v.String("cond"), v.String("sim"), v.String("connect"))
		},
	},
	CategoryTablets: {
		Must: []Field{text("model", "Model", "iPad 10th Gen"), sel("conn", "Connectivity", connTablet)},
		Also: []Field{text("screen", "Screen size", `10.9"`), number("warranty", "Warranty (months)")},
		Optional: []Field{
			multi("storage", "Storage", storageOptions),
			multi("ram", "RAM", ramOptions),
			sel("cond", "Condition/grade", phoneGrade),
			text("color", "Color", ""),
			text("compat", "Pencil/keyboard compatibility", ""),
		},
		name: func(v FormValues) string {
			return strings.TrimSpace(strings.Join(nonEmpty(v.String("model"), v.String("conn")), " "))
		},
		specs: func(v FormValues) []string {
			return nonEmpty(v.String("storage"), v.String("ram"), v.String("conn"), v.String("screen"), v.String("cond"))
		},
	},
	CategoryPhoneCases: {
		Must:     []Field{phoneModels, sel("material", "Material", caseMaterials)},
		Also:     []Field{multi("color", "Color", caseColors)},
		Optional: []Field{text("pattern", "Pattern / style", "")},
		name: func(v FormValues) string {
			return titled("Case", v.String("models"), parenthesized(v.String("material")))
		},
		specs: func(v FormValues) []string { return nonEmpty(v.String("material"), v.String("color")) },
	},
	CategoryCables: {
		Must:     []Field{sel("connector", "Connector", connectors), sel("length", "Length", lengths)},
		Also:     []Field{sel("rating", "Power rating", powerRatings), sel("durability", "Durability", durability)},
		Optional: []Field{sel("cert", "Certs", certs)},
		name: func(v FormValues) string {
			return titled("Cable", v.String("connector"), parenthesized(v.String("length")))
		},
		specs: func(v FormValues) []string {
			return nonEmpty(v.String("connector"), v.String("length"), v.String("rating"))
		},
	},
	CategoryChargers: {
		Must:  []Field{sel("wattage", "Wattage", chargerWattage), sel("ports", "Ports", chargerPorts)},
		Also:  []Field{sel("standard", "Standard", standards), sel("plug", "Plug type", plugTypes)},
		name:  func(v FormValues) string { return titled("Charger", v.String("wattage")) },
		specs: func(v FormValues) []string { return nonEmpty(v.String("wattage"), v.String("ports")) },
	},
	CategoryEarphones: {
		Must:     []Field{sel("type", "Type", []string{"Wired", "TWS"})},
		Also:     []Field{sel("connector", "Connector / Standard", slices.Concat(connectors, standards))},
		Optional: []Field{sel("color", "Color", caseColors)},
		name:     func(v FormValues) string { return titled("Earphones", v.String("type")) },
		specs:    func(v FormValues) []string { return nonEmpty(v.String("type"), v.String("connector")) },
	},
	CategoryChargingPorts: {
		Must:     []Field{phoneModels, sel("type", "Port type", []string{"USB-C", "Lightning", "Micro-USB"})},
		Optional: []Field{checkbox("solderRequired", "Solder required")},
		name:     func(v FormValues) string { return titled("Charging port", v.String("models")) },
		specs: func(v FormValues) []string {
			return nonEmpty(v.String("type"), ifChecked(v, "solderRequired", "Solder"))
		},
	},
	CategoryFaceID: {
		Must: []Field{
			{Key: "models", Label: "Phone models", Type: FieldPhoneModels, AllowedBrands: []string{"iPhone"}},
			sel("service", "Service", []string{"Repair", "Replace", "Calibration"}),
		},
		name:  func(v FormValues) string { return titled("Face ID", v.String("models")) },
		specs: func(v FormValues) []string { return nonEmpty(v.String("service")) },
	},
}

const maxDerivedSpecs = 6

var (
	ErrUnknownCategory = errors.New("unknown product category")
	ErrInvalidDraft    = errors.New("invalid product draft")
)

// ValidationError lists every problem found in a draft.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid product draft: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidDraft }

// SchemaFor returns the form schema of a category.
func SchemaFor(category string) (Schema, error) {
	s, ok := schemas[category]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s.Category = category
	for _, fs := range []*[]Field{&s.Must, &s.Also, &s.Optional} {
		if *fs == nil {
			*fs = []Field{}
		}
	}
	return s, nil
}

// Draft is an owner's product form submission.
type Draft struct {
	Category    string         `json:"category"`
	Name        string         `json:"name"`
	SKU         string         `json:"sku"`
	Price       any            `json:"price"`
	Description string         `json:"description"`
	Images      []string       `json:"images"`
	Family      string         `json:"family"`
	ModelsBrand string         `json:"modelsBrand"`
	Values      FormValues     `json:"values"`
	Inventory   map[string]any `json:"inventory"`
	Prices      map[string]any `json:"priceOverrides"`
}

// ValidateDraft checks the rules the form enforces before saving.
func ValidateDraft(d Draft) error {
	s, err := SchemaFor(d.Category)
	if err != nil {
		return err
	}

	var problems []string
	if price, ok := product.ParsePrice(d.Price); !ok || price <= 0 {
		problems = append(problems, "Price must be greater than 0")
	}
	for _, f := range s.Must {
		if f.Type == FieldPhoneModels && len(nonEmpty(d.Values.List(f.Key)...)) == 0 {
			problems = append(problems, "Please select at least one model")
		}
		if f.Key == "model" && d.Values.String(f.Key) == "" {
			problems = append(problems, "Model is required")
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// BuildProduct turns a validated draft into a new product. The caller assigns
// the id and fills a blank SKU.
func BuildProduct(d Draft) (product.Product, error) {
	s, err := SchemaFor(d.Category)
	if err != nil {
		return product.Product{}, err
	}

	name := strings.TrimSpace(d.Name)
	if name == "" || name == titled(d.Category) {
		name = s.name(d.Values)
	}
	if name == "" {
		name = d.Category + " item"
	}

	groups := variant.Groups{}
	push := func(label string, values []string) {
		values = uniqueValues(values)
		if len(values) > 0 {
			groups[label] = values
		}
	}
	for _, f := range s.fields() {
		label := normalizeLabel(f)
		if f.Type == FieldCheckbox {
			if d.Values.Checked(f.Key) {
				push(label, []string{"Yes"})
			}
			continue
		}
		push(label, d.Values.List(f.Key))
	}
	if brand := strings.TrimSpace(d.ModelsBrand); brand != "" {
		push("Phone", []string{brand})
	}

	specs := nonEmpty(s.specs(d.Values)...)
	if len(specs) > maxDerivedSpecs {
		specs = specs[:maxDerivedSpecs]
	}

	price, _ := product.ParsePrice(d.Price)
	return product.Product{
		Name:           name,
		SKU:            strings.TrimSpace(d.SKU),
		Category:       d.Category,
		Price:          price,
		Description:    strings.TrimSpace(d.Description),
		Images:         uniqueValues(d.Images),
		Specs:          specs,
		Family:         strings.TrimSpace(d.Family),
		Variants:       groups,
		PriceOverrides: product.NormalizePrices(d.Prices),
		Inventory:      product.NormalizeInventory(d.Inventory),
	}, nil
}

func normalizeLabel(f Field) string {
	if f.Key == "models" {
		return "Model"
	}
	switch strings.ToLower(strings.TrimSpace(f.Label)) {
	case "color", "colors", "colour":
		return "Color"
	}
	return strings.TrimSpace(f.Label)
}

func uniqueValues(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
