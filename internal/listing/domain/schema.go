package domain

// InputKind tells a form renderer which control to use for a field.
type InputKind string

const (
	InputText     InputKind = "text"
	InputTextArea InputKind = "textarea"
	InputNumber   InputKind = "number"
	InputSelect   InputKind = "select"
	InputDate     InputKind = "date"
)

// Unselected is the placeholder value of a select control. An empty
// string is treated the same way.
const Unselected = "select"

func IsUnselected(v string) bool {
	return v == "" || v == Unselected
}

// FieldDescriptor describes one category-specific form field. Key is both
// the form-state key and the persisted attribute name.
type FieldDescriptor struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Input       InputKind `json:"input"`
	Placeholder string    `json:"placeholder"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
	Filterable  bool      `json:"filterable"`
}

type Schema struct {
	ListingType            ListingType       `json:"listingType"`
	Title                  string            `json:"title"`
	NamePlaceholder        string            `json:"namePlaceholder"`
	DescriptionPlaceholder string            `json:"descriptionPlaceholder"`
	PriceLabel             string            `json:"priceLabel"`
	PricePlaceholder       string            `json:"pricePlaceholder"`
	LocationPlaceholder    string            `json:"locationPlaceholder"`
	PriceRequired          bool              `json:"priceRequired"`
	CurrencyRequired       bool              `json:"currencyRequired"`
	Categories             []string          `json:"categories"`
	Currencies             []string          `json:"currencies"`
	Fields                 []FieldDescriptor `json:"fields"`
}

// CommonKeys are the form keys every listing type shares.
var CommonKeys = []string{KeyName, KeyDescription, KeyPrice, KeyCurrency, KeyLocation, KeyCategory}

var currencies = []string{"USD", "EUR", "GBP", "KZT"}

var schemas = map[ListingType]Schema{
	TypeApartments: {
		ListingType:            TypeApartments,
		Title:                  "Apartment",
		NamePlaceholder:        "e.g. Bright two-room flat near the park",
		DescriptionPlaceholder: "Describe the apartment, building and neighbourhood",
		PriceLabel:             "Rent / price",
		PricePlaceholder:       "Enter the price",
		LocationPlaceholder:    "Street, district, city",
		PriceRequired:          true,
		CurrencyRequired:       true,
		Categories:             []string{"Apartment", "House", "Room", "Studio"},
		Fields: []FieldDescriptor{
			{Key: "bedrooms", Label: "Bedrooms", Input: InputNumber, Placeholder: "Number of bedrooms", Required: true, Filterable: true},
			{Key: "bathrooms", Label: "Bathrooms", Input: InputNumber, Placeholder: "Number of bathrooms", Required: true, Filterable: true},
			{Key: "paymentType", Label: "Payment type", Input: InputSelect, Required: true, Options: []string{"Monthly", "Daily", "Sale"}, Filterable: true},
			{Key: "area", Label: "Area, m²", Input: InputNumber, Placeholder: "Total area"},
			{Key: "floor", Label: "Floor", Input: InputNumber, Placeholder: "Floor"},
			{Key: "furnished", Label: "Furnished", Input: InputSelect, Options: []string{"Yes", "No"}, Filterable: true},
		},
	},
	TypeGoods: {
		ListingType:            TypeGoods,
		Title:                  "Goods",
		NamePlaceholder:        "e.g. Vintage watch",
		DescriptionPlaceholder: "Describe the item and its state",
		PriceLabel:             "Price",
		PricePlaceholder:       "Enter the price",
		LocationPlaceholder:    "Where can the buyer pick it up?",
		PriceRequired:          true,
		CurrencyRequired:       true,
		Categories:             []string{"Electronics", "Clothing", "Furniture", "Accessories", "Other"},
		Fields: []FieldDescriptor{
			{Key: "condition", Label: "Condition", Input: InputSelect, Required: true, Options: []string{"New", "Used", "Refurbished"}, Filterable: true},
			{Key: "brand", Label: "Brand", Input: InputText, Placeholder: "Brand or manufacturer", Filterable: true},
			{Key: "warranty", Label: "Warranty", Input: InputText, Placeholder: "Remaining warranty, if any"},
		},
	},
	TypeServices: {
		ListingType:            TypeServices,
		Title:                  "Service",
		NamePlaceholder:        "e.g. Apartment cleaning",
		DescriptionPlaceholder: "What do you offer and how do you work?",
		PriceLabel:             "Rate",
		PricePlaceholder:       "Enter your rate",
		LocationPlaceholder:    "Where do you provide the service?",
		PriceRequired:          true,
		CurrencyRequired:       true,
		Categories:             []string{"Cleaning", "Repair", "Tutoring", "Beauty", "Other"},
		Fields: []FieldDescriptor{
			{Key: "paymentType", Label: "Payment type", Input: InputSelect, Required: true, Options: []string{"Hourly", "Fixed", "Negotiable"}, Filterable: true},
			{Key: "serviceArea", Label: "Service area", Input: InputText, Placeholder: "Districts or cities covered", Required: true, Filterable: true},
			{Key: "experience", Label: "Experience", Input: InputText, Placeholder: "Years of experience"},
			{Key: "availability", Label: "Availability", Input: InputText, Placeholder: "e.g. weekdays after 6pm"},
		},
	},
	TypeRequests: {
		ListingType:            TypeRequests,
		Title:                  "Request",
		NamePlaceholder:        "e.g. Looking for a bicycle",
		DescriptionPlaceholder: "Describe what you are looking for",
		PriceLabel:             "Budget",
		PricePlaceholder:       "Optional budget",
		LocationPlaceholder:    "Where do you need it?",
		PriceRequired:          false,
		CurrencyRequired:       false,
		Categories:             []string{"Housing", "Goods", "Services", "Other"},
		Fields: []FieldDescriptor{
			{Key: "deadline", Label: "Needed by", Input: InputDate, Placeholder: "YYYY-MM-DD"},
			{Key: "preferredContact", Label: "Preferred contact", Input: InputSelect, Options: []string{"Phone", "Email", "Chat"}},
		},
	},
}

// SchemaFor returns the form schema of a listing type. Unknown types get
// the requests schema. The result is a copy and may be modified.
func SchemaFor(t ListingType) Schema {
	s, ok := schemas[t]
	if !ok {
		s = schemas[TypeRequests]
	}
	return s.clone()
}

func (s Schema) clone() Schema {
	out := s
	out.Categories = append([]string(nil), s.Categories...)
	out.Currencies = append([]string(nil), currencies...)
	out.Fields = make([]FieldDescriptor, len(s.Fields))
	for i, f := range s.Fields {
		f.Options = append([]string(nil), f.Options...)
		out.Fields[i] = f
	}
	return out
}

func (s Schema) Field(key string) (FieldDescriptor, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// FormKeys returns the common keys followed by the schema's own field keys.
func (s Schema) FormKeys() []string {
	keys := append([]string(nil), CommonKeys...)
	for _, f := range s.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

func (s Schema) RequiredKeys() []string {
	var keys []string
	for _, f := range s.Fields {
		if f.Required {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

func (s Schema) FilterableKeys() []string {
	keys := []string{KeyCategory}
	if s.CurrencyRequired {
		keys = append(keys, KeyCurrency)
	}
	for _, f := range s.Fields {
		if f.Filterable {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

// AllowsCategory reports whether v is one of the schema's categories.
func (s Schema) AllowsCategory(v string) bool { return contains(s.Categories, v) }

func (s Schema) AllowsCurrency(v string) bool { return contains(s.Currencies, v) }
