package models

// Traveller weighting used when a booking is priced from an itinerary budget.
// A child pays half and an infant a quarter of the adult price.
const (
	ChildPriceRatio  = 0.5
	InfantPriceRatio = 0.25
)

type Pricing struct {
	BasePrice float64 `bson:"base_price" json:"base_price" validate:"gte=0"`
	Taxes     float64 `bson:"taxes" json:"taxes" validate:"gte=0"`
	Fees      float64 `bson:"fees" json:"fees" validate:"gte=0"`
	Discount  float64 `bson:"discount" json:"discount" validate:"gte=0"`
	Total     float64 `bson:"total" json:"total"`
	Currency  string  `bson:"currency" json:"currency" validate:"omitempty,len=3"`
}

type Travelers struct {
	Adults   int `bson:"adults" json:"adults" validate:"gte=1,lte=20"`
	Children int `bson:"children" json:"children" validate:"gte=0,lte=20"`
	Infants  int `bson:"infants" json:"infants" validate:"gte=0,lte=10"`
}

// CalculateTotal returns basePrice + taxes + fees - discount. The discount is
// not capped, so the result can go negative.
func CalculateTotal(p Pricing) float64 {
	return p.BasePrice + p.Taxes + p.Fees - p.Discount
}

// TravellerPrice prices a party of travellers against a per-adult amount.
func TravellerPrice(perAdult float64, t Travelers) float64 {
	return perAdult*float64(t.Adults) +
		perAdult*ChildPriceRatio*float64(t.Children) +
		perAdult*InfantPriceRatio*float64(t.Infants)
}
