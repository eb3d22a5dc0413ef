// Package catalog holds the fixed set of marker categories.
package catalog

// Uncategorized is the pseudo category id for markers without a category.
const Uncategorized = "uncategorized"

// UncategorizedName is shown for markers without a known category.
const UncategorizedName = "Uncategorized"

// Category describes one marker category.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var categories = []Category{
	{ID: "restaurants", Name: "Restaurants", Icon: "🍽️", Description: "Dining establishments and restaurants"},
	{ID: "cafes-coffee", Name: "Cafés & Coffee", Icon: "☕", Description: "Coffee shops and cafés"},
	{ID: "bars-pubs", Name: "Bars & Pubs", Icon: "🍺", Description: "Bars, pubs, and drinking establishments"},
	{ID: "groceries-supermarkets", Name: "Groceries & Supermarkets", Icon: "🛒", Description: "Grocery stores and supermarkets"},
	{ID: "attractions-landmarks", Name: "Attractions & Landmarks", Icon: "🏛️", Description: "Tourist attractions and landmarks"},
	{ID: "public-transport", Name: "Public Transport", Icon: "🚇", Description: "Metro, train, tram, and bus stations"},
	{ID: "parking", Name: "Parking", Icon: "🅿️", Description: "Parking lots and garages"},
	{ID: "toilets-facilities", Name: "Toilets & Facilities", Icon: "🚻", Description: "Public restrooms and facilities"},
	{ID: "hotels-stays", Name: "Hotels & Stays", Icon: "🏨", Description: "Hotels and accommodation"},
	{ID: "parks-gardens", Name: "Parks & Gardens", Icon: "🌳", Description: "Parks, gardens, and green spaces"},
	{ID: "museums-galleries", Name: "Museums & Galleries", Icon: "🖼️", Description: "Museums and art galleries"},
	{ID: "shops-boutiques", Name: "Shops & Boutiques", Icon: "🛍️", Description: "Retail shops and boutiques"},
	{ID: "bakeries-desserts", Name: "Bakeries & Desserts", Icon: "🧁", Description: "Bakeries and dessert shops"},
	{ID: "pharmacies-health", Name: "Pharmacies & Health", Icon: "💊", Description: "Pharmacies and health services"},
	{ID: "atms-banks", Name: "ATMs & Banks", Icon: "🏦", Description: "ATMs and banking services"},
	{ID: "wifi-spots", Name: "Wi-Fi Spots", Icon: "📶", Description: "Free Wi-Fi locations"},
	{ID: "ev-charging-fuel", Name: "EV Charging & Fuel", Icon: "⚡", Description: "Electric vehicle charging and fuel stations"},
	{ID: "markets-delis", Name: "Markets & Delis", Icon: "🥖", Description: "Markets and delicatessens"},
	{ID: "street-food-trucks", Name: "Street Food & Food Trucks", Icon: "🚚", Description: "Street food and food trucks"},
	{ID: "playgrounds", Name: "Playgrounds", Icon: "🎠", Description: "Playgrounds and play areas"},
	{ID: "hikes-trails", Name: "Hikes & Trails", Icon: "🥾", Description: "Hiking trails and walking paths"},
	{ID: "sports-gyms", Name: "Sports & Gyms", Icon: "💪", Description: "Gyms and sports facilities"},
	{ID: "nightlife-clubs", Name: "Nightlife & Clubs", Icon: "🌙", Description: "Nightlife and clubs"},
	{ID: "theatres-cinemas", Name: "Theatres & Cinemas", Icon: "🎭", Description: "Theatres and cinemas"},
}

var index = func() map[string]Category {
	m := make(map[string]Category, len(categories))
	for _, c := range categories {
		m[c.ID] = c
	}
	return m
}()

// All returns the categories in display order.
func All() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Lookup finds a category by id.
func Lookup(id string) (Category, bool) {
	c, ok := index[id]
	return c, ok
}

// Valid reports whether id names a known category.
func Valid(id string) bool {
	_, ok := Lookup(id)
	return ok
}

// Name returns the display name for id, or "Uncategorized".
func Name(id string) string {
	if c, ok := Lookup(id); ok {
		return c.Name
	}
	return UncategorizedName
}
