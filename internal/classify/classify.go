package classify

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Category is a grocery category id. Values are the canonical, lower-case ids
// used in asset keys and in the items table.
type Category string

const (
	Produce   Category = "produce"
	Dairy     Category = "dairy"
	Meat      Category = "meat"
	Seafood   Category = "seafood"
	Bakery    Category = "bakery"
	Frozen    Category = "frozen"
	Pantry    Category = "pantry"
	Beverages Category = "beverages"
	Other     Category = "other"
)

// AllCategories returns all valid categories in canonical order.
func AllCategories() []Category {
	return []Category{Produce, Dairy, Meat, Seafood, Bakery, Frozen, Pantry, Beverages, Other}
}

var displayNames = map[Category]string{
	Produce:   "Fruits & Vegetables",
	Dairy:     "Dairy & Eggs",
	Meat:      "Meat",
	Seafood:   "Fish & Seafood",
	Bakery:    "Bread & Bakery",
	Frozen:    "Frozen",
	Pantry:    "Pantry",
	Beverages: "Drinks",
	Other:     "Other",
}

// DisplayName returns the human label for a category.
func (c Category) DisplayName() string {
	if name, ok := displayNames[c]; ok {
		return name
	}
	return string(c)
}

var categoryKeywords = map[Category][]string{
	Produce: {
		"apple", "banana", "berry", "berries", "lettuce", "spinach", "tomato",
		"carrot", "onion", "potato", "pepper", "avocado", "lemon", "lime",
		"orange", "grape", "cucumber", "broccoli", "kale", "herb", "basil",
		"mushroom", "zucchini", "pear", "peach", "salad",
	},
	Dairy: {
		"milk", "cheese", "yogurt", "yoghurt", "butter", "cream", "egg",
		"eggs", "kefir", "mozzarella", "cheddar", "parmesan", "feta",
		"sour cream", "cottage cheese",
	},
	Meat: {
		"chicken", "beef", "pork", "lamb", "turkey", "bacon", "sausage",
		"ham", "steak", "mince", "ground beef", "salami",
	},
	Seafood: {
		"fish", "salmon", "tuna", "cod", "shrimp", "prawn", "crab", "lobster",
		"mussel", "oyster", "sardine", "trout",
	},
	Bakery: {
		"bread", "bagel", "croissant", "bun", "roll", "baguette", "muffin",
		"tortilla", "pita", "cake", "sourdough",
	},
	Frozen: {
		"frozen", "ice cream", "popsicle", "pizza", "fries", "nuggets",
	},
	Pantry: {
		"rice", "pasta", "flour", "sugar", "oil", "vinegar", "cereal",
		"oats", "beans", "lentils", "sauce", "honey", "jam", "nuts", "canned",
	},
	Beverages: {
		"juice", "soda", "water", "coffee", "tea", "beer", "wine", "kombucha",
		"lemonade", "smoothie",
	},
}

// aliases maps loose spellings to canonical categories. Canonical ids and
// display names are accepted by ResolveAlias without being listed here.
var aliases = map[string]Category{
	"fruit":      Produce,
	"fruits":     Produce,
	"veg":        Produce,
	"vegetable":  Produce,
	"vegetables": Produce,
	"veggies":    Produce,
	"dairy":      Dairy,
	"eggs":       Dairy,
	"meats":      Meat,
	"poultry":    Meat,
	"fish":       Seafood,
	"bread":      Bakery,
	"baked":      Bakery,
	"freezer":    Frozen,
	"dry goods":  Pantry,
	"dry_goods":  Pantry,
	"grains":     Pantry,
	"drinks":     Beverages,
	"drink":      Beverages,
	"misc":       Other,
}

// ResolveAlias maps any accepted spelling to a Category.
func ResolveAlias(alias string) (Category, error) {
	norm := strings.Join(strings.Fields(strings.ToLower(alias)), " ")
	if cat, ok := aliases[norm]; ok {
		return cat, nil
	}
	for _, cat := range AllCategories() {
		if string(cat) == norm || strings.EqualFold(cat.DisplayName(), norm) {
			return cat, nil
		}
	}
	valid := make([]string, 0, len(AllCategories()))
	for _, c := range AllCategories() {
		valid = append(valid, string(c))
	}
	sort.Strings(valid)
	return "", fmt.Errorf("unknown category %q (valid: %s)", alias, strings.Join(valid, ", "))
}

// Classify guesses the category of an item from its name. Returns Other when
// nothing matches.
func Classify(name string) Category {
	tokens := tokenize(name)
	lower := strings.ToLower(name)

	var bestCat Category
	bestScore := 0

	for _, cat := range AllCategories() {
		score := 0
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(kw, " ") {
				// Multi-word keywords are stronger evidence
				if strings.Contains(lower, kw) {
					score += 2
				}
				continue
			}
			for _, t := range tokens {
				if t == kw {
					score += 2
				} else if strings.HasPrefix(t, kw) {
					score++
				}
			}
		}
		if score > bestScore {
			bestScore = score
			bestCat = cat
		}
	}

	if bestScore == 0 {
		return Other
	}
	return bestCat
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
