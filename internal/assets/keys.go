package assets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matheuskafuri/larder/internal/classify"
)

// KeyKind is the namespace of a logical asset key.
type KeyKind string

const (
	KindCategory   KeyKind = "category"
	KindItem       KeyKind = "item"
	KindOnboarding KeyKind = "onboarding"
	KindRecipe     KeyKind = "recipe"
)

// Key identifies one logical asset. Construct keys with the helpers below
// so the same item always maps to the same stored value.
type Key struct {
	Kind KeyKind
	ID   string
}

func (k Key) String() string {
	return string(k.Kind) + ":" + k.ID
}

func CategoryKey(category string) (Key, error) {
	c, err := classify.ResolveAlias(category)
	if err != nil {
		return Key{}, err
	}
	return Key{Kind: KindCategory, ID: string(c)}, nil
}

func ItemKey(name string) (Key, error) {
	id := normalizeName(name)
	if id == "" {
		return Key{}, fmt.Errorf("item key: empty name")
	}
	return Key{Kind: KindItem, ID: id}, nil
}

func OnboardingKey(step int) (Key, error) {
	if step < 0 || step >= OnboardingSteps {
		return Key{}, fmt.Errorf("onboarding key: step %d out of range [0, %d)", step, OnboardingSteps)
	}
	return Key{Kind: KindOnboarding, ID: strconv.Itoa(step)}, nil
}

func RecipeKey(title string) (Key, error) {
	id := normalizeName(title)
	if id == "" {
		return Key{}, fmt.Errorf("recipe key: empty title")
	}
	return Key{Kind: KindRecipe, ID: id}, nil
}

// ParseKey parses "kind:id" and canonicalizes the id.
func ParseKey(s string) (Key, error) {
	kind, id, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Key{}, fmt.Errorf("invalid asset key %q: expected kind:id", s)
	}
	switch KeyKind(strings.ToLower(kind)) {
	case KindCategory:
		return CategoryKey(id)
	case KindItem:
		return ItemKey(id)
	case KindRecipe:
		return RecipeKey(id)
	case KindOnboarding:
		step, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			return Key{}, fmt.Errorf("invalid onboarding step %q", id)
		}
		return OnboardingKey(step)
	default:
		return Key{}, fmt.Errorf("unknown asset kind %q", kind)
	}
}

// CategoryKeys returns the icon key of every category, in display order.
func CategoryKeys() []string {
	cats := classify.AllCategories()
	keys := make([]string, 0, len(cats))
	for _, c := range cats {
		keys = append(keys, Key{Kind: KindCategory, ID: string(c)}.String())
	}
	return keys
}

func OnboardingKeys() []string {
	keys := make([]string, 0, OnboardingSteps)
	for i := 0; i < OnboardingSteps; i++ {
		keys = append(keys, Key{Kind: KindOnboarding, ID: strconv.Itoa(i)}.String())
	}
	return keys
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
